package validator

// Validator bundles the business validator behind a single handle that
// services and handlers share
type Validator struct {
	business *BusinessValidator
}

// New creates a Validator with all rules registered
func New() *Validator {
	return &Validator{
		business: NewBusinessValidator(),
	}
}

// GetBusinessValidator returns the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
