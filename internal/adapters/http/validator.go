package http

import "github.com/go-playground/validator/v10"

// CustomValidator plugs go-playground/validator into echo's request
// validation hook.
type CustomValidator struct {
	validate *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate checks the struct tags on a bound request body. The raw error
// is returned; handlers translate it into a 400 response.
func (v *CustomValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
