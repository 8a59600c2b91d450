package middleware

import (
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs custom binding validators on gin's default
// validator engine. Must be called once before the engine starts serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("ddmmyyyy", validateDDMMYYYY)
}

// validateDDMMYYYY accepts strict DD/MM/YYYY dates
func validateDDMMYYYY(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := fiscal.ParseDate(value)
	return err == nil
}
