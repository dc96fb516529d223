package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/avolkov/bookstore/internal/apperr"
)

// Validator plugs go-playground/validator into echo's Validate hook and
// collapses violations into the field -> message map of the error envelope.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = messageFor(fe)
	}
	return apperr.NewValidation(fields)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
