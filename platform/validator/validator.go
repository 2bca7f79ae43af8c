// Package validator wraps go-playground/validator with the tags shared by the
// evaluation API.
package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator so it can be injected.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered:
//
//	notblank  string is not empty after trimming whitespace
//	weight    float in [0, 1]
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("weight", weight)
	return &Validator{v: v}
}

func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// FieldErrors flattens a validation error into field -> failed tag. Errors
// that did not come from the validator yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func weight(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return f >= 0 && f <= 1
}
