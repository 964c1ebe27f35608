package config

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/greynewell/intentbench/errors"
)

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML key, which matches the flag names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
})

// Validate checks every field against its validate tag and returns a
// CodeValidation error listing all violations.
func (c Config) Validate() error {
	err := validate().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.CodeValidation, err, "invalid config")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(errors.CodeValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return name + " must be an absolute URL"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "min", "gte":
		return name + " must be at least " + fe.Param()
	case "max":
		return name + " must be at most " + fe.Param()
	case "gt":
		return name + " must be positive"
	default:
		return name + " failed " + fe.Tag()
	}
}
