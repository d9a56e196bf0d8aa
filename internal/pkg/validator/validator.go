package validator

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("clock", validateClock)

	// gin binds request DTOs with its own validator instance.
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = engine.RegisterValidation("clock", validateClock)
	}
}

func validateClock(fl validator.FieldLevel) bool {
	return clockRe.MatchString(fl.Field().String())
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return Fields(err)
}

// Fields flattens validator errors (including those produced by gin
// binding) into a field -> failed tag map. Other errors map to "body".
func Fields(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	out["body"] = err.Error()
	return out
}

func IsClock(s string) bool {
	return clockRe.MatchString(s)
}
