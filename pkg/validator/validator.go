package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)

var customValidators = map[string]validator.Func{
	"calendardate": func(fl validator.FieldLevel) bool {
		_, ok := calendar.ParseISO(fl.Field().String())
		return ok
	},
	"phone": func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	},
}

var messages = map[string]string{
	"required":     "is required",
	"calendardate": "must be a date in YYYY-MM-DD format",
	"phone":        "must contain only digits, spaces, dashes, parentheses and an optional leading +",
	"required_if":  "is required for this result type",
	"oneof":        "must be one of: %s",
	"min":          "must be at least %s characters",
	"max":          "must be at most %s characters",
}

var (
	once     sync.Once
	instance *validator.Validate
)

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	for tag, fn := range customValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

// Instance returns the shared validator with the custom tags registered.
func Instance() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		register(instance)
	})
	return instance
}

// RegisterGin installs the custom tags on gin's binding validator so that
// `binding:"..."` tags can use them.
func RegisterGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

// Validate checks obj against its `validate` tags and reports failures as a
// validation AppError keyed by JSON field name.
func Validate(obj interface{}) error {
	err := Instance().Struct(obj)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.BadRequest("invalid input", err)
	}
	return errors.Validation(Fields(verrs))
}

// Fields turns validation errors into field -> message pairs.
func Fields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return fields
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}
