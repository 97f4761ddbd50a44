package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance. Field names in its errors are
// taken from yaml tags so messages match what users write in config files.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// ValidateStruct checks v against its `validate` struct tags.
func ValidateStruct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	return formatValidationError(validate.Struct(v))
}

// formatValidationError converts validator errors to a more user-friendly
// format, keeping every failing field.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			errs = append(errs, fmt.Errorf("%s: must be at least %s", field, param))
		case "max", "lte":
			errs = append(errs, fmt.Errorf("%s: must not exceed %s", field, param))
		case "oneof":
			errs = append(errs, fmt.Errorf("%s: must be one of [%s]", field, param))
		case "hostname_port":
			errs = append(errs, fmt.Errorf("%s: must be host:port", field))
		default:
			errs = append(errs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(errs...)
}
