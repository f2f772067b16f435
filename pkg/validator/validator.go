package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse describes one failing field.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
	Message     string
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
)

// DateLayouts are the ISO-8601 forms accepted by the isodate tag.
var DateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

func init() {
	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRe.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ParseDate parses any of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date", s)
}

// ValidateStruct runs every rule and returns all failures, not only the first.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{Message: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = fieldPath(err.Namespace())
			element.Tag = err.Tag()
			element.Value = err.Param()
			element.Message = message(element.FailedField, err)
			errors = append(errors, &element)
		}
	}
	return errors
}

// Messages flattens validation failures into client-facing strings.
func Messages(errs []*ErrorResponse) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

// fieldPath drops the root struct name: "RegisterRequest.products[0].price" -> "products[0].price".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(field string, fe validator.FieldError) string {
	kind := fe.Kind()
	isString := kind == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is a required field", field)
	case "notblank":
		return fmt.Sprintf("%q cannot be an empty field", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "digits":
		return fmt.Sprintf("%q should only contain digits", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("%q must be a valid GUID", field)
	case "isodate":
		return fmt.Sprintf("%q must be in ISO 8601 date format", field)
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("%q should have a minimum length of %s", field, fe.Param())
		case kind == reflect.Slice:
			return fmt.Sprintf("%q must contain at least %s items", field, fe.Param())
		default:
			return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
		}
	case "max":
		if isString {
			return fmt.Sprintf("%q should have a maximum length of %s", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%q failed on the %q rule", field, fe.Tag())
	}
}
