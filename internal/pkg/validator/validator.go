package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ISODateLayout is the wire format for check-in and check-out dates.
const ISODateLayout = "2006-01-02"

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// YYYY-MM-DD calendar date
	validate.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse(ISODateLayout, value)
		return err == nil
	})

	// Favorite item type
	validate.RegisterValidation("favorite_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "accommodation", "":
			return true
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too small (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too large (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "iso_date":
			errors[field] = "Invalid date. Use YYYY-MM-DD"
		case "favorite_type":
			errors[field] = "Invalid favorite type. Must be: accommodation"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ParseDate parses an optional YYYY-MM-DD value. Empty input yields nil.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(ISODateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
