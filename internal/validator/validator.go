package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
)

const maxUsernameLength = 100

// Validator wraps go-playground/validator with the portal's custom rules
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Fields lists the failing field names in order
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field)
	}
	return fields
}

// New creates a validator with the username, user_role and bcrypt_len rules
// registered
func New() *Validator {
	validate := validator.New()

	// report json names instead of Go field names
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

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate returns nil when s passes, or ValidationErrors describing every
// failing field.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   redact(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	// bcrypt counts bytes, not characters
	v.validate.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= utils.MaxPasswordBytes
	})
}

// ValidUsername accepts 1 to 100 printable characters without whitespace
func ValidUsername(s string) bool {
	if s == "" || len(s) > maxUsernameLength {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "username":
		return "must be 1-100 characters without spaces"
	case "user_role":
		return "must be admin or student"
	case "bcrypt_len":
		return fmt.Sprintf("must be at most %d bytes", utils.MaxPasswordBytes)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// passwords are never echoed back
func redact(fe validator.FieldError) interface{} {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return nil
	}
	return fe.Value()
}
