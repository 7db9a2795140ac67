package validator

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierr "github.com/arga-sso/ssoauthority/internal/errors"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	validate.RegisterValidation("clientcode", validateClientCode)
}

// ValidateStruct validates a struct and returns the raw validator error.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateRequest validates a request struct and returns formatted errors.
// Returns nil if validation passes, or a map of field errors.
func ValidateRequest(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			errs[field] = formatValidationError(e)
		}
	}

	return errs
}

// BindAndValidate binds JSON and validates in one step. Returns true if
// successful; otherwise it has already written a ValidationError response
// and the caller should return immediately.
func BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		appErr := apierr.ValidationError(err.Error())
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return false
	}

	if errs := ValidateRequest(req); errs != nil {
		details := make([]string, 0, len(errs))
		for field, msg := range errs {
			details = append(details, field+": "+msg)
		}
		appErr := apierr.NewWithDetails(apierr.CodeValidationError, "validation failed", strings.Join(details, "; "))
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return false
	}

	return true
}

// formatValidationError converts validator errors to human-readable messages
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + e.Param()
	case "clientcode":
		return "must be lowercase alphanumeric with '_' or '-' only"
	default:
		return "validation failed: " + e.Tag()
	}
}

// Custom Validators

// validateClientCode enforces Application.Code's invariant: lowercase
// alphanumeric plus "_-".
func validateClientCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return false
	}
	for _, char := range code {
		switch {
		case char >= 'a' && char <= 'z':
		case char >= '0' && char <= '9':
		case char == '-' || char == '_':
		default:
			return false
		}
	}
	return true
}
