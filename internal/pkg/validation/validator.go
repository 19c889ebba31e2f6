package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StructValidator is a singleton instance of the validator.
var StructValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse represents a validation error message.
type ErrorResponse struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
	Message     string `json:"message"`
}

// ValidateStruct returns one ErrorResponse per failed constraint, or nil.
func ValidateStruct(payload any) []*ErrorResponse {
	err := StructValidator.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []*ErrorResponse{{Message: err.Error()}}
	}
	out := make([]*ErrorResponse, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, &ErrorResponse{
			FailedField: fe.Namespace(),
			Tag:         fe.Tag(),
			Value:       fmt.Sprintf("%v", fe.Value()),
			Message:     generateValidationMessage(fe),
		})
	}
	return out
}

func generateValidationMessage(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()
	sized := false
	switch err.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		sized = true
	}

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		if sized {
			return fmt.Sprintf("The %s field must have at most %s items/characters.", field, param)
		}
		return fmt.Sprintf("The %s field must be at most %s.", field, param)
	case "min":
		if sized {
			return fmt.Sprintf("The %s field must have at least %s items/characters.", field, param)
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, param)
	case "gte":
		return fmt.Sprintf("The %s field must be greater than or equal to %s.", field, param)
	case "oneof":
		return fmt.Sprintf("The %s field must be one of [%s].", field, param)
	default:
		return fmt.Sprintf("The %s field is not valid (tag: %s).", field, err.Tag())
	}
}

// ParseAndValidate parses the request body into payload and validates it.
// On failure it writes a 400 response and returns false.
func ParseAndValidate(c *fiber.Ctx, payload any) bool {
	if err := c.BodyParser(payload); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}

	if validationErrors := ValidateStruct(payload); validationErrors != nil {
		messages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			messages[i] = ve.Message
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Validation failed",
			"details":  validationErrors,
			"messages": messages,
		})
		return false
	}
	return true
}
