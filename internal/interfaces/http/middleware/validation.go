package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// SetupValidator makes validation errors name fields by their json or
// form tag.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// FormatValidationErrors turns a binding error into a 400 body
func FormatValidationErrors(err error, requestID string) dto.Response {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed JSON body", requestID)
	case errors.As(err, &typeErr):
		return dto.NewValidationErrorResponse("Request validation failed", requestID, []dto.ValidationDetail{
			{Field: typeErr.Field, Message: "Must be a " + typeErr.Type.String()},
		})
	}
	return dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Invalid request", requestID)
}

// HandleValidationError writes the 400 response for a binding error
func HandleValidationError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func validationMessage(e validator.FieldError) string {
	str := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if str {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must have at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if str {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must have at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}
