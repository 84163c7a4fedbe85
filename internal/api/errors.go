package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fitbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	msgInternalError   = "An unexpected error occurred. Please try again later."
	msgValidationError = "Validation error"
)

// fieldError is one entry of a 422 response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type validationBody struct {
	Detail string       `json:"detail"`
	Errors []fieldError `json:"errors"`
}

func detailBody(detail any) gin.H {
	return gin.H{"detail": detail}
}

func abortValidation(c *gin.Context, errs ...fieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationBody{
		Detail: msgValidationError,
		Errors: errs,
	})
}

// writeServiceError renders a service failure. Internal errors are logged
// with their cause and answered with a generic body.
func writeServiceError(c *gin.Context, logger *zerolog.Logger, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = service.NewInternalError("unclassified", err)
	}

	switch svcErr.Kind {
	case service.KindValidation:
		location := svcErr.Details["location"]
		if location == "" {
			location = service.LocationBody
		}
		field := location
		if name := svcErr.Details["field"]; name != "" {
			field += " -> " + name
		}
		abortValidation(c, fieldError{Field: field, Message: svcErr.Message, Type: "value_error"})
	case service.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, detailBody(svcErr.Message))
	case service.KindInvalidState:
		c.AbortWithStatusJSON(http.StatusBadRequest, detailBody(svcErr.Message))
	case service.KindRateLimited:
		c.AbortWithStatusJSON(http.StatusTooManyRequests, detailBody(svcErr.Message))
	case service.KindConflict:
		detail := map[string]string{"error": svcErr.Message}
		for k, v := range svcErr.Details {
			detail[k] = v
		}
		c.AbortWithStatusJSON(http.StatusConflict, detailBody(detail))
	default:
		logger.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, detailBody(msgInternalError))
	}
}

// bindErrors converts JSON decoding and validator failures into field errors.
func bindErrors(err error, location string) []fieldError {
	var (
		validationErrs validator.ValidationErrors
		typeErr        *json.UnmarshalTypeError
		syntaxErr      *json.SyntaxError
	)

	switch {
	case errors.As(err, &validationErrs):
		out := make([]fieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			message, kind := describeFieldError(fe)
			out = append(out, fieldError{
				Field:   location + " -> " + fe.Field(),
				Message: message,
				Type:    kind,
			})
		}
		return out
	case errors.As(err, &typeErr):
		return []fieldError{{
			Field:   location + " -> " + typeErr.Field,
			Message: fmt.Sprintf("Input should be a valid %s", jsonKind(typeErr.Type.Kind().String())),
			Type:    "type_error",
		}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return []fieldError{{
			Field:   location,
			Message: "JSON decode error",
			Type:    "json_invalid",
		}}
	default:
		return []fieldError{{Field: location, Message: err.Error(), Type: "value_error"}}
	}
}

func describeFieldError(fe validator.FieldError) (string, string) {
	switch fe.Tag() {
	case "required":
		return "Field required", "missing"
	case "email":
		return "value is not a valid email address", "value_error"
	case "min":
		return fmt.Sprintf("String should have at least %s characters", fe.Param()), "string_too_short"
	case "max":
		return fmt.Sprintf("String should have at most %s characters", fe.Param()), "string_too_long"
	case "gte":
		return fmt.Sprintf("Input should be greater than or equal to %s", fe.Param()), "greater_than_equal"
	case "lte":
		return fmt.Sprintf("Input should be less than or equal to %s", fe.Param()), "less_than_equal"
	default:
		return fe.Error(), fe.Tag()
	}
}

func jsonKind(goKind string) string {
	switch {
	case strings.HasPrefix(goKind, "int"), strings.HasPrefix(goKind, "uint"):
		return "integer"
	case goKind == "string":
		return "string"
	default:
		return goKind
	}
}
