package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// RespondError writes err as JSON. Internal and upstream causes are logged, not echoed.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("internal server error", err)
	}

	status := appErr.Kind.Status()
	if status >= http.StatusInternalServerError {
		GetLogger().Error(appErr.Message,
			zap.Error(appErr.Err),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
		)
	}
	c.JSON(status, ErrorResponse{Error: appErr.Message, Fields: appErr.Fields})
}

// BindingError converts a gin binding failure into a validation AppError.
func BindingError(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = describe(fe)
		}
		return &AppError{Kind: KindValidation, Message: "invalid request", Fields: fields}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return NewValidationError("request body is empty")
	case errors.As(err, &syntaxErr):
		return NewValidationError("request body is not valid JSON")
	case errors.As(err, &typeErr):
		return NewFieldError(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type.Kind()))
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return NewValidationError(strings.TrimPrefix(err.Error(), "json: "))
	}
	return NewValidationError(err.Error())
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return lowerFirst(ns)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
