package handlers

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists the request parameters that could not be bound,
// keyed by parameter name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

func (e *ValidationError) errorsMap() map[string]any {
	out := make(map[string]any, len(e.Fields))
	for name, msg := range e.Fields {
		out[name] = msg
	}
	return out
}

func fieldError(name, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{name: msg}}
}

func validationMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return "field required"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
