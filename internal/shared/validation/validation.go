package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"jobboard-backend/internal/shared/apperr"
)

// Enum is implemented by closed string enums.
type Enum interface {
	Valid() bool
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() == reflect.Slice {
				for i := 0; i < field.Len(); i++ {
					if e, ok := field.Index(i).Interface().(Enum); ok && !e.Valid() {
						return false
					}
				}
				return true
			}
			if e, ok := field.Interface().(Enum); ok {
				return e.Valid()
			}
			return false
		})
		instance = v
	})
	return instance
}

// Struct validates v and returns the violated fields. The field path uses
// JSON names with the top-level struct name stripped ("salary.min").
func Struct(v any) []apperr.FieldError {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{apperr.Field("body", err.Error())}
	}
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.Field(fieldPath(fe.Namespace()), message(fe)))
	}
	return out
}

func fieldPath(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	name := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if isString(fe) {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if isString(fe) {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", name, fe.Param())
	case "enum", "oneof":
		return fmt.Sprintf("%s has an unsupported value", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

func isString(fe validator.FieldError) bool {
	k := fe.Kind()
	if k == reflect.Ptr {
		t := fe.Type()
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		k = t.Kind()
	}
	return k == reflect.String
}
