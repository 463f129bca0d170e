package models

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrEmptySection is returned for a nil or zero-length payload
var ErrEmptySection = errors.New("section payload is empty")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func sectionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateSection checks that a section payload has the shape the site
// renders: a single record, or a non-empty list whose every element is valid.
// Live CMS payloads and fallback records go through the same check.
func ValidateSection(payload any) error {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ErrEmptySection
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return ErrEmptySection
		}
		for i := 0; i < v.Len(); i++ {
			if err := sectionValidator().Struct(v.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case reflect.Struct:
		return sectionValidator().Struct(v.Interface())
	case reflect.Invalid:
		return ErrEmptySection
	default:
		return fmt.Errorf("unsupported section payload type %s", v.Type())
	}
}

// IsEmptySection reports whether payload carries nothing to render
func IsEmptySection(payload any) bool {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	case reflect.Invalid:
		return true
	default:
		return v.IsZero()
	}
}
