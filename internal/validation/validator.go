// Package validation checks form and API input with validator/v10 and reports
// failures as domain validation errors with per-field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
)

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their form or json tag and
// knows the manga_id and cover_url rules.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("manga_id", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseMangaID(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("cover_url", func(fl validator.FieldLevel) bool {
		return domain.IsCatalogCoverURL(fl.Field().String())
	})
	return &Validator{v: v}
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"form", "json"} {
		if name, _, _ := strings.Cut(f.Tag.Get(key), ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Validate returns nil or a *domainerrors.Error with CodeValidation whose
// Details is a map of field name to message.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = message(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", fields)
}

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		return nil
	}
	fields, _ := domainErr.Details.(map[string]string)
	return fields
}

var messages = map[string]func(param string) string{
	"required":  func(string) string { return "is required" },
	"manga_id":  func(string) string { return "must be a positive numeric catalog id" },
	"url":       func(string) string { return "must be a valid URL" },
	"cover_url": func(string) string { return "must be an https AniList image URL" },
	"min":       func(p string) string { return "must be at least " + p + " characters" },
	"max":       func(p string) string { return "must not exceed " + p + " characters" },
	"oneof":     func(p string) string { return "must be one of: " + p },
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m(fe.Param())
	}
	return "is invalid"
}
