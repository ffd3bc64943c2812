// Package validation wraps a shared go-playground validator and renders its
// failures as French messages keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
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
	})
	return validate
}

// Struct validates v and returns field -> message, or nil when v is valid.
func Struct(v any) map[string]string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		out[fe.Field()] = message(fe)
	}
	return out
}

// Var validates a single value against a tag string.
func Var(v any, tag string) error {
	return instance().Var(v, tag)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Saisissez une adresse e-mail valide."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ce champ doit contenir au moins %s caractères.", fe.Param())
		}
		return fmt.Sprintf("Cette valeur doit être supérieure ou égale à %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ce champ ne doit pas dépasser %s caractères.", fe.Param())
		}
		return fmt.Sprintf("Cette valeur doit être inférieure ou égale à %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Cette valeur doit être supérieure ou égale à %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Cette valeur doit être inférieure ou égale à %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Cette valeur doit être supérieure à %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Valeur invalide, choix possibles : %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return "Les deux valeurs ne correspondent pas."
	case "url":
		return "Saisissez une URL valide."
	default:
		return fmt.Sprintf("Valeur invalide (%s).", fe.Tag())
	}
}
