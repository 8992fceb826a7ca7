// Package validate checks structs against their validate tags and reports
// failures in plain English.
package validate

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once     sync.Once
	instance *validator.Validate
	trans    ut.Translator
)

func setup() {
	instance = validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("en")
	// English translations ship with the validator; failure leaves raw messages.
	_ = en_translations.RegisterDefaultTranslations(instance, trans)
}

// Struct validates v. Field errors are joined into one message, each
// prefixed by the field's namespace.
func Struct(v any) error {
	once.Do(setup)
	err := instance.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fe.Namespace() + ": " + fe.Translate(trans)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Var validates a single value against tag.
func Var(v any, tag string) error {
	once.Do(setup)
	return instance.Var(v, tag)
}
