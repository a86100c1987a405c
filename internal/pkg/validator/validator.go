// Package validator wraps the go-playground/validator library
// and converts raw validation errors to readable messages.
package validator

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslation "github.com/go-playground/validator/v10/translations/en"

	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

type Validator interface {
	Validate(ctx context.Context, value any) error
}

type Rule struct {
	Tag  string
	Func validator.Func
}

type wrapper struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New(rules ...Rule) Validator {
	validate := validator.New()

	// Register default EN translator
	enLocale := en.New()
	enTranslator, found := ut.New(enLocale, enLocale).GetTranslator("en")
	if !found {
		panic(errors.New("en translator was not found"))
	}
	if err := enTranslation.RegisterDefaultTranslations(validate, enTranslator); err != nil {
		panic(errors.Errorf("translator was not registered: %w", err))
	}

	// Register custom validation rules
	for _, rule := range rules {
		if err := validate.RegisterValidation(rule.Tag, rule.Func); err != nil {
			panic(err)
		}
	}

	// Use JSON field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &wrapper{validate: validate, translator: enTranslator}
}

func (w *wrapper) Validate(ctx context.Context, value any) error {
	if err := w.validate.StructCtx(ctx, value); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return w.processError(validationErrs)
		}
		panic(err)
	}
	return nil
}

func (w *wrapper) processError(validationErrs validator.ValidationErrors) error {
	errs := errors.NewMultiError()
	for _, e := range validationErrs {
		// Trim the struct name from the namespace
		namespace := e.Namespace()
		if i := strings.IndexByte(namespace, '.'); i >= 0 {
			namespace = namespace[i+1:]
		}
		errs.Append(fmt.Errorf(`"%s" %s`, namespace, strings.TrimSpace(strings.TrimPrefix(e.Translate(w.translator), e.Field()))))
	}
	return errs.ErrorOrNil()
}
