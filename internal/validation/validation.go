package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

const notBlankTag = "notblank"

// Validator wraps go-playground/validator with English messages and JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// dates validate as their string form so "required" means "set"
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(dateutil.Date); ok {
			return d.String()
		}
		return nil
	}, dateutil.Date{})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " cannot be blank"
		})

	return &Validator{validate: validate, translator: translator}
}

// Struct validates v and converts failures into a *domain.ValidationError.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	fields := make([]domain.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, domain.FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
		})
	}
	return &domain.ValidationError{Fields: fields}
}

// Task is the shared validation path for form submissions and imported records.
func (v *Validator) Task(task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return v.Struct(task)
}

// Messages validates every turn of a conversation.
func (v *Validator) Messages(messages []domain.ChatMessage) error {
	if len(messages) == 0 {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "messages", Message: "messages is a required field"}}}
	}
	for i := range messages {
		if err := v.Struct(&messages[i]); err != nil {
			return err
		}
	}
	return nil
}
