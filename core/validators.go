package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MonthLayout is the wire format of a syllabus month.
const MonthLayout = "2006-01"

var (
	// custom validation tags & texts
	monthTag  = "month"
	monthText = "must be a month formatted as YYYY-MM"

	slugTag   = "slug"
	slugText  = "only letters, digits, dashes and underscores are allowed"
	slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	ownerKindTag  = "ownerkind"
	ownerKindText = "must be one of: course, subject"

	subtopicStatusTag  = "subtopicstatus"
	subtopicStatusText = "must be one of: incomplete, completed"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidate returns a validator with the global validators and translations registered.
func NewValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	InitValidators(validate, translator)
	return validate
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(monthTag, monthValidation)
	RegisterCustomTranslation(validate, translator, monthTag, monthText)

	_ = validate.RegisterValidation(slugTag, slugValidation)
	RegisterCustomTranslation(validate, translator, slugTag, slugText)

	_ = validate.RegisterValidation(ownerKindTag, ownerKindValidation)
	RegisterCustomTranslation(validate, translator, ownerKindTag, ownerKindText)

	_ = validate.RegisterValidation(subtopicStatusTag, subtopicStatusValidation)
	RegisterCustomTranslation(validate, translator, subtopicStatusTag, subtopicStatusText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateValidationErrors converts validator errors into a *ValidationError whose field paths
// are JSON paths relative to the validated struct, eg. `weeks[0].topics[1].subtopics`.
func TranslateValidationErrors(err error, translator ut.Translator, msg error) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		ns := vErr.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:] // drop the root struct name
		}
		flds = append(flds, FieldError{Field: ns, Error: vErr.Translate(translator)})
	}
	return NewValidationError(msg, flds...)
}

// IsValidMonth reports whether s is a YYYY-MM month.
func IsValidMonth(s string) bool {
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}

// Custom Global Validators

func monthValidation(fl validator.FieldLevel) bool {
	return IsValidMonth(fl.Field().String())
}

// slugValidation only allows ASCII letters, digits, dashes and underscores.
func slugValidation(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func ownerKindValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case OwnerKindCourse, OwnerKindSubject:
		return true
	}
	return false
}

func subtopicStatusValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "incomplete", "completed":
		return true
	}
	return false
}
