package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	hhmmTag   = "hhmm"
	hhmmText  = "{0} must be a time of day formatted as HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	genderTag  = "gender"
	genderText = "gender must be one of: male, female, other"
	Genders    = []string{"male", "female", "other"}

	audienceTag  = "audience"
	audienceText = "audience must be one of: Student, Teacher, All"
	Audiences    = []string{"Student", "Teacher", "All"}

	attendanceStatusTag  = "attendance_status"
	attendanceStatusText = "status must be one of: Present, Absent"
	AttendanceStatuses   = []string{"Present", "Absent"}

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "{0} is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)

	_ = validate.RegisterValidation(genderTag, oneOfValidation(Genders, true))
	RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(audienceTag, oneOfValidation(Audiences, false))
	RegisterCustomTranslation(validate, translator, audienceTag, audienceText)

	_ = validate.RegisterValidation(attendanceStatusTag, oneOfValidation(AttendanceStatuses, false))
	RegisterCustomTranslation(validate, translator, attendanceStatusTag, attendanceStatusText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)

	registerPasswordTranslations(validate, translator)
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

// Custom Global Validators

// hhmmValidation only allows 24h times of day, e.g. "09:30".
func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func oneOfValidation(allowed []string, lower bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		if lower {
			val = strings.ToLower(val)
		}
		return ContainsString(allowed, val)
	}
}
