package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, ok := uni.GetTranslator("en")
	require.True(t, ok)
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

func TestCustomValidators(t *testing.T) {
	validate, translator := newTestValidator(t)

	type sample struct {
		Start    string `json:"startTime" validate:"omitempty,hhmm"`
		Gender   string `json:"gender" validate:"omitempty,gender"`
		Audience string `json:"audience" validate:"omitempty,audience"`
		Status   string `json:"status" validate:"omitempty,attendance_status"`
		Name     string `json:"name" validate:"required"`
	}

	tests := []struct {
		name      string
		in        sample
		wantField string
		wantMsg   string
	}{
		{name: "valid", in: sample{Start: "09:30", Gender: "Female", Audience: "All", Status: "Present", Name: "x"}},
		{name: "bad time", in: sample{Start: "9:30", Name: "x"}, wantField: "startTime", wantMsg: "startTime must be a time of day formatted as HH:MM"},
		{name: "bad hour", in: sample{Start: "24:00", Name: "x"}, wantField: "startTime"},
		{name: "bad gender", in: sample{Gender: "robot", Name: "x"}, wantField: "gender"},
		{name: "audience is case sensitive", in: sample{Audience: "student", Name: "x"}, wantField: "audience"},
		{name: "bad status", in: sample{Status: "Late", Name: "x"}, wantField: "status"},
		{name: "required", in: sample{}, wantField: "name", wantMsg: "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantField, vErrs[0].Field())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, vErrs[0].Translate(translator))
			}
		})
	}
}

func TestPasswordPolicyTag(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1#", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234#", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "not complex", pwd: "abcdefgh12", want: pwdComplexityTag},
		{name: "similar to email", pwd: "Jane.doe@1", attrs: []string{"jane.doe@1"}, want: pwdAttrSimTag},
		{name: "ok", pwd: "Xk9#mPq2vL", attrs: []string{"Jane Doe", "jane@school.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordPolicyTag(tt.pwd, tt.attrs...))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_photo.png", SanitizeFilename("my   photo.png"))
	assert.Equal(t, "evil.png", SanitizeFilename("../../etc/evil.png"))
	assert.Equal(t, "x.jpg", SanitizeFilename(`C:\Users\x.jpg`))
	assert.Equal(t, "", SanitizeFilename(""))
	assert.Equal(t, "", SanitizeFilename(".."))
	assert.Equal(t, "", SanitizeFilename(`..\`))
	assert.Equal(t, "", SanitizeFilename("a/b/.."))
}

func TestPage_Clean(t *testing.T) {
	p := Page{Number: 0, Limit: 500}
	p.Clean()
	assert.Equal(t, Page{Number: 1, Limit: MaxPageLimit}, p)
	assert.Equal(t, 0, p.Offset())

	p = Page{Number: 3, Limit: 20}
	p.Clean()
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, Pagination{Page: 3, Limit: 20, Total: 41, Pages: 3}, NewPagination(p, 41))
}
