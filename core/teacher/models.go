package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

type Teacher struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"school"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Qualification  string    `json:"qualification"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Subjects       []string  `json:"subjects"`
	TeacherClasses []string  `json:"teacherClasses"`
	TeacherImg     string    `json:"teacherImg"`
	PasswordHash   []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return auth.CheckPassword(t.PasswordHash, pwd)
}

func (t Teacher) Principal() auth.Principal {
	return auth.Principal{ID: t.ID, SchoolID: t.SchoolID, Role: auth.RoleTeacher, Name: t.Name, Email: t.Email}
}

// NewTeacher contains information needed to register a new Teacher.
type NewTeacher struct {
	Name           string   `json:"name" form:"name" validate:"required,max=200"`
	Email          string   `json:"email" form:"email" validate:"required,email"`
	Qualification  string   `json:"qualification" form:"qualification" validate:"required,max=200"`
	Age            int      `json:"age" form:"age" validate:"required,gte=18,lte=100"`
	Gender         string   `json:"gender" form:"gender" validate:"required,gender"`
	Subjects       []string `json:"subjects" form:"subjects"`
	TeacherClasses []string `json:"teacherClasses" form:"teacherClasses"`
	Password       string   `json:"password" form:"password" validate:"required"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Qualification = core.CleanString(nt.Qualification)
	nt.Gender = core.CleanString(nt.Gender, true /* lower */)
	nt.Subjects = cleanIDs(nt.Subjects)
	nt.TeacherClasses = cleanIDs(nt.TeacherClasses)
	return validate.Struct(nt)
}

// UpdateTeacher replaces the provided fields only. Nil slices are kept, empty ones clear.
type UpdateTeacher struct {
	Name           string   `json:"name" form:"name" validate:"omitempty,max=200"`
	Email          string   `json:"email" form:"email" validate:"omitempty,email"`
	Qualification  string   `json:"qualification" form:"qualification" validate:"omitempty,max=200"`
	Age            int      `json:"age" form:"age" validate:"omitempty,gte=18,lte=100"`
	Gender         string   `json:"gender" form:"gender" validate:"omitempty,gender"`
	Subjects       []string `json:"subjects" form:"subjects"`
	TeacherClasses []string `json:"teacherClasses" form:"teacherClasses"`
	Password       string   `json:"password" form:"password"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.Qualification = core.CleanString(ut.Qualification)
	ut.Gender = core.CleanString(ut.Gender, true /* lower */)
	if ut.Subjects != nil {
		ut.Subjects = cleanIDs(ut.Subjects)
	}
	if ut.TeacherClasses != nil {
		ut.TeacherClasses = cleanIDs(ut.TeacherClasses)
	}
	return validate.Struct(ut)
}

// QueryFilter applies AND on the set fields. Search is a case-insensitive match on the name.
type QueryFilter struct {
	Search       string `query:"search"`
	TeacherClass string `query:"teacherClass"`
	Subject      string `query:"subject"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TeacherClass = core.CleanString(qf.TeacherClass)
	qf.Subject = core.CleanString(qf.Subject)
}

// InitValidators registers the struct level validations of this package.
func InitValidators(validate *validator.Validate) {
	validate.RegisterStructValidation(teacherStructValidation, NewTeacher{}, UpdateTeacher{})
}

func teacherStructValidation(sl validator.StructLevel) {
	switch t := sl.Current().Interface().(type) {
	case NewTeacher:
		core.ValidatePassword(sl, t.Password, t.Name, t.Email)
	case UpdateTeacher:
		if t.Password != "" {
			core.ValidatePassword(sl, t.Password, t.Name, t.Email)
		}
	}
}

// cleanIDs trims ids, drops empty ones and duplicates.
func cleanIDs(ids []string) []string {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if id != "" && !core.ContainsString(cleaned, id) {
			cleaned = append(cleaned, id)
		}
	}
	return cleaned
}
