package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

type Student struct {
	ID           string    `json:"id"`
	SchoolID     string    `json:"school"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	StudentClass string    `json:"studentClass"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Parent       string    `json:"parent"`
	ParentNum    string    `json:"parentNum"`
	StudentImg   string    `json:"studentImg"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return auth.CheckPassword(s.PasswordHash, pwd)
}

func (s Student) Principal() auth.Principal {
	return auth.Principal{ID: s.ID, SchoolID: s.SchoolID, Role: auth.RoleStudent, Name: s.Name, Email: s.Email}
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name         string `json:"name" form:"name" validate:"required,max=200"`
	Email        string `json:"email" form:"email" validate:"required,email"`
	StudentClass string `json:"studentClass" form:"studentClass" validate:"required"`
	Age          int    `json:"age" form:"age" validate:"required,gte=3,lte=100"`
	Gender       string `json:"gender" form:"gender" validate:"required,gender"`
	Parent       string `json:"parent" form:"parent" validate:"required,max=200"`
	ParentNum    string `json:"parentNum" form:"parentNum" validate:"required,max=30"`
	Password     string `json:"password" form:"password" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.StudentClass = core.CleanString(ns.StudentClass)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.Parent = core.CleanString(ns.Parent)
	ns.ParentNum = core.CleanString(ns.ParentNum)
	return validate.Struct(ns)
}

// UpdateStudent replaces the provided fields only.
type UpdateStudent struct {
	Name         string `json:"name" form:"name" validate:"omitempty,max=200"`
	Email        string `json:"email" form:"email" validate:"omitempty,email"`
	StudentClass string `json:"studentClass" form:"studentClass"`
	Age          int    `json:"age" form:"age" validate:"omitempty,gte=3,lte=100"`
	Gender       string `json:"gender" form:"gender" validate:"omitempty,gender"`
	Parent       string `json:"parent" form:"parent" validate:"omitempty,max=200"`
	ParentNum    string `json:"parentNum" form:"parentNum" validate:"omitempty,max=30"`
	Password     string `json:"password" form:"password"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.StudentClass = core.CleanString(us.StudentClass)
	us.Gender = core.CleanString(us.Gender, true /* lower */)
	us.Parent = core.CleanString(us.Parent)
	us.ParentNum = core.CleanString(us.ParentNum)
	return validate.Struct(us)
}

// QueryFilter applies AND on the set fields. Search is a case-insensitive match on the name.
type QueryFilter struct {
	Search       string `query:"search"`
	StudentClass string `query:"studentClass"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.StudentClass = core.CleanString(qf.StudentClass)
}

// InitValidators registers the struct level validations of this package.
func InitValidators(validate *validator.Validate) {
	validate.RegisterStructValidation(studentStructValidation, NewStudent{}, UpdateStudent{})
}

func studentStructValidation(sl validator.StructLevel) {
	switch s := sl.Current().Interface().(type) {
	case NewStudent:
		core.ValidatePassword(sl, s.Password, s.Name, s.Email)
	case UpdateStudent:
		if s.Password != "" {
			core.ValidatePassword(sl, s.Password, s.Name, s.Email)
		}
	}
}
