package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

// School is the root tenant: it owns classes, subjects, teachers, students and notices.
type School struct {
	ID           string    `json:"id"`
	SchoolName   string    `json:"schoolName"`
	Email        string    `json:"email"`
	OwnerName    string    `json:"ownerName"`
	SchoolImg    string    `json:"schoolImg"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

func (s *School) SetPassword(pwd string) error {
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *School) CheckPassword(pwd string) error {
	return auth.CheckPassword(s.PasswordHash, pwd)
}

// Principal returns the identity a school acts as: its own tenant.
func (s School) Principal() auth.Principal {
	return auth.Principal{ID: s.ID, SchoolID: s.ID, Role: auth.RoleSchool, Name: s.OwnerName, Email: s.Email}
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	SchoolName string `json:"schoolName" form:"schoolName" validate:"required,max=200"`
	Email      string `json:"email" form:"email" validate:"required,email"`
	OwnerName  string `json:"ownerName" form:"ownerName" validate:"required,max=200"`
	Password   string `json:"password" form:"password" validate:"required"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.SchoolName = core.CleanString(ns.SchoolName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.OwnerName = core.CleanString(ns.OwnerName)
	return validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify the School. Empty fields are kept.
type UpdateSchool struct {
	SchoolName string `json:"schoolName" form:"schoolName" validate:"omitempty,max=200"`
	Email      string `json:"email" form:"email" validate:"omitempty,email"`
	OwnerName  string `json:"ownerName" form:"ownerName" validate:"omitempty,max=200"`
	Password   string `json:"password" form:"password"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate) error {
	us.SchoolName = core.CleanString(us.SchoolName)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.OwnerName = core.CleanString(us.OwnerName)
	return validate.Struct(us)
}

// InitValidators registers the struct level validations of this package.
func InitValidators(validate *validator.Validate) {
	validate.RegisterStructValidation(schoolStructValidation, NewSchool{}, UpdateSchool{})
}

func schoolStructValidation(sl validator.StructLevel) {
	switch s := sl.Current().Interface().(type) {
	case NewSchool:
		core.ValidatePassword(sl, s.Password, s.SchoolName, s.OwnerName, s.Email)
	case UpdateSchool:
		if s.Password != "" {
			core.ValidatePassword(sl, s.Password, s.SchoolName, s.OwnerName, s.Email)
		}
	}
}
