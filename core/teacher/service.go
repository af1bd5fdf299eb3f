package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound         = core.NewNotFoundError("teacher")
	ErrEmailNotFound    = core.NewNotFoundError("email")
	ErrEmailExists      = core.NewConflictError("a teacher with this email already exists")
	ErrPasswordMismatch = core.NewUnauthorizedError("password is incorrect")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateTeacher returns ErrEmailExists when the email is taken.
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, schoolID, id string) (Teacher, error)
		GetTeacherByEmail(ctx context.Context, email string) (Teacher, error)
		QueryTeachers(ctx context.Context, schoolID string, filter QueryFilter) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, schoolID, id string) error
		TeacherExists(ctx context.Context, schoolID, id string) (bool, error)
		EmailExists(ctx context.Context, email, excludedID string) (bool, error)
	}

	Service struct {
		repo     Repository
		classes  core.Lookup
		subjects core.Lookup
	}
)

var (
	_ core.Lookup = (*Service)(nil)
	_ core.Staff  = (*Service)(nil)
)

func NewService(repo Repository, classes, subjects core.Lookup) *Service {
	return &Service{repo: repo, classes: classes, subjects: subjects}
}

func (svc *Service) checkEmail(ctx context.Context, email, excludedID string) error {
	exists, err := svc.repo.EmailExists(ctx, email, excludedID)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return ErrEmailExists
	}
	return nil
}

// checkRefs ensures all referenced classes and subjects belong to the school.
func (svc *Service) checkRefs(ctx context.Context, schoolID string, subjects, classes []string) error {
	var fldErrs []core.FieldError
	for _, id := range subjects {
		ok, err := svc.subjects.Exists(ctx, schoolID, id)
		if err != nil {
			return errors.Wrap(err, "checking subject")
		}
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: "subjects", Error: "subject " + id + " not found"})
			break
		}
	}
	for _, id := range classes {
		ok, err := svc.classes.Exists(ctx, schoolID, id)
		if err != nil {
			return errors.Wrap(err, "checking class")
		}
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: "teacherClasses", Error: "class " + id + " not found"})
			break
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// Register creates a Teacher in the school of `p`. `img` is the stored image filename.
func (svc *Service) Register(ctx context.Context, p auth.Principal, nt NewTeacher, img string) (Teacher, error) {
	if err := svc.checkRefs(ctx, p.SchoolID, nt.Subjects, nt.TeacherClasses); err != nil {
		return Teacher{}, err
	}
	if err := svc.checkEmail(ctx, nt.Email, ""); err != nil {
		return Teacher{}, err
	}
	t := Teacher{
		SchoolID:       p.SchoolID,
		Name:           nt.Name,
		Email:          nt.Email,
		Qualification:  nt.Qualification,
		Age:            nt.Age,
		Gender:         nt.Gender,
		Subjects:       nt.Subjects,
		TeacherClasses: nt.TeacherClasses,
		TeacherImg:     img,
		CreatedAt:      nowFunc().UTC(),
	}
	if err := t.SetPassword(nt.Password); err != nil {
		return Teacher{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateTeacher(ctx, t)
}

func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Teacher, error) {
	t, err := svc.repo.GetTeacherByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Teacher{}, ErrEmailNotFound
		}
		return Teacher{}, errors.Wrap(err, "finding teacher by email")
	}
	if err = t.CheckPassword(pwd); err != nil {
		return Teacher{}, ErrPasswordMismatch
	}
	return t, nil
}

func (svc *Service) Query(ctx context.Context, p auth.Principal, filter QueryFilter) ([]Teacher, error) {
	filter.Clean()
	return svc.repo.QueryTeachers(ctx, p.SchoolID, filter)
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, p.SchoolID, id)
}

// Update modifies the Teacher. An empty `img` keeps the current image.
func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, ut UpdateTeacher, img string) (Teacher, error) {
	t, err := svc.repo.GetTeacher(ctx, p.SchoolID, id)
	if err != nil {
		return Teacher{}, err
	}
	if err = svc.checkRefs(ctx, p.SchoolID, ut.Subjects, ut.TeacherClasses); err != nil {
		return Teacher{}, err
	}
	if ut.Email != "" && ut.Email != t.Email {
		if err = svc.checkEmail(ctx, ut.Email, t.ID); err != nil {
			return Teacher{}, err
		}
		t.Email = ut.Email
	}
	if ut.Name != "" {
		t.Name = ut.Name
	}
	if ut.Qualification != "" {
		t.Qualification = ut.Qualification
	}
	if ut.Age != 0 {
		t.Age = ut.Age
	}
	if ut.Gender != "" {
		t.Gender = ut.Gender
	}
	if ut.Subjects != nil {
		t.Subjects = ut.Subjects
	}
	if ut.TeacherClasses != nil {
		t.TeacherClasses = ut.TeacherClasses
	}
	if img != "" {
		t.TeacherImg = img
	}
	if ut.Password != "" {
		if err = t.SetPassword(ut.Password); err != nil {
			return Teacher{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateTeacher(ctx, t)
}

// Delete removes the Teacher and returns it, so its image can be removed too.
func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) (Teacher, error) {
	t, err := svc.repo.GetTeacher(ctx, p.SchoolID, id)
	if err != nil {
		return Teacher{}, err
	}
	if err = svc.repo.DeleteTeacher(ctx, p.SchoolID, id); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	t, err := svc.repo.GetTeacherByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = t.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateTeacher(ctx, t)
	return err
}

func (svc *Service) Exists(ctx context.Context, schoolID, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return svc.repo.TeacherExists(ctx, schoolID, id)
}

func (svc *Service) TeacherClassIDs(ctx context.Context, schoolID, teacherID string) ([]string, error) {
	t, err := svc.repo.GetTeacher(ctx, schoolID, teacherID)
	if err != nil {
		return nil, err
	}
	return t.TeacherClasses, nil
}
