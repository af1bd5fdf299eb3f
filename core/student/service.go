package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound         = core.NewNotFoundError("student")
	ErrEmailNotFound    = core.NewNotFoundError("email")
	ErrEmailExists      = core.NewConflictError("a student with this email already exists")
	ErrPasswordMismatch = core.NewUnauthorizedError("password is incorrect")

	errClassNotFound = errors.New("class not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateStudent returns ErrEmailExists when the email is taken.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, schoolID, id string) (Student, error)
		GetStudentByEmail(ctx context.Context, email string) (Student, error)
		QueryStudents(ctx context.Context, schoolID string, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, schoolID, id string) error
		StudentExists(ctx context.Context, schoolID, id string) (bool, error)
		EmailExists(ctx context.Context, email, excludedID string) (bool, error)
	}

	Service struct {
		repo    Repository
		classes core.Lookup
	}
)

var (
	_ core.Lookup = (*Service)(nil)
	_ core.Roster = (*Service)(nil)
)

func NewService(repo Repository, classes core.Lookup) *Service {
	return &Service{repo: repo, classes: classes}
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

func (svc *Service) checkClass(ctx context.Context, schoolID, classID string) error {
	ok, err := svc.classes.Exists(ctx, schoolID, classID)
	if err != nil {
		return errors.Wrap(err, "checking class")
	}
	if !ok {
		return core.NewValidationError(errClassNotFound, core.FieldError{Field: "studentClass", Error: errClassNotFound.Error()})
	}
	return nil
}

// Register creates a Student in the school of `p`. `img` is the stored image filename.
func (svc *Service) Register(ctx context.Context, p auth.Principal, ns NewStudent, img string) (Student, error) {
	if err := svc.checkClass(ctx, p.SchoolID, ns.StudentClass); err != nil {
		return Student{}, err
	}
	if err := svc.checkEmail(ctx, ns.Email, ""); err != nil {
		return Student{}, err
	}
	s := Student{
		SchoolID:     p.SchoolID,
		Name:         ns.Name,
		Email:        ns.Email,
		StudentClass: ns.StudentClass,
		Age:          ns.Age,
		Gender:       ns.Gender,
		Parent:       ns.Parent,
		ParentNum:    ns.ParentNum,
		StudentImg:   img,
		CreatedAt:    nowFunc().UTC(),
	}
	if err := s.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Student, error) {
	s, err := svc.repo.GetStudentByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Student{}, ErrEmailNotFound
		}
		return Student{}, errors.Wrap(err, "finding student by email")
	}
	if err = s.CheckPassword(pwd); err != nil {
		return Student{}, ErrPasswordMismatch
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, p auth.Principal, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, p.SchoolID, filter)
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, p.SchoolID, id)
}

// Update modifies the Student. An empty `img` keeps the current image.
func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, us UpdateStudent, img string) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, p.SchoolID, id)
	if err != nil {
		return Student{}, err
	}
	if us.StudentClass != "" && us.StudentClass != s.StudentClass {
		if err = svc.checkClass(ctx, p.SchoolID, us.StudentClass); err != nil {
			return Student{}, err
		}
		s.StudentClass = us.StudentClass
	}
	if us.Email != "" && us.Email != s.Email {
		if err = svc.checkEmail(ctx, us.Email, s.ID); err != nil {
			return Student{}, err
		}
		s.Email = us.Email
	}
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Age != 0 {
		s.Age = us.Age
	}
	if us.Gender != "" {
		s.Gender = us.Gender
	}
	if us.Parent != "" {
		s.Parent = us.Parent
	}
	if us.ParentNum != "" {
		s.ParentNum = us.ParentNum
	}
	if img != "" {
		s.StudentImg = img
	}
	if us.Password != "" {
		if err = s.SetPassword(us.Password); err != nil {
			return Student{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateStudent(ctx, s)
}

// Delete removes the Student and returns it, so its image can be removed too.
func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, p.SchoolID, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.repo.DeleteStudent(ctx, p.SchoolID, id); err != nil {
		return Student{}, err
	}
	return s, nil
}

func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	s, err := svc.repo.GetStudentByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = s.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateStudent(ctx, s)
	return err
}

func (svc *Service) Exists(ctx context.Context, schoolID, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return svc.repo.StudentExists(ctx, schoolID, id)
}

func (svc *Service) StudentClassID(ctx context.Context, schoolID, studentID string) (string, error) {
	s, err := svc.repo.GetStudent(ctx, schoolID, studentID)
	if err != nil {
		return "", err
	}
	return s.StudentClass, nil
}

func (svc *Service) ClassStudentIDs(ctx context.Context, schoolID, classID string) ([]string, error) {
	students, err := svc.repo.QueryStudents(ctx, schoolID, QueryFilter{StudentClass: classID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
