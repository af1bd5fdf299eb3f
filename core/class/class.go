package class

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound         = core.NewNotFoundError("class")
	errAttendeeNotFound = errors.New("teacher not found")

	nowFunc = time.Now // mockable
)

type Class struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school"`
	ClassText string    `json:"classText"`
	ClassNum  int       `json:"classNum"`
	Attendee  string    `json:"attendee,omitempty"` // teacher taking the attendance
	CreatedAt time.Time `json:"createdAt"`          // UTC
}

type NewClass struct {
	ClassText string `json:"classText" validate:"required,max=100"`
	ClassNum  *int   `json:"classNum" validate:"required,gte=0"`
	Attendee  string `json:"attendee"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.ClassText = core.CleanString(nc.ClassText)
	nc.Attendee = core.CleanString(nc.Attendee)
	return validate.Struct(nc)
}

// UpdateClass defines what may be modified on a Class. A nil field is kept; an empty Attendee clears it.
type UpdateClass struct {
	ClassText *string `json:"classText" validate:"omitempty,min=1,max=100"`
	ClassNum  *int    `json:"classNum" validate:"omitempty,gte=0"`
	Attendee  *string `json:"attendee"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	if uc.ClassText != nil {
		txt := core.CleanString(*uc.ClassText)
		uc.ClassText = &txt
	}
	if uc.Attendee != nil {
		att := core.CleanString(*uc.Attendee)
		uc.Attendee = &att
	}
	return validate.Struct(uc)
}

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClass(ctx context.Context, schoolID, id string) (Class, error)
		ListClasses(ctx context.Context, schoolID string) ([]Class, error)
		ListClassesByAttendee(ctx context.Context, schoolID, teacherID string) ([]Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClass(ctx context.Context, schoolID, id string) error
		ClassExists(ctx context.Context, schoolID, id string) (bool, error)
	}

	Service struct {
		repo     Repository
		teachers core.Lookup
		roster   core.Roster
	}
)

var (
	_ core.Lookup        = (*Service)(nil)
	_ core.ClassRegistry = (*Service)(nil)
)

func NewService(repo Repository, teachers core.Lookup, roster core.Roster) *Service {
	return &Service{repo: repo, teachers: teachers, roster: roster}
}

func (svc *Service) checkAttendee(ctx context.Context, schoolID, teacherID string) error {
	if teacherID == "" {
		return nil
	}
	ok, err := svc.teachers.Exists(ctx, schoolID, teacherID)
	if err != nil {
		return errors.Wrap(err, "checking attendee")
	}
	if !ok {
		return core.NewValidationError(errAttendeeNotFound, core.FieldError{Field: "attendee", Error: errAttendeeNotFound.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, p auth.Principal, nc NewClass) (Class, error) {
	if err := svc.checkAttendee(ctx, p.SchoolID, nc.Attendee); err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(ctx, Class{
		SchoolID:  p.SchoolID,
		ClassText: nc.ClassText,
		ClassNum:  *nc.ClassNum,
		Attendee:  nc.Attendee,
		CreatedAt: nowFunc().UTC(),
	})
}

// List returns the classes visible to `p`: a student only sees their own class.
func (svc *Service) List(ctx context.Context, p auth.Principal) ([]Class, error) {
	if p.Is(auth.RoleStudent) {
		classID, err := svc.roster.StudentClassID(ctx, p.SchoolID, p.ID)
		if err != nil {
			return nil, errors.Wrap(err, "getting student class")
		}
		c, err := svc.repo.GetClass(ctx, p.SchoolID, classID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return []Class{}, nil
			}
			return nil, err
		}
		return []Class{c}, nil
	}
	return svc.repo.ListClasses(ctx, p.SchoolID)
}

// ListAttendee returns the classes where the teacher `p` takes the attendance.
func (svc *Service) ListAttendee(ctx context.Context, p auth.Principal) ([]Class, error) {
	return svc.repo.ListClassesByAttendee(ctx, p.SchoolID, p.ID)
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Class, error) {
	return svc.repo.GetClass(ctx, p.SchoolID, id)
}

func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, uc UpdateClass) (Class, error) {
	c, err := svc.repo.GetClass(ctx, p.SchoolID, id)
	if err != nil {
		return Class{}, err
	}
	if uc.ClassText != nil {
		c.ClassText = *uc.ClassText
	}
	if uc.ClassNum != nil {
		c.ClassNum = *uc.ClassNum
	}
	if uc.Attendee != nil {
		if err = svc.checkAttendee(ctx, p.SchoolID, *uc.Attendee); err != nil {
			return Class{}, err
		}
		c.Attendee = *uc.Attendee
	}
	return svc.repo.UpdateClass(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	return svc.repo.DeleteClass(ctx, p.SchoolID, id)
}

func (svc *Service) Exists(ctx context.Context, schoolID, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return svc.repo.ClassExists(ctx, schoolID, id)
}

func (svc *Service) Attendee(ctx context.Context, schoolID, classID string) (string, error) {
	c, err := svc.repo.GetClass(ctx, schoolID, classID)
	if err != nil {
		return "", err
	}
	return c.Attendee, nil
}
