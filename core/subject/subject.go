package subject

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound = core.NewNotFoundError("subject")

	nowFunc = time.Now // mockable
)

type Subject struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"school"`
	SubjectName string    `json:"subjectName"`
	SubjectCode string    `json:"subjectCode"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

type NewSubject struct {
	SubjectName string `json:"subjectName" validate:"required,max=100"`
	SubjectCode string `json:"subjectCode" validate:"required,max=20"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.SubjectName = core.CleanString(ns.SubjectName)
	ns.SubjectCode = core.CleanString(ns.SubjectCode)
	return validate.Struct(ns)
}

type UpdateSubject struct {
	SubjectName string `json:"subjectName" validate:"omitempty,max=100"`
	SubjectCode string `json:"subjectCode" validate:"omitempty,max=20"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	us.SubjectName = core.CleanString(us.SubjectName)
	us.SubjectCode = core.CleanString(us.SubjectCode)
	return validate.Struct(us)
}

type (
	Repository interface {
		CreateSubject(ctx context.Context, s Subject) (Subject, error)
		GetSubject(ctx context.Context, schoolID, id string) (Subject, error)
		// ListSubjects returns all subjects of the school, or only those in `ids` when given.
		ListSubjects(ctx context.Context, schoolID string, ids ...string) ([]Subject, error)
		UpdateSubject(ctx context.Context, s Subject) (Subject, error)
		DeleteSubject(ctx context.Context, schoolID, id string) error
		SubjectExists(ctx context.Context, schoolID, id string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

var _ core.Lookup = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, p auth.Principal, ns NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{
		SchoolID:    p.SchoolID,
		SubjectName: ns.SubjectName,
		SubjectCode: ns.SubjectCode,
		CreatedAt:   nowFunc().UTC(),
	})
}

func (svc *Service) List(ctx context.Context, p auth.Principal) ([]Subject, error) {
	return svc.repo.ListSubjects(ctx, p.SchoolID)
}

// ListByIDs returns the subjects of the school among `ids`.
func (svc *Service) ListByIDs(ctx context.Context, p auth.Principal, ids []string) ([]Subject, error) {
	if len(ids) == 0 {
		return []Subject{}, nil
	}
	return svc.repo.ListSubjects(ctx, p.SchoolID, ids...)
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, p.SchoolID, id)
}

func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, us UpdateSubject) (Subject, error) {
	s, err := svc.repo.GetSubject(ctx, p.SchoolID, id)
	if err != nil {
		return Subject{}, err
	}
	if us.SubjectName != "" {
		s.SubjectName = us.SubjectName
	}
	if us.SubjectCode != "" {
		s.SubjectCode = us.SubjectCode
	}
	return svc.repo.UpdateSubject(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	return svc.repo.DeleteSubject(ctx, p.SchoolID, id)
}

func (svc *Service) Exists(ctx context.Context, schoolID, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return svc.repo.SubjectExists(ctx, schoolID, id)
}
