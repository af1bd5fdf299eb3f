package notice

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound          = core.NewNotFoundError("notice")
	ErrTeacherAudience   = core.NewForbiddenError("teachers can only post notices for students")
	ErrNotAuthor         = core.NewForbiddenError("you can only modify your own notices for students")
	errInvalidExpiry     = core.NewValidationError(nil, core.FieldError{Field: "expiryDate", Error: "expiryDate must be formatted as YYYY-MM-DD or RFC3339"})
	errPastExpiry        = core.NewValidationError(nil, core.FieldError{Field: "expiryDate", Error: "expiryDate must be in the future"})
	errInvalidAudienceQS = core.NewValidationError(nil, core.FieldError{Field: "audience", Error: "audience must be one of: Student, Teacher, All"})

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		GetNotice(ctx context.Context, schoolID, id string) (Notice, error)
		// QueryNotices returns a page of notices, newest first, and the total count of matching notices.
		QueryNotices(ctx context.Context, schoolID string, vis Visibility, filter QueryFilter, page core.Page) ([]Notice, int, error)
		UpdateNotice(ctx context.Context, n Notice) (Notice, error)
		DeleteNotice(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// visibility returns what `p` may see at `now`:
// schools everything of the school, teachers Teacher & All notices plus their own, students Student & All notices.
// Expired notices are hidden to all but schools.
func visibility(p auth.Principal, now time.Time) Visibility {
	switch p.Role {
	case auth.RoleTeacher:
		return Visibility{Audiences: []Audience{AudienceTeacher, AudienceAll}, AuthorID: p.ID, ActiveAt: now}
	case auth.RoleStudent:
		return Visibility{Audiences: []Audience{AudienceStudent, AudienceAll}, ActiveAt: now}
	}
	return Visibility{}
}

func (svc *Service) Create(ctx context.Context, p auth.Principal, nn NewNotice) (Notice, error) {
	if p.Is(auth.RoleTeacher) && nn.Audience != AudienceStudent {
		return Notice{}, ErrTeacherAudience
	}
	return svc.repo.CreateNotice(ctx, Notice{
		SchoolID:    p.SchoolID,
		Title:       nn.Title,
		Message:     nn.Message,
		Audience:    nn.Audience,
		IsImportant: nn.IsImportant,
		ExpiryDate:  nn.expiry,
		CreatedBy:   p.Author(),
		CreatedAt:   nowFunc().UTC(),
	})
}

// List returns a page of the notices visible to `p`.
func (svc *Service) List(ctx context.Context, p auth.Principal, filter QueryFilter) (Page, error) {
	filter.Clean()
	if filter.Audience != "" && !core.ContainsString(core.Audiences, string(filter.Audience)) {
		return Page{}, errInvalidAudienceQS
	}
	page := filter.page()
	notices, total, err := svc.repo.QueryNotices(ctx, p.SchoolID, visibility(p, nowFunc().UTC()), filter, page)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying notices")
	}
	return Page{Notices: notices, Pagination: core.NewPagination(page, total)}, nil
}

// Important returns the non-expired important notices visible to `p`.
func (svc *Service) Important(ctx context.Context, p auth.Principal) ([]Notice, error) {
	now := nowFunc().UTC()
	vis := visibility(p, now)
	vis.ActiveAt = now
	important := true
	notices, _, err := svc.repo.QueryNotices(ctx, p.SchoolID, vis, QueryFilter{Important: &important}, core.Page{Number: 1, Limit: core.MaxPageLimit})
	if err != nil {
		return nil, errors.Wrap(err, "querying important notices")
	}
	return notices, nil
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Notice, error) {
	n, err := svc.repo.GetNotice(ctx, p.SchoolID, id)
	if err != nil {
		return Notice{}, err
	}
	if !visibility(p, nowFunc().UTC()).Matches(n) {
		return Notice{}, ErrNotFound
	}
	return n, nil
}

// getOwned returns the notice when `p` may modify it:
// schools any notice of the school, teachers only their own notices for students.
func (svc *Service) getOwned(ctx context.Context, p auth.Principal, id string) (Notice, error) {
	n, err := svc.repo.GetNotice(ctx, p.SchoolID, id)
	if err != nil {
		return Notice{}, err
	}
	switch p.Role {
	case auth.RoleSchool:
		return n, nil
	case auth.RoleTeacher:
		if n.CreatedBy.ID == p.ID && n.Audience == AudienceStudent {
			return n, nil
		}
	}
	return Notice{}, ErrNotAuthor
}

func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, un UpdateNotice) (Notice, error) {
	n, err := svc.getOwned(ctx, p, id)
	if err != nil {
		return Notice{}, err
	}
	if un.Audience != nil {
		if p.Is(auth.RoleTeacher) && *un.Audience != AudienceStudent {
			return Notice{}, ErrTeacherAudience
		}
		n.Audience = *un.Audience
	}
	if un.Title != nil {
		n.Title = *un.Title
	}
	if un.Message != nil {
		n.Message = *un.Message
	}
	if un.IsImportant != nil {
		n.IsImportant = *un.IsImportant
	}
	if un.ExpiryDate != nil {
		n.ExpiryDate = un.expiry
	}
	return svc.repo.UpdateNotice(ctx, n)
}

func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if _, err := svc.getOwned(ctx, p, id); err != nil {
		return err
	}
	return svc.repo.DeleteNotice(ctx, p.SchoolID, id)
}
