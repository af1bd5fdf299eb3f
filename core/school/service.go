package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("school")
	ErrEmailNotFound    = core.NewNotFoundError("email")
	ErrEmailExists      = core.NewConflictError("a school with this email already exists")
	ErrPasswordMismatch = core.NewUnauthorizedError("password is incorrect")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateSchool returns ErrEmailExists when the email is taken.
		CreateSchool(ctx context.Context, s School) (School, error)
		GetSchool(ctx context.Context, id string) (School, error)
		GetSchoolByEmail(ctx context.Context, email string) (School, error)
		ListSchools(ctx context.Context) ([]School, error)
		// UpdateSchool saves all fields of `s` but ID and CreatedAt.
		UpdateSchool(ctx context.Context, s School) (School, error)
		EmailExists(ctx context.Context, email, excludedID string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
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

// Register creates a School. `img` is the stored image filename.
func (svc *Service) Register(ctx context.Context, ns NewSchool, img string) (School, error) {
	if err := svc.checkEmail(ctx, ns.Email, ""); err != nil {
		return School{}, err
	}
	s := School{
		SchoolName: ns.SchoolName,
		Email:      ns.Email,
		OwnerName:  ns.OwnerName,
		SchoolImg:  img,
		CreatedAt:  nowFunc().UTC(),
	}
	if err := s.SetPassword(ns.Password); err != nil {
		return School{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateSchool(ctx, s)
}

// Authenticate returns the School matching the credentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (School, error) {
	s, err := svc.repo.GetSchoolByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return School{}, ErrEmailNotFound
		}
		return School{}, errors.Wrap(err, "finding school by email")
	}
	if err = s.CheckPassword(pwd); err != nil {
		return School{}, ErrPasswordMismatch
	}
	return s, nil
}

func (svc *Service) Get(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *Service) List(ctx context.Context) ([]School, error) {
	return svc.repo.ListSchools(ctx)
}

// Update modifies the School. An empty `img` keeps the current image.
func (svc *Service) Update(ctx context.Context, id string, us UpdateSchool, img string) (School, error) {
	s, err := svc.repo.GetSchool(ctx, id)
	if err != nil {
		return School{}, err
	}
	if us.Email != "" && us.Email != s.Email {
		if err = svc.checkEmail(ctx, us.Email, s.ID); err != nil {
			return School{}, err
		}
		s.Email = us.Email
	}
	if us.SchoolName != "" {
		s.SchoolName = us.SchoolName
	}
	if us.OwnerName != "" {
		s.OwnerName = us.OwnerName
	}
	if img != "" {
		s.SchoolImg = img
	}
	if us.Password != "" {
		if err = s.SetPassword(us.Password); err != nil {
			return School{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateSchool(ctx, s)
}

// ResetPassword sets a new password, bypassing the password policy (operator use).
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	s, err := svc.repo.GetSchoolByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = s.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateSchool(ctx, s)
	return err
}
