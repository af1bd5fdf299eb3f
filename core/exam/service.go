package exam

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound      = core.NewNotFoundError("examination")
	ErrNotAssigned   = core.NewForbiddenError("you are not assigned to this class")
	ErrNotOwnClass   = core.NewForbiddenError("you can only view examinations of your class")
	ErrNotAuthor     = core.NewForbiddenError("you can only modify examinations you created")
	ErrInvalidRange  = core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: "endTime must be after startTime"})
	ErrEndOrDuration = core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: "one of endTime or duration is required"})

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateExamination(ctx context.Context, e Examination) (Examination, error)
		GetExamination(ctx context.Context, schoolID, id string) (Examination, error)
		// ListExaminations returns the school's examinations, restricted to `classIDs` when not nil.
		ListExaminations(ctx context.Context, schoolID string, classIDs []string) ([]Examination, error)
		UpdateExamination(ctx context.Context, e Examination) (Examination, error)
		DeleteExamination(ctx context.Context, schoolID, id string) error
	}

	Options struct {
		Classes  core.Lookup
		Subjects core.Lookup
		Staff    core.Staff
		Roster   core.Roster
	}

	Service struct {
		repo Repository
		opts Options
	}
)

func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts}
}

func typeError(role auth.Role, t Type) error {
	return core.NewValidationError(nil, core.FieldError{
		Field: "examType", Error: "exam type " + string(t) + " is not available to " + role.String(),
	})
}

func (svc *Service) checkRefs(ctx context.Context, schoolID, classID, subjectID string) error {
	var fldErrs []core.FieldError
	ok, err := svc.opts.Classes.Exists(ctx, schoolID, classID)
	if err != nil {
		return errors.Wrap(err, "checking class")
	}
	if !ok {
		fldErrs = append(fldErrs, core.FieldError{Field: "class", Error: "class not found"})
	}
	if ok, err = svc.opts.Subjects.Exists(ctx, schoolID, subjectID); err != nil {
		return errors.Wrap(err, "checking subject")
	}
	if !ok {
		fldErrs = append(fldErrs, core.FieldError{Field: "subject", Error: "subject not found"})
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// visibleClasses returns the classes whose examinations `p` may see; nil means all of the school.
func (svc *Service) visibleClasses(ctx context.Context, p auth.Principal) ([]string, error) {
	switch p.Role {
	case auth.RoleTeacher:
		ids, err := svc.opts.Staff.TeacherClassIDs(ctx, p.SchoolID, p.ID)
		if err != nil {
			return nil, errors.Wrap(err, "getting teacher classes")
		}
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	case auth.RoleStudent:
		id, err := svc.opts.Roster.StudentClassID(ctx, p.SchoolID, p.ID)
		if err != nil {
			return nil, errors.Wrap(err, "getting student class")
		}
		return []string{id}, nil
	}
	return nil, nil
}

func (svc *Service) canSeeClass(ctx context.Context, p auth.Principal, classID string) error {
	classes, err := svc.visibleClasses(ctx, p)
	if err != nil {
		return err
	}
	if classes == nil || core.ContainsString(classes, classID) {
		return nil
	}
	if p.Is(auth.RoleStudent) {
		return ErrNotOwnClass
	}
	return ErrNotAssigned
}

func (svc *Service) Create(ctx context.Context, p auth.Principal, ne NewExamination) (Examination, error) {
	if !ne.ExamType.AllowedFor(p.Role) {
		return Examination{}, typeError(p.Role, ne.ExamType)
	}
	if err := svc.checkRefs(ctx, p.SchoolID, ne.Class, ne.Subject); err != nil {
		return Examination{}, err
	}
	if err := svc.canSeeClass(ctx, p, ne.Class); err != nil {
		return Examination{}, err
	}
	return svc.repo.CreateExamination(ctx, Examination{
		SchoolID:  p.SchoolID,
		ClassID:   ne.Class,
		SubjectID: ne.Subject,
		ExamType:  ne.ExamType,
		ExamDate:  ne.date,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		Duration:  ne.Duration,
		CreatedBy: p.Author(),
		CreatedAt: nowFunc().UTC(),
	})
}

// List returns the examinations visible to `p`.
func (svc *Service) List(ctx context.Context, p auth.Principal) ([]Examination, error) {
	classes, err := svc.visibleClasses(ctx, p)
	if err != nil {
		return nil, err
	}
	return svc.repo.ListExaminations(ctx, p.SchoolID, classes)
}

func (svc *Service) ListByClass(ctx context.Context, p auth.Principal, classID string) ([]Examination, error) {
	if err := svc.canSeeClass(ctx, p, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListExaminations(ctx, p.SchoolID, []string{classID})
}

// getOwned returns the examination when `p` may modify it: schools any, teachers their own.
func (svc *Service) getOwned(ctx context.Context, p auth.Principal, id string) (Examination, error) {
	e, err := svc.repo.GetExamination(ctx, p.SchoolID, id)
	if err != nil {
		return Examination{}, err
	}
	if p.Is(auth.RoleTeacher) && e.CreatedBy.ID != p.ID {
		return Examination{}, ErrNotAuthor
	}
	return e, nil
}

func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, ue UpdateExamination) (Examination, error) {
	e, err := svc.getOwned(ctx, p, id)
	if err != nil {
		return Examination{}, err
	}
	if ue.ExamType != "" {
		if !ue.ExamType.AllowedFor(p.Role) {
			return Examination{}, typeError(p.Role, ue.ExamType)
		}
		e.ExamType = ue.ExamType
	}
	if ue.Class != "" {
		e.ClassID = ue.Class
	}
	if ue.Subject != "" {
		e.SubjectID = ue.Subject
	}
	if err = svc.checkRefs(ctx, p.SchoolID, e.ClassID, e.SubjectID); err != nil {
		return Examination{}, err
	}
	if ue.Class != "" {
		if err = svc.canSeeClass(ctx, p, e.ClassID); err != nil {
			return Examination{}, err
		}
	}
	if ue.ExamDate != "" {
		e.ExamDate, _ = time.ParseInLocation(dateLayout, ue.ExamDate, time.UTC)
	}

	if ue.StartTime != "" || ue.EndTime != "" || ue.Duration != 0 {
		start, end, duration := e.StartTime, e.EndTime, e.Duration
		if ue.StartTime != "" {
			start = ue.StartTime
		}
		switch {
		case ue.EndTime != "":
			end = ue.EndTime
		case ue.Duration != 0:
			end, duration = "", ue.Duration
		default: // moved start keeps the duration
			end = ""
		}
		if e.EndTime, e.Duration, err = resolveTimes(start, end, duration); err != nil {
			return Examination{}, err
		}
		e.StartTime = start
	}
	return svc.repo.UpdateExamination(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if _, err := svc.getOwned(ctx, p, id); err != nil {
		return err
	}
	return svc.repo.DeleteExamination(ctx, p.SchoolID, id)
}
