package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrNotFound        = core.NewNotFoundError("schedule")
	ErrOverlap         = core.NewConflictError("teacher already booked in this time range")
	ErrImmutable       = core.NewConflictError("schedule can no longer be modified")
	ErrUndeletable     = core.NewConflictError("completed schedules cannot be deleted")
	ErrOwnBookingsOnly = core.NewForbiddenError("teachers may only manage their own schedules")
	ErrInvalidRange    = core.NewValidationError(
		errors.New("endTime must be after startTime"),
		core.FieldError{Field: "endTime", Error: "endTime must be after startTime"},
	)

	DefaultRetention = 30 * 24 * time.Hour

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateSchedule may return ErrOverlap when the storage enforces the overlap invariant itself.
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		GetSchedule(ctx context.Context, schoolID, id string) (Schedule, error)
		ListSchedulesByClass(ctx context.Context, schoolID, classID string) ([]Schedule, error)
		// ListActiveSchedulesByTeacher returns the active schedules of the teacher, except `excludedID`.
		ListActiveSchedulesByTeacher(ctx context.Context, teacherID, excludedID string) ([]Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		DeleteSchedule(ctx context.Context, schoolID, id string) error
		// CompleteEndedSchedules flips active schedules that ended before `now` to completed.
		CompleteEndedSchedules(ctx context.Context, now time.Time) (int64, error)
		// PurgeCompletedSchedules deletes completed schedules that ended before `before`.
		PurgeCompletedSchedules(ctx context.Context, before time.Time) (int64, error)
	}

	Options struct {
		Teachers  core.Lookup
		Classes   core.Lookup
		Subjects  core.Lookup
		Locker    core.Locker
		Metrics   core.Metrics
		Retention time.Duration
	}

	Service struct {
		repo Repository
		opts Options
	}
)

func NewService(repo Repository, opts Options) *Service {
	if opts.Metrics == nil {
		opts.Metrics = core.NopMetrics{}
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &Service{repo: repo, opts: opts}
}

func teacherLockKey(teacherID string) string {
	return "schedule:teacher:" + teacherID
}

// CheckOverlap reports whether [start, end) intersects an active schedule of the teacher, other than `excludedID`.
func (svc *Service) CheckOverlap(ctx context.Context, teacherID string, start, end time.Time, excludedID string) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidRange
	}
	existing, err := svc.repo.ListActiveSchedulesByTeacher(ctx, teacherID, excludedID)
	if err != nil {
		return false, errors.Wrap(err, "listing teacher schedules")
	}
	for _, s := range existing {
		if Overlaps(start, end, s.StartTime, s.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

// checkRefs ensures the teacher, class and subject exist in the school.
func (svc *Service) checkRefs(ctx context.Context, schoolID, teacherID, classID, subjectID string) error {
	refs := []struct {
		field  string
		id     string
		lookup core.Lookup
	}{
		{"teacher", teacherID, svc.opts.Teachers},
		{"class", classID, svc.opts.Classes},
		{"subject", subjectID, svc.opts.Subjects},
	}
	var fldErrs []core.FieldError
	for _, ref := range refs {
		ok, err := ref.lookup.Exists(ctx, schoolID, ref.id)
		if err != nil {
			return errors.Wrapf(err, "checking %s", ref.field)
		}
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: ref.field, Error: ref.field + " not found"})
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// book runs `write` while holding the teacher's lock, once the slot is known to be free.
func (svc *Service) book(ctx context.Context, s Schedule, write func() (Schedule, error)) (Schedule, error) {
	unlock, err := svc.opts.Locker.Lock(ctx, teacherLockKey(s.TeacherID))
	if err != nil {
		return Schedule{}, errors.Wrap(err, "locking teacher schedules")
	}
	defer unlock()

	overlap, err := svc.CheckOverlap(ctx, s.TeacherID, s.StartTime, s.EndTime, s.ID)
	if err != nil {
		return Schedule{}, err
	}
	if overlap {
		svc.opts.Metrics.ScheduleConflict()
		return Schedule{}, ErrOverlap
	}

	saved, err := write()
	if err != nil && errors.Cause(err) == ErrOverlap {
		svc.opts.Metrics.ScheduleConflict()
	}
	return saved, err
}

func (svc *Service) Create(ctx context.Context, p auth.Principal, ns NewSchedule) (Schedule, error) {
	if p.Is(auth.RoleTeacher) && ns.Teacher != p.ID {
		return Schedule{}, ErrOwnBookingsOnly
	}
	if err := svc.checkRefs(ctx, p.SchoolID, ns.Teacher, ns.Class, ns.Subject); err != nil {
		return Schedule{}, err
	}

	start, end := ns.Slot()
	s := Schedule{
		SchoolID:  p.SchoolID,
		TeacherID: ns.Teacher,
		SubjectID: ns.Subject,
		ClassID:   ns.Class,
		StartTime: start,
		EndTime:   end,
		Status:    StatusActive,
		CreatedAt: nowFunc().UTC(),
	}
	return svc.book(ctx, s, func() (Schedule, error) {
		return svc.repo.CreateSchedule(ctx, s)
	})
}

// get returns the schedule when `p` may manage it.
func (svc *Service) get(ctx context.Context, p auth.Principal, id string) (Schedule, error) {
	s, err := svc.repo.GetSchedule(ctx, p.SchoolID, id)
	if err != nil {
		return Schedule{}, err
	}
	if p.Is(auth.RoleTeacher) && s.TeacherID != p.ID {
		return Schedule{}, ErrOwnBookingsOnly
	}
	return s, nil
}

func (svc *Service) Get(ctx context.Context, p auth.Principal, id string) (Schedule, error) {
	return svc.repo.GetSchedule(ctx, p.SchoolID, id)
}

func (svc *Service) ListByClass(ctx context.Context, p auth.Principal, classID string) ([]Schedule, error) {
	return svc.repo.ListSchedulesByClass(ctx, p.SchoolID, classID)
}

// Update modifies an active Schedule. Rescheduling re-runs the overlap check, excluding the schedule itself.
func (svc *Service) Update(ctx context.Context, p auth.Principal, id string, us UpdateSchedule) (Schedule, error) {
	s, err := svc.get(ctx, p, id)
	if err != nil {
		return Schedule{}, err
	}
	if s.Status.IsTerminal() {
		return Schedule{}, ErrImmutable
	}

	if us.Status != "" {
		next, err := ParseStatus(us.Status)
		if err != nil {
			return Schedule{}, core.NewValidationError(err, core.FieldError{Field: "status", Error: err.Error()})
		}
		if !s.Status.CanBeSetTo(next) {
			return Schedule{}, core.NewValidationError(nil, core.FieldError{
				Field: "status", Error: "cannot change status from " + s.Status.String() + " to " + next.String(),
			})
		}
		s.Status = next
	}
	if us.Teacher != "" {
		if p.Is(auth.RoleTeacher) && us.Teacher != p.ID {
			return Schedule{}, ErrOwnBookingsOnly
		}
		s.TeacherID = us.Teacher
	}
	if us.Subject != "" {
		s.SubjectID = us.Subject
	}
	if us.Class != "" {
		s.ClassID = us.Class
	}
	if us.reschedules() {
		s.StartTime, s.EndTime = us.start, us.end
	}
	if err = svc.checkRefs(ctx, p.SchoolID, s.TeacherID, s.ClassID, s.SubjectID); err != nil {
		return Schedule{}, err
	}

	write := func() (Schedule, error) { return svc.repo.UpdateSchedule(ctx, s) }
	if s.Status != StatusActive {
		return write()
	}
	return svc.book(ctx, s, write)
}

// Delete removes a Schedule unless it is completed.
func (svc *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	s, err := svc.get(ctx, p, id)
	if err != nil {
		return err
	}
	if s.Status == StatusCompleted {
		return ErrUndeletable
	}
	return svc.repo.DeleteSchedule(ctx, p.SchoolID, id)
}

// Cleanup completes the active schedules that ended before `now`,
// then purges the completed ones that ended more than the retention window ago.
// The purge is skipped when the first step fails.
func (svc *Service) Cleanup(ctx context.Context, now time.Time) (CleanupResult, error) {
	var res CleanupResult
	now = now.UTC()

	completed, err := svc.repo.CompleteEndedSchedules(ctx, now)
	if err != nil {
		return res, errors.Wrap(err, "completing ended schedules")
	}
	res.Completed = completed

	deleted, err := svc.repo.PurgeCompletedSchedules(ctx, now.Add(-svc.opts.Retention))
	if err != nil {
		svc.opts.Metrics.SchedulesCleaned(res.Completed, 0)
		return res, errors.Wrap(err, "purging completed schedules")
	}
	res.Deleted = deleted

	svc.opts.Metrics.SchedulesCleaned(res.Completed, res.Deleted)
	return res, nil
}
