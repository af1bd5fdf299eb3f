package attendance

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

var (
	ErrClassNotFound  = core.NewNotFoundError("class")
	ErrAlreadyTaken   = core.NewConflictError("attendance already taken for this class today")
	ErrAlreadyMarked  = core.NewConflictError("attendance already marked for this student today")
	ErrNotAttendee    = core.NewForbiddenError("you are not the attendee of this class")
	ErrStudentsHidden = core.NewForbiddenError("students cannot view attendance")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		ClassAttendanceExists(ctx context.Context, schoolID, classID string, day time.Time) (bool, error)
		StudentAttendanceExists(ctx context.Context, schoolID, studentID, classID string, day time.Time) (bool, error)
		// CreateAttendance returns ErrAlreadyMarked when the storage already holds the student's day.
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		// CreateAttendances inserts all records or none.
		CreateAttendances(ctx context.Context, records []Attendance) (int, error)
		ListAttendanceByStudents(ctx context.Context, schoolID string, studentIDs ...string) ([]Attendance, error)
	}

	Options struct {
		Classes core.ClassRegistry
		Roster  core.Roster
		Locker  core.Locker
		Metrics core.Metrics
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
	return &Service{repo: repo, opts: opts}
}

func classLockKey(classID string) string {
	return "attendance:class:" + classID
}

// checkMarker ensures `p` may mark the class: schools any, teachers only the classes they attend.
func (svc *Service) checkMarker(ctx context.Context, p auth.Principal, classID string) error {
	attendee, err := svc.opts.Classes.Attendee(ctx, p.SchoolID, classID)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrClassNotFound
		}
		return errors.Wrap(err, "getting class attendee")
	}
	if p.Is(auth.RoleTeacher) && attendee != p.ID {
		return ErrNotAttendee
	}
	return nil
}

// checkStudents ensures every student belongs to the class and appears once.
func (svc *Service) checkStudents(ctx context.Context, schoolID, classID string, studentIDs []string) error {
	members, err := svc.opts.Roster.ClassStudentIDs(ctx, schoolID, classID)
	if err != nil {
		return errors.Wrap(err, "listing class students")
	}
	seen := make(map[string]bool, len(studentIDs))
	var outsiders, duplicates []string
	for _, id := range studentIDs {
		if seen[id] {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = true
		if !core.ContainsString(members, id) {
			outsiders = append(outsiders, id)
		}
	}

	var fldErrs []core.FieldError
	if duplicates != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "records", Error: "duplicate students: " + strings.Join(duplicates, ", ")})
	}
	if outsiders != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "student", Error: "students not in class: " + strings.Join(outsiders, ", ")})
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// Mark records the attendance of one student.
func (svc *Service) Mark(ctx context.Context, p auth.Principal, na NewAttendance) (Attendance, error) {
	day, err := ParseDay(na.Date)
	if err != nil {
		return Attendance{}, err
	}
	if err = svc.checkMarker(ctx, p, na.Class); err != nil {
		return Attendance{}, err
	}
	if err = svc.checkStudents(ctx, p.SchoolID, na.Class, []string{na.Student}); err != nil {
		return Attendance{}, err
	}

	unlock, err := svc.opts.Locker.Lock(ctx, classLockKey(na.Class))
	if err != nil {
		return Attendance{}, errors.Wrap(err, "locking class attendance")
	}
	defer unlock()

	exists, err := svc.repo.StudentAttendanceExists(ctx, p.SchoolID, na.Student, na.Class, day)
	if err != nil {
		return Attendance{}, errors.Wrap(err, "checking attendance")
	}
	if exists {
		return Attendance{}, ErrAlreadyMarked
	}

	a, err := svc.repo.CreateAttendance(ctx, Attendance{
		SchoolID:  p.SchoolID,
		StudentID: na.Student,
		ClassID:   na.Class,
		Date:      day,
		Status:    na.Status,
		Notes:     na.Notes,
		MarkedBy:  p.ID,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Attendance{}, err
	}
	svc.opts.Metrics.AttendanceMarked(1)
	return a, nil
}

// MarkBulk records the attendance of a class for a day, all or nothing.
// It is rejected with ErrAlreadyTaken when any record exists for the class and day.
func (svc *Service) MarkBulk(ctx context.Context, p auth.Principal, nb NewBulkAttendance) (BulkResult, error) {
	day, err := ParseDay(nb.Date)
	if err != nil {
		return BulkResult{}, err
	}
	if err = svc.checkMarker(ctx, p, nb.Class); err != nil {
		return BulkResult{}, err
	}
	ids := make([]string, 0, len(nb.Records))
	for _, r := range nb.Records {
		ids = append(ids, r.Student)
	}
	if err = svc.checkStudents(ctx, p.SchoolID, nb.Class, ids); err != nil {
		return BulkResult{}, err
	}

	unlock, err := svc.opts.Locker.Lock(ctx, classLockKey(nb.Class))
	if err != nil {
		return BulkResult{}, errors.Wrap(err, "locking class attendance")
	}
	defer unlock()

	taken, err := svc.repo.ClassAttendanceExists(ctx, p.SchoolID, nb.Class, day)
	if err != nil {
		return BulkResult{}, errors.Wrap(err, "checking attendance")
	}
	if taken {
		return BulkResult{}, ErrAlreadyTaken
	}

	now := nowFunc().UTC()
	records := make([]Attendance, 0, len(nb.Records))
	for _, r := range nb.Records {
		records = append(records, Attendance{
			SchoolID:  p.SchoolID,
			StudentID: r.Student,
			ClassID:   nb.Class,
			Date:      day,
			Status:    r.Status,
			Notes:     r.Notes,
			MarkedBy:  p.ID,
			CreatedAt: now,
		})
	}
	created, err := svc.repo.CreateAttendances(ctx, records)
	if err != nil {
		if core.IsConflict(err) {
			return BulkResult{}, ErrAlreadyTaken
		}
		return BulkResult{}, errors.Wrap(err, "inserting attendance")
	}
	svc.opts.Metrics.AttendanceMarked(created)
	return BulkResult{Created: created}, nil
}

// Check reports whether the attendance of the class was taken on `day`.
func (svc *Service) Check(ctx context.Context, p auth.Principal, classID string, day time.Time) (bool, error) {
	return svc.repo.ClassAttendanceExists(ctx, p.SchoolID, classID, Day(day))
}

// ListByStudent returns the attendance history of a student, newest first, with stats.
func (svc *Service) ListByStudent(ctx context.Context, p auth.Principal, studentID string) (StudentAttendance, error) {
	all, err := svc.ListForStudents(ctx, p, []string{studentID})
	if err != nil {
		return StudentAttendance{}, err
	}
	return all[0], nil
}

// ListForStudents returns the attendance of each student, in the order requested.
func (svc *Service) ListForStudents(ctx context.Context, p auth.Principal, studentIDs []string) ([]StudentAttendance, error) {
	if p.Is(auth.RoleStudent) {
		return nil, ErrStudentsHidden
	}
	records, err := svc.repo.ListAttendanceByStudents(ctx, p.SchoolID, studentIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })

	byStudent := make(map[string][]Attendance, len(studentIDs))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}
	res := make([]StudentAttendance, 0, len(studentIDs))
	for _, id := range studentIDs {
		recs := byStudent[id]
		if recs == nil {
			recs = []Attendance{}
		}
		res = append(res, StudentAttendance{StudentID: id, Records: recs, Stats: NewStats(recs)})
	}
	return res, nil
}
