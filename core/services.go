package core

import "context"

type (
	// Logger reports messages; args may hold errors, maps and the acting auth principal.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Locker serializes writers sharing a key (e.g. all bookings of one teacher).
	// The returned unlock func must be called once the critical section is over.
	Locker interface {
		Lock(ctx context.Context, key string) (unlock func(), err error)
	}

	// TryLocker takes a lock only if it is free.
	TryLocker interface {
		Locker
		TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
	}

	// Metrics records domain events.
	Metrics interface {
		ScheduleConflict()
		SchedulesCleaned(completed, purged int64)
		AttendanceMarked(n int)
	}

	// Lookup answers whether an entity exists within a school.
	Lookup interface {
		Exists(ctx context.Context, schoolID, id string) (bool, error)
	}

	// Roster resolves which students belong to which class.
	Roster interface {
		StudentClassID(ctx context.Context, schoolID, studentID string) (string, error)
		ClassStudentIDs(ctx context.Context, schoolID, classID string) ([]string, error)
	}

	// Staff resolves the classes a teacher is assigned to.
	Staff interface {
		TeacherClassIDs(ctx context.Context, schoolID, teacherID string) ([]string, error)
	}

	// ClassRegistry resolves the teacher responsible for taking a class' attendance.
	ClassRegistry interface {
		Attendee(ctx context.Context, schoolID, classID string) (string, error)
	}
)

// LookupFunc adapts a repository method to a Lookup.
type LookupFunc func(ctx context.Context, schoolID, id string) (bool, error)

func (f LookupFunc) Exists(ctx context.Context, schoolID, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return f(ctx, schoolID, id)
}

// NopMetrics discards everything.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) ScheduleConflict()             {}
func (NopMetrics) SchedulesCleaned(int64, int64) {}
func (NopMetrics) AttendanceMarked(int)          {}
