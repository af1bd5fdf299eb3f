package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/storage/database"
)

type (
	// DB holds one table per entity. Repositories lock the table they work on.
	DB struct {
		school     *table[school.School]
		class      *table[class.Class]
		subject    *table[subject.Subject]
		teacher    *table[teacher.Teacher]
		student    *table[student.Student]
		schedule   *table[schedule.Schedule]
		exam       *table[exam.Examination]
		attendance *table[attendance.Attendance]
		notice     *table[notice.Notice]
	}

	table[T any] struct {
		sync.RWMutex
		rows  map[string]T
		order []string // insertion order
	}
)

func Open() *DB {
	return &DB{
		school:     newTable[school.School](),
		class:      newTable[class.Class](),
		subject:    newTable[subject.Subject](),
		teacher:    newTable[teacher.Teacher](),
		student:    newTable[student.Student](),
		schedule:   newTable[schedule.Schedule](),
		exam:       newTable[exam.Examination](),
		attendance: newTable[attendance.Attendance](),
		notice:     newTable[notice.Notice](),
	}
}

// Repositories returns all repositories backed by `db`.
func (db *DB) Repositories() database.Repositories {
	return database.Repositories{
		Schools:     NewSchoolRepository(db),
		Classes:     NewClassRepository(db),
		Subjects:    NewSubjectRepository(db),
		Teachers:    NewTeacherRepository(db),
		Students:    NewStudentRepository(db),
		Schedules:   NewScheduleRepository(db),
		Exams:       NewExamRepository(db),
		Attendances: NewAttendanceRepository(db),
		Notices:     NewNoticeRepository(db),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func newID() string {
	return uuid.New().String()
}

// the following helpers expect the caller to hold the table lock.

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) insert(id string, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) delete(ids ...string) {
	for _, id := range ids {
		delete(t.rows, id)
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if _, ok := t.rows[id]; ok {
			kept = append(kept, id)
		}
	}
	t.order = kept
}

// filter returns the rows matching `keep`, in insertion order.
func (t *table[T]) filter(keep func(T) bool) []T {
	rows := make([]T, 0)
	for _, id := range t.order {
		if row := t.rows[id]; keep == nil || keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *table[T]) exists(match func(T) bool) bool {
	for _, row := range t.rows {
		if match(row) {
			return true
		}
	}
	return false
}

func copyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append(make([]string, 0, len(s)), s...)
}

func sortByTime[T any](rows []T, at func(T) time.Time, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return at(rows[i]).After(at(rows[j]))
		}
		return at(rows[i]).Before(at(rows[j]))
	})
}
