package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/notice"
)

type attendanceRepository struct {
	db *table[attendance.Attendance]
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

// marked mirrors the unique (student, class, date) index.
func (repo *attendanceRepository) marked(a attendance.Attendance) bool {
	return repo.db.exists(func(other attendance.Attendance) bool {
		return other.StudentID == a.StudentID && other.ClassID == a.ClassID && other.Date.Equal(a.Date)
	})
}

func (repo *attendanceRepository) ClassAttendanceExists(_ context.Context, schoolID, classID string, day time.Time) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.exists(func(a attendance.Attendance) bool {
		return a.SchoolID == schoolID && a.ClassID == classID && a.Date.Equal(day)
	}), nil
}

func (repo *attendanceRepository) StudentAttendanceExists(_ context.Context, schoolID, studentID, classID string, day time.Time) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.exists(func(a attendance.Attendance) bool {
		return a.SchoolID == schoolID && a.StudentID == studentID && a.ClassID == classID && a.Date.Equal(day)
	}), nil
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.marked(a) {
		return attendance.Attendance{}, attendance.ErrAlreadyMarked
	}
	a.ID = newID()
	repo.db.insert(a.ID, a)
	return a, nil
}

func (repo *attendanceRepository) CreateAttendances(_ context.Context, records []attendance.Attendance) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// check everything first: nothing is written when one record is rejected
	for i, a := range records {
		if repo.marked(a) {
			return 0, attendance.ErrAlreadyMarked
		}
		for _, prev := range records[:i] {
			if prev.StudentID == a.StudentID && prev.ClassID == a.ClassID && prev.Date.Equal(a.Date) {
				return 0, attendance.ErrAlreadyMarked
			}
		}
	}
	for _, a := range records {
		a.ID = newID()
		repo.db.insert(a.ID, a)
	}
	return len(records), nil
}

func (repo *attendanceRepository) ListAttendanceByStudents(_ context.Context, schoolID string, studentIDs ...string) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := repo.db.filter(func(a attendance.Attendance) bool {
		return a.SchoolID == schoolID && core.ContainsString(studentIDs, a.StudentID)
	})
	sortByTime(records, func(a attendance.Attendance) time.Time { return a.Date }, true)
	return records, nil
}

type noticeRepository struct {
	db *table[notice.Notice]
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) *noticeRepository {
	return &noticeRepository{db: db.notice}
}

func (repo *noticeRepository) CreateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = newID()
	repo.db.insert(n.ID, n)
	return n, nil
}

func (repo *noticeRepository) GetNotice(_ context.Context, schoolID, id string) (notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.get(id); ok && n.SchoolID == schoolID {
		return n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) QueryNotices(_ context.Context, schoolID string, vis notice.Visibility, filter notice.QueryFilter, page core.Page) ([]notice.Notice, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	notices := repo.db.filter(func(n notice.Notice) bool {
		return n.SchoolID == schoolID &&
			vis.Matches(n) &&
			(filter.Audience == "" || n.Audience == filter.Audience) &&
			(filter.Important == nil || n.IsImportant == *filter.Important) &&
			(search == "" ||
				strings.Contains(strings.ToLower(n.Title), search) ||
				strings.Contains(strings.ToLower(n.Message), search))
	})
	sortByTime(notices, func(n notice.Notice) time.Time { return n.CreatedAt }, true)

	total := len(notices)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return notices[start:end], total, nil
}

func (repo *noticeRepository) UpdateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(n.ID)
	if !ok || orig.SchoolID != n.SchoolID {
		return notice.Notice{}, notice.ErrNotFound
	}
	n.CreatedAt = orig.CreatedAt
	n.CreatedBy = orig.CreatedBy
	repo.db.insert(n.ID, n)
	return n, nil
}

func (repo *noticeRepository) DeleteNotice(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n, ok := repo.db.get(id); !ok || n.SchoolID != schoolID {
		return notice.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}
