package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/schedule"
)

type scheduleRepository struct {
	db *table[schedule.Schedule]
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

// overlaps mirrors the postgres exclusion constraint on active schedules.
func (repo *scheduleRepository) overlaps(s schedule.Schedule) bool {
	if s.Status != schedule.StatusActive {
		return false
	}
	return repo.db.exists(func(other schedule.Schedule) bool {
		return other.ID != s.ID &&
			other.TeacherID == s.TeacherID &&
			other.Status == schedule.StatusActive &&
			schedule.Overlaps(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
	})
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.overlaps(s) {
		return schedule.Schedule{}, schedule.ErrOverlap
	}
	s.ID = newID()
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *scheduleRepository) GetSchedule(_ context.Context, schoolID, id string) (schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.get(id); ok && s.SchoolID == schoolID {
		return s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) ListSchedulesByClass(_ context.Context, schoolID, classID string) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schedules := repo.db.filter(func(s schedule.Schedule) bool { return s.SchoolID == schoolID && s.ClassID == classID })
	sortByTime(schedules, func(s schedule.Schedule) time.Time { return s.StartTime }, false)
	return schedules, nil
}

func (repo *scheduleRepository) ListActiveSchedulesByTeacher(_ context.Context, teacherID, excludedID string) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.filter(func(s schedule.Schedule) bool {
		return s.TeacherID == teacherID && s.Status == schedule.StatusActive && s.ID != excludedID
	}), nil
}

func (repo *scheduleRepository) UpdateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(s.ID)
	if !ok || orig.SchoolID != s.SchoolID {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	if repo.overlaps(s) {
		return schedule.Schedule{}, schedule.ErrOverlap
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedule(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.get(id); !ok || s.SchoolID != schoolID {
		return schedule.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}

func (repo *scheduleRepository) CompleteEndedSchedules(_ context.Context, now time.Time) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	for _, s := range repo.db.filter(func(s schedule.Schedule) bool {
		return s.Status == schedule.StatusActive && s.EndTime.Before(now)
	}) {
		s.Status = schedule.StatusCompleted
		repo.db.insert(s.ID, s)
		n++
	}
	return n, nil
}

func (repo *scheduleRepository) PurgeCompletedSchedules(_ context.Context, before time.Time) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	purged := repo.db.filter(func(s schedule.Schedule) bool {
		return s.Status == schedule.StatusCompleted && s.EndTime.Before(before)
	})
	ids := make([]string, 0, len(purged))
	for _, s := range purged {
		ids = append(ids, s.ID)
	}
	repo.db.delete(ids...)
	return int64(len(ids)), nil
}

type examRepository struct {
	db *table[exam.Examination]
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) CreateExamination(_ context.Context, e exam.Examination) (exam.Examination, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = newID()
	repo.db.insert(e.ID, e)
	return e, nil
}

func (repo *examRepository) GetExamination(_ context.Context, schoolID, id string) (exam.Examination, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.get(id); ok && e.SchoolID == schoolID {
		return e, nil
	}
	return exam.Examination{}, exam.ErrNotFound
}

func (repo *examRepository) ListExaminations(_ context.Context, schoolID string, classIDs []string) ([]exam.Examination, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := repo.db.filter(func(e exam.Examination) bool {
		if e.SchoolID != schoolID {
			return false
		}
		if classIDs == nil {
			return true
		}
		for _, id := range classIDs {
			if e.ClassID == id {
				return true
			}
		}
		return false
	})
	sortByTime(exams, func(e exam.Examination) time.Time { return e.ExamDate }, false)
	return exams, nil
}

func (repo *examRepository) UpdateExamination(_ context.Context, e exam.Examination) (exam.Examination, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(e.ID)
	if !ok || orig.SchoolID != e.SchoolID {
		return exam.Examination{}, exam.ErrNotFound
	}
	e.CreatedAt = orig.CreatedAt
	e.CreatedBy = orig.CreatedBy
	repo.db.insert(e.ID, e)
	return e, nil
}

func (repo *examRepository) DeleteExamination(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e, ok := repo.db.get(id); !ok || e.SchoolID != schoolID {
		return exam.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}
