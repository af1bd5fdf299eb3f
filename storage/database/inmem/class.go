package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/subject"
)

type classRepository struct {
	db *table[class.Class]
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(_ context.Context, c class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = newID()
	repo.db.insert(c.ID, c)
	return c, nil
}

func (repo *classRepository) GetClass(_ context.Context, schoolID, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.get(id); ok && c.SchoolID == schoolID {
		return c, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) ListClasses(_ context.Context, schoolID string) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(func(c class.Class) bool { return c.SchoolID == schoolID }), nil
}

func (repo *classRepository) ListClassesByAttendee(_ context.Context, schoolID, teacherID string) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(func(c class.Class) bool { return c.SchoolID == schoolID && c.Attendee == teacherID }), nil
}

func (repo *classRepository) UpdateClass(_ context.Context, c class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(c.ID)
	if !ok || orig.SchoolID != c.SchoolID {
		return class.Class{}, class.ErrNotFound
	}
	c.CreatedAt = orig.CreatedAt
	repo.db.insert(c.ID, c)
	return c, nil
}

func (repo *classRepository) DeleteClass(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c, ok := repo.db.get(id); !ok || c.SchoolID != schoolID {
		return class.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}

func (repo *classRepository) ClassExists(_ context.Context, schoolID, id string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	c, ok := repo.db.get(id)
	return ok && c.SchoolID == schoolID, nil
}

type subjectRepository struct {
	db *table[subject.Subject]
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db.subject}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, s subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = newID()
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, schoolID, id string) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.get(id); ok && s.SchoolID == schoolID {
		return s, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) ListSubjects(_ context.Context, schoolID string, ids ...string) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.filter(func(s subject.Subject) bool {
		if s.SchoolID != schoolID {
			return false
		}
		if len(ids) == 0 {
			return true
		}
		for _, id := range ids {
			if s.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, s subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(s.ID)
	if !ok || orig.SchoolID != s.SchoolID {
		return subject.Subject{}, subject.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *subjectRepository) DeleteSubject(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.get(id); !ok || s.SchoolID != schoolID {
		return subject.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}

func (repo *subjectRepository) SubjectExists(_ context.Context, schoolID, id string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, ok := repo.db.get(id)
	return ok && s.SchoolID == schoolID, nil
}
