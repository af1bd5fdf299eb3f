package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	db *table[school.School]
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) emailTaken(email, excludedID string) bool {
	return repo.db.exists(func(s school.School) bool { return s.Email == email && s.ID != excludedID })
}

func (repo *schoolRepository) CreateSchool(_ context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(s.Email, "") {
		return school.School{}, school.ErrEmailExists
	}
	s.ID = newID()
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, id string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.get(id); ok {
		return s, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolByEmail(_ context.Context, email string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	found := repo.db.filter(func(s school.School) bool { return s.Email == email })
	if len(found) == 0 {
		return school.School{}, school.ErrNotFound
	}
	return found[0], nil
}

func (repo *schoolRepository) ListSchools(_ context.Context) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(nil), nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(s.ID)
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	if repo.emailTaken(s.Email, s.ID) {
		return school.School{}, school.ErrEmailExists
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *schoolRepository) EmailExists(_ context.Context, email, excludedID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.emailTaken(email, excludedID), nil
}
