package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
)

type teacherRepository struct {
	db *table[teacher.Teacher]
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) emailTaken(email, excludedID string) bool {
	return repo.db.exists(func(t teacher.Teacher) bool { return t.Email == email && t.ID != excludedID })
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(t.Email, "") {
		return teacher.Teacher{}, teacher.ErrEmailExists
	}
	t.ID = newID()
	t.Subjects = copyStrings(t.Subjects)
	t.TeacherClasses = copyStrings(t.TeacherClasses)
	repo.db.insert(t.ID, t)
	return t, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, schoolID, id string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.get(id); ok && t.SchoolID == schoolID {
		return t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByEmail(_ context.Context, email string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	found := repo.db.filter(func(t teacher.Teacher) bool { return t.Email == email })
	if len(found) == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return found[0], nil
}

func (repo *teacherRepository) QueryTeachers(_ context.Context, schoolID string, filter teacher.QueryFilter) ([]teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	return repo.db.filter(func(t teacher.Teacher) bool {
		return t.SchoolID == schoolID &&
			(search == "" || strings.Contains(strings.ToLower(t.Name), search)) &&
			(filter.TeacherClass == "" || core.ContainsString(t.TeacherClasses, filter.TeacherClass)) &&
			(filter.Subject == "" || core.ContainsString(t.Subjects, filter.Subject))
	}), nil
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(t.ID)
	if !ok || orig.SchoolID != t.SchoolID {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	if repo.emailTaken(t.Email, t.ID) {
		return teacher.Teacher{}, teacher.ErrEmailExists
	}
	t.CreatedAt = orig.CreatedAt
	t.Subjects = copyStrings(t.Subjects)
	t.TeacherClasses = copyStrings(t.TeacherClasses)
	repo.db.insert(t.ID, t)
	return t, nil
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t, ok := repo.db.get(id); !ok || t.SchoolID != schoolID {
		return teacher.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}

func (repo *teacherRepository) TeacherExists(_ context.Context, schoolID, id string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	t, ok := repo.db.get(id)
	return ok && t.SchoolID == schoolID, nil
}

func (repo *teacherRepository) EmailExists(_ context.Context, email, excludedID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.emailTaken(email, excludedID), nil
}

type studentRepository struct {
	db *table[student.Student]
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) emailTaken(email, excludedID string) bool {
	return repo.db.exists(func(s student.Student) bool { return s.Email == email && s.ID != excludedID })
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(s.Email, "") {
		return student.Student{}, student.ErrEmailExists
	}
	s.ID = newID()
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, schoolID, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.get(id); ok && s.SchoolID == schoolID {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByEmail(_ context.Context, email string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	found := repo.db.filter(func(s student.Student) bool { return s.Email == email })
	if len(found) == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return found[0], nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, schoolID string, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	return repo.db.filter(func(s student.Student) bool {
		return s.SchoolID == schoolID &&
			(search == "" || strings.Contains(strings.ToLower(s.Name), search)) &&
			(filter.StudentClass == "" || s.StudentClass == filter.StudentClass)
	}), nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.get(s.ID)
	if !ok || orig.SchoolID != s.SchoolID {
		return student.Student{}, student.ErrNotFound
	}
	if repo.emailTaken(s.Email, s.ID) {
		return student.Student{}, student.ErrEmailExists
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.get(id); !ok || s.SchoolID != schoolID {
		return student.ErrNotFound
	}
	repo.db.delete(id)
	return nil
}

func (repo *studentRepository) StudentExists(_ context.Context, schoolID, id string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, ok := repo.db.get(id)
	return ok && s.SchoolID == schoolID, nil
}

func (repo *studentRepository) EmailExists(_ context.Context, email, excludedID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.emailTaken(email, excludedID), nil
}
