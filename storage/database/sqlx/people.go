package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
)

var teacherColumns = []string{
	"id", "school_id", "name", "email", "qualification", "age", "gender",
	"subjects", "teacher_classes", "teacher_img", "password_hash", "created_at",
}

type teacherRow struct {
	ID             string         `db:"id"`
	SchoolID       string         `db:"school_id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	Qualification  string         `db:"qualification"`
	Age            int            `db:"age"`
	Gender         string         `db:"gender"`
	Subjects       pq.StringArray `db:"subjects"`
	TeacherClasses pq.StringArray `db:"teacher_classes"`
	TeacherImg     null.String    `db:"teacher_img"`
	PasswordHash   []byte         `db:"password_hash"`
	CreatedAt      time.Time      `db:"created_at"`
}

type teacherRepository struct {
	executor
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{executor{db: db}}
}

func (repo teacherRepository) values(t teacher.Teacher) map[string]interface{} {
	subjects, classes := t.Subjects, t.TeacherClasses
	if subjects == nil {
		subjects = []string{}
	}
	if classes == nil {
		classes = []string{}
	}
	return map[string]interface{}{
		"name":            t.Name,
		"email":           t.Email,
		"qualification":   t.Qualification,
		"age":             t.Age,
		"gender":          t.Gender,
		"subjects":        pq.StringArray(subjects),
		"teacher_classes": pq.StringArray(classes),
		"teacher_img":     nullString(t.TeacherImg),
		"password_hash":   t.PasswordHash,
	}
}

func (repo teacherRepository) fromRow(r teacherRow) teacher.Teacher {
	t := teacher.Teacher{
		ID:             r.ID,
		SchoolID:       r.SchoolID,
		Name:           r.Name,
		Email:          r.Email,
		Qualification:  r.Qualification,
		Age:            r.Age,
		Gender:         r.Gender,
		Subjects:       []string(r.Subjects),
		TeacherClasses: []string(r.TeacherClasses),
		TeacherImg:     r.TeacherImg.String,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      utc(r.CreatedAt),
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	if t.TeacherClasses == nil {
		t.TeacherClasses = []string{}
	}
	return t
}

func (repo teacherRepository) getBy(ctx context.Context, where sq.Sqlizer) (teacher.Teacher, error) {
	var r teacherRow
	if err := repo.get(ctx, &r, psql.Select(teacherColumns...).From("teacher").Where(where)); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher")
	}
	return repo.fromRow(r), nil
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	t.ID = uuid.New().String()
	vals := repo.values(t)
	vals["id"] = t.ID
	vals["school_id"] = t.SchoolID
	vals["created_at"] = t.CreatedAt.UTC()
	if _, err := repo.exec(ctx, psql.Insert("teacher").SetMap(vals)); err != nil {
		return teacher.Teacher{}, trapViolation(err, teacher.ErrEmailExists, "inserting teacher")
	}
	return t, nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, schoolID, id string) (teacher.Teacher, error) {
	return repo.getBy(ctx, sq.Eq{"id": id, "school_id": schoolID})
}

func (repo teacherRepository) GetTeacherByEmail(ctx context.Context, email string) (teacher.Teacher, error) {
	return repo.getBy(ctx, sq.Eq{"email": email})
}

func (repo teacherRepository) QueryTeachers(ctx context.Context, schoolID string, filter teacher.QueryFilter) ([]teacher.Teacher, error) {
	where := sq.And{sq.Eq{"school_id": schoolID}}
	if filter.Search != "" {
		where = append(where, sq.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.TeacherClass != "" {
		where = append(where, sq.Expr("? = ANY(teacher_classes)", filter.TeacherClass))
	}
	if filter.Subject != "" {
		where = append(where, sq.Expr("? = ANY(subjects)", filter.Subject))
	}

	var rows []teacherRow
	if err := repo.selectAll(ctx, &rows, psql.Select(teacherColumns...).From("teacher").Where(where).OrderBy("name")); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, repo.fromRow(r))
	}
	return teachers, nil
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	n, err := repo.exec(ctx, psql.Update("teacher").SetMap(repo.values(t)).Where(sq.Eq{"id": t.ID, "school_id": t.SchoolID}))
	if err != nil {
		return teacher.Teacher{}, trapViolation(err, teacher.ErrEmailExists, "updating teacher")
	}
	if err = affectedOrNotFound(n, nil, teacher.ErrNotFound, "updating teacher"); err != nil {
		return teacher.Teacher{}, err
	}
	return t, nil
}

func (repo teacherRepository) DeleteTeacher(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("teacher").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, teacher.ErrNotFound, "deleting teacher")
}

func (repo teacherRepository) TeacherExists(ctx context.Context, schoolID, id string) (bool, error) {
	exists, err := repo.exists(ctx, "teacher", sq.Eq{"id": id, "school_id": schoolID})
	return exists, errors.Wrap(err, "checking teacher")
}

func (repo teacherRepository) EmailExists(ctx context.Context, email, excludedID string) (bool, error) {
	where := sq.And{sq.Eq{"email": email}}
	if excludedID != "" {
		where = append(where, sq.NotEq{"id": excludedID})
	}
	exists, err := repo.exists(ctx, "teacher", where)
	return exists, errors.Wrap(err, "checking teacher email")
}

var studentColumns = []string{
	"id", "school_id", "name", "email", "student_class", "age", "gender",
	"parent", "parent_num", "student_img", "password_hash", "created_at",
}

type studentRow struct {
	ID           string      `db:"id"`
	SchoolID     string      `db:"school_id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	StudentClass string      `db:"student_class"`
	Age          int         `db:"age"`
	Gender       string      `db:"gender"`
	Parent       string      `db:"parent"`
	ParentNum    string      `db:"parent_num"`
	StudentImg   null.String `db:"student_img"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
}

type studentRepository struct {
	executor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{executor{db: db}}
}

func (repo studentRepository) values(s student.Student) map[string]interface{} {
	return map[string]interface{}{
		"name":          s.Name,
		"email":         s.Email,
		"student_class": s.StudentClass,
		"age":           s.Age,
		"gender":        s.Gender,
		"parent":        s.Parent,
		"parent_num":    s.ParentNum,
		"student_img":   nullString(s.StudentImg),
		"password_hash": s.PasswordHash,
	}
}

func (repo studentRepository) fromRow(r studentRow) student.Student {
	return student.Student{
		ID:           r.ID,
		SchoolID:     r.SchoolID,
		Name:         r.Name,
		Email:        r.Email,
		StudentClass: r.StudentClass,
		Age:          r.Age,
		Gender:       r.Gender,
		Parent:       r.Parent,
		ParentNum:    r.ParentNum,
		StudentImg:   r.StudentImg.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    utc(r.CreatedAt),
	}
}

func (repo studentRepository) getBy(ctx context.Context, where sq.Sqlizer) (student.Student, error) {
	var r studentRow
	if err := repo.get(ctx, &r, psql.Select(studentColumns...).From("student").Where(where)); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return repo.fromRow(r), nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	vals := repo.values(s)
	vals["id"] = s.ID
	vals["school_id"] = s.SchoolID
	vals["created_at"] = s.CreatedAt.UTC()
	if _, err := repo.exec(ctx, psql.Insert("student").SetMap(vals)); err != nil {
		return student.Student{}, trapViolation(err, student.ErrEmailExists, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, schoolID, id string) (student.Student, error) {
	return repo.getBy(ctx, sq.Eq{"id": id, "school_id": schoolID})
}

func (repo studentRepository) GetStudentByEmail(ctx context.Context, email string) (student.Student, error) {
	return repo.getBy(ctx, sq.Eq{"email": email})
}

func (repo studentRepository) QueryStudents(ctx context.Context, schoolID string, filter student.QueryFilter) ([]student.Student, error) {
	where := sq.And{sq.Eq{"school_id": schoolID}}
	if filter.Search != "" {
		where = append(where, sq.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.StudentClass != "" {
		where = append(where, sq.Eq{"student_class": filter.StudentClass})
	}

	var rows []studentRow
	if err := repo.selectAll(ctx, &rows, psql.Select(studentColumns...).From("student").Where(where).OrderBy("name")); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.fromRow(r))
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	n, err := repo.exec(ctx, psql.Update("student").SetMap(repo.values(s)).Where(sq.Eq{"id": s.ID, "school_id": s.SchoolID}))
	if err != nil {
		return student.Student{}, trapViolation(err, student.ErrEmailExists, "updating student")
	}
	if err = affectedOrNotFound(n, nil, student.ErrNotFound, "updating student"); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("student").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, student.ErrNotFound, "deleting student")
}

func (repo studentRepository) StudentExists(ctx context.Context, schoolID, id string) (bool, error) {
	exists, err := repo.exists(ctx, "student", sq.Eq{"id": id, "school_id": schoolID})
	return exists, errors.Wrap(err, "checking student")
}

func (repo studentRepository) EmailExists(ctx context.Context, email, excludedID string) (bool, error) {
	where := sq.And{sq.Eq{"email": email}}
	if excludedID != "" {
		where = append(where, sq.NotEq{"id": excludedID})
	}
	exists, err := repo.exists(ctx, "student", where)
	return exists, errors.Wrap(err, "checking student email")
}
