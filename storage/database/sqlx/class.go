package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/subject"
)

var classColumns = []string{"id", "school_id", "class_text", "class_num", "attendee", "created_at"}

type classRow struct {
	ID        string      `db:"id"`
	SchoolID  string      `db:"school_id"`
	ClassText string      `db:"class_text"`
	ClassNum  int         `db:"class_num"`
	Attendee  null.String `db:"attendee"`
	CreatedAt time.Time   `db:"created_at"`
}

type classRepository struct {
	executor
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{executor{db: db}}
}

func (repo classRepository) fromRow(r classRow) class.Class {
	return class.Class{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		ClassText: r.ClassText,
		ClassNum:  r.ClassNum,
		Attendee:  r.Attendee.String,
		CreatedAt: utc(r.CreatedAt),
	}
}

func (repo classRepository) list(ctx context.Context, where sq.Sqlizer) ([]class.Class, error) {
	var rows []classRow
	q := psql.Select(classColumns...).From("class").Where(where).OrderBy("class_num", "class_text")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, repo.fromRow(r))
	}
	return classes, nil
}

func (repo classRepository) CreateClass(ctx context.Context, c class.Class) (class.Class, error) {
	c.ID = uuid.New().String()
	_, err := repo.exec(ctx, psql.Insert("class").SetMap(map[string]interface{}{
		"id":         c.ID,
		"school_id":  c.SchoolID,
		"class_text": c.ClassText,
		"class_num":  c.ClassNum,
		"attendee":   nullString(c.Attendee),
		"created_at": c.CreatedAt.UTC(),
	}))
	if err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo classRepository) GetClass(ctx context.Context, schoolID, id string) (class.Class, error) {
	var r classRow
	q := psql.Select(classColumns...).From("class").Where(sq.Eq{"id": id, "school_id": schoolID})
	if err := repo.get(ctx, &r, q); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound, "finding class")
	}
	return repo.fromRow(r), nil
}

func (repo classRepository) ListClasses(ctx context.Context, schoolID string) ([]class.Class, error) {
	return repo.list(ctx, sq.Eq{"school_id": schoolID})
}

func (repo classRepository) ListClassesByAttendee(ctx context.Context, schoolID, teacherID string) ([]class.Class, error) {
	return repo.list(ctx, sq.Eq{"school_id": schoolID, "attendee": teacherID})
}

func (repo classRepository) UpdateClass(ctx context.Context, c class.Class) (class.Class, error) {
	n, err := repo.exec(ctx, psql.Update("class").SetMap(map[string]interface{}{
		"class_text": c.ClassText,
		"class_num":  c.ClassNum,
		"attendee":   nullString(c.Attendee),
	}).Where(sq.Eq{"id": c.ID, "school_id": c.SchoolID}))
	if err = affectedOrNotFound(n, err, class.ErrNotFound, "updating class"); err != nil {
		return class.Class{}, err
	}
	return c, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("class").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, class.ErrNotFound, "deleting class")
}

func (repo classRepository) ClassExists(ctx context.Context, schoolID, id string) (bool, error) {
	exists, err := repo.exists(ctx, "class", sq.Eq{"id": id, "school_id": schoolID})
	return exists, errors.Wrap(err, "checking class")
}

var subjectColumns = []string{"id", "school_id", "subject_name", "subject_code", "created_at"}

type subjectRow struct {
	ID          string    `db:"id"`
	SchoolID    string    `db:"school_id"`
	SubjectName string    `db:"subject_name"`
	SubjectCode string    `db:"subject_code"`
	CreatedAt   time.Time `db:"created_at"`
}

type subjectRepository struct {
	executor
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{executor{db: db}}
}

func (repo subjectRepository) fromRow(r subjectRow) subject.Subject {
	return subject.Subject{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		SubjectName: r.SubjectName,
		SubjectCode: r.SubjectCode,
		CreatedAt:   utc(r.CreatedAt),
	}
}

func (repo subjectRepository) CreateSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	s.ID = uuid.New().String()
	_, err := repo.exec(ctx, psql.Insert("subject").SetMap(map[string]interface{}{
		"id":           s.ID,
		"school_id":    s.SchoolID,
		"subject_name": s.SubjectName,
		"subject_code": s.SubjectCode,
		"created_at":   s.CreatedAt.UTC(),
	}))
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, schoolID, id string) (subject.Subject, error) {
	var r subjectRow
	q := psql.Select(subjectColumns...).From("subject").Where(sq.Eq{"id": id, "school_id": schoolID})
	if err := repo.get(ctx, &r, q); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "finding subject")
	}
	return repo.fromRow(r), nil
}

func (repo subjectRepository) ListSubjects(ctx context.Context, schoolID string, ids ...string) ([]subject.Subject, error) {
	where := sq.And{sq.Eq{"school_id": schoolID}}
	if len(ids) > 0 {
		where = append(where, sq.Eq{"id": ids})
	}
	var rows []subjectRow
	if err := repo.selectAll(ctx, &rows, psql.Select(subjectColumns...).From("subject").Where(where).OrderBy("subject_name")); err != nil {
		return nil, errors.Wrap(err, "listing subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, repo.fromRow(r))
	}
	return subjects, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	n, err := repo.exec(ctx, psql.Update("subject").SetMap(map[string]interface{}{
		"subject_name": s.SubjectName,
		"subject_code": s.SubjectCode,
	}).Where(sq.Eq{"id": s.ID, "school_id": s.SchoolID}))
	if err = affectedOrNotFound(n, err, subject.ErrNotFound, "updating subject"); err != nil {
		return subject.Subject{}, err
	}
	return s, nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("subject").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, subject.ErrNotFound, "deleting subject")
}

func (repo subjectRepository) SubjectExists(ctx context.Context, schoolID, id string) (bool, error) {
	exists, err := repo.exists(ctx, "subject", sq.Eq{"id": id, "school_id": schoolID})
	return exists, errors.Wrap(err, "checking subject")
}
