package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/school"
)

var schoolColumns = []string{"id", "school_name", "email", "owner_name", "school_img", "password_hash", "created_at"}

type schoolRow struct {
	ID           string      `db:"id"`
	SchoolName   string      `db:"school_name"`
	Email        string      `db:"email"`
	OwnerName    string      `db:"owner_name"`
	SchoolImg    null.String `db:"school_img"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
}

type schoolRepository struct {
	executor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{executor{db: db}}
}

func (repo schoolRepository) toRow(s school.School) schoolRow {
	return schoolRow{
		ID:           s.ID,
		SchoolName:   s.SchoolName,
		Email:        s.Email,
		OwnerName:    s.OwnerName,
		SchoolImg:    nullString(s.SchoolImg),
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt.UTC(),
	}
}

func (repo schoolRepository) fromRow(r schoolRow) school.School {
	return school.School{
		ID:           r.ID,
		SchoolName:   r.SchoolName,
		Email:        r.Email,
		OwnerName:    r.OwnerName,
		SchoolImg:    r.SchoolImg.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    utc(r.CreatedAt),
	}
}

func (repo schoolRepository) values(r schoolRow) map[string]interface{} {
	return map[string]interface{}{
		"school_name":   r.SchoolName,
		"email":         r.Email,
		"owner_name":    r.OwnerName,
		"school_img":    r.SchoolImg,
		"password_hash": r.PasswordHash,
	}
}

func (repo schoolRepository) getBy(ctx context.Context, where sq.Sqlizer) (school.School, error) {
	var r schoolRow
	if err := repo.get(ctx, &r, psql.Select(schoolColumns...).From("school").Where(where)); err != nil {
		return school.School{}, trapNoRowsErr(err, school.ErrNotFound, "finding school")
	}
	return repo.fromRow(r), nil
}

func (repo schoolRepository) CreateSchool(ctx context.Context, s school.School) (school.School, error) {
	s.ID = uuid.New().String()
	r := repo.toRow(s)
	vals := repo.values(r)
	vals["id"] = r.ID
	vals["created_at"] = r.CreatedAt
	if _, err := repo.exec(ctx, psql.Insert("school").SetMap(vals)); err != nil {
		return school.School{}, trapViolation(err, school.ErrEmailExists, "inserting school")
	}
	return s, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id string) (school.School, error) {
	return repo.getBy(ctx, sq.Eq{"id": id})
}

func (repo schoolRepository) GetSchoolByEmail(ctx context.Context, email string) (school.School, error) {
	return repo.getBy(ctx, sq.Eq{"email": email})
}

func (repo schoolRepository) ListSchools(ctx context.Context) ([]school.School, error) {
	var rows []schoolRow
	if err := repo.selectAll(ctx, &rows, psql.Select(schoolColumns...).From("school").OrderBy("created_at")); err != nil {
		return nil, errors.Wrap(err, "listing schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, repo.fromRow(r))
	}
	return schools, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, s school.School) (school.School, error) {
	n, err := repo.exec(ctx, psql.Update("school").SetMap(repo.values(repo.toRow(s))).Where(sq.Eq{"id": s.ID}))
	if err != nil {
		return school.School{}, trapViolation(err, school.ErrEmailExists, "updating school")
	}
	if err = affectedOrNotFound(n, nil, school.ErrNotFound, "updating school"); err != nil {
		return school.School{}, err
	}
	return s, nil
}

func (repo schoolRepository) EmailExists(ctx context.Context, email, excludedID string) (bool, error) {
	where := sq.And{sq.Eq{"email": email}}
	if excludedID != "" {
		where = append(where, sq.NotEq{"id": excludedID})
	}
	exists, err := repo.exists(ctx, "school", where)
	return exists, errors.Wrap(err, "checking school email")
}
