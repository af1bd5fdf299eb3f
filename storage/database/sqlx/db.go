package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/database"
)

const (
	uniqueViolation    pq.ErrorCode = "23505"
	exclusionViolation pq.ErrorCode = "23P01"
	internalErrorClass pq.ErrorClass = "XX" // data_corrupted, index_corrupted, ...
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repositories returns all repositories backed by `db`.
func Repositories(db *sqlx.DB) database.Repositories {
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

// executor runs squirrel builders through sqlx.
type executor struct {
	db sqlx.ExtContext
}

func (ex executor) get(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return integrity(sqlx.GetContext(ctx, ex.db, dest, q, args...))
}

func (ex executor) selectAll(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return integrity(sqlx.SelectContext(ctx, ex.db, dest, q, args...))
}

// exec runs the statement and returns the number of affected rows.
func (ex executor) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building statement")
	}
	res, err := ex.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, integrity(err)
	}
	return res.RowsAffected()
}

func (ex executor) exists(ctx context.Context, table string, where sq.Sqlizer) (bool, error) {
	q, args, err := psql.Select("1").From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var found bool
	err = sqlx.GetContext(ctx, ex.db, &found, "SELECT EXISTS("+q+")", args...)
	return found, integrity(err)
}

// integrity turns a postgres internal error into a shutdown error: the server should stop
// serving from a corrupted database. Any other err is returned as is.
func integrity(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == internalErrorClass {
		return errors.Wrap(core.NewShutdownError("database integrity lost"), pqErr.Error())
	}
	return err
}

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapViolation maps a unique or exclusion constraint violation to `conflict`
func trapViolation(err error, conflict error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		if pqErr.Code == uniqueViolation || pqErr.Code == exclusionViolation {
			return conflict
		}
	}
	return errors.Wrap(err, msg)
}

// affectedOrNotFound returns `notFound` when a write matched no row.
func affectedOrNotFound(n int64, err error, notFound error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
