package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/notice"
)

const dateLayout = "2006-01-02"

var attendanceColumns = []string{"id", "school_id", "student_id", "class_id", "date", "status", "notes", "marked_by", "created_at"}

type attendanceRow struct {
	ID        string      `db:"id"`
	SchoolID  string      `db:"school_id"`
	StudentID string      `db:"student_id"`
	ClassID   string      `db:"class_id"`
	Date      time.Time   `db:"date"`
	Status    string      `db:"status"`
	Notes     null.String `db:"notes"`
	MarkedBy  string      `db:"marked_by"`
	CreatedAt time.Time   `db:"created_at"`
}

type attendanceRepository struct {
	executor
	conn *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{executor: executor{db: db}, conn: db}
}

func (repo attendanceRepository) fromRow(r attendanceRow) attendance.Attendance {
	return attendance.Attendance{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		Date:      time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC),
		Status:    attendance.Status(r.Status),
		Notes:     r.Notes.String,
		MarkedBy:  r.MarkedBy,
		CreatedAt: utc(r.CreatedAt),
	}
}

func (repo attendanceRepository) ClassAttendanceExists(ctx context.Context, schoolID, classID string, day time.Time) (bool, error) {
	exists, err := repo.exists(ctx, "attendance", sq.Eq{
		"school_id": schoolID,
		"class_id":  classID,
		"date":      day.UTC().Format(dateLayout),
	})
	return exists, errors.Wrap(err, "checking class attendance")
}

func (repo attendanceRepository) StudentAttendanceExists(ctx context.Context, schoolID, studentID, classID string, day time.Time) (bool, error) {
	exists, err := repo.exists(ctx, "attendance", sq.Eq{
		"school_id":  schoolID,
		"student_id": studentID,
		"class_id":   classID,
		"date":       day.UTC().Format(dateLayout),
	})
	return exists, errors.Wrap(err, "checking student attendance")
}

func (repo attendanceRepository) insert(records []attendance.Attendance) sq.InsertBuilder {
	b := psql.Insert("attendance").Columns(attendanceColumns...)
	for _, a := range records {
		b = b.Values(a.ID, a.SchoolID, a.StudentID, a.ClassID, a.Date.UTC().Format(dateLayout),
			string(a.Status), nullString(a.Notes), a.MarkedBy, a.CreatedAt.UTC())
	}
	return b
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	a.ID = uuid.New().String()
	if _, err := repo.exec(ctx, repo.insert([]attendance.Attendance{a})); err != nil {
		return attendance.Attendance{}, trapViolation(err, attendance.ErrAlreadyMarked, "inserting attendance")
	}
	return a, nil
}

// CreateAttendances inserts all records in one transaction.
func (repo attendanceRepository) CreateAttendances(ctx context.Context, records []attendance.Attendance) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		records[i].ID = uuid.New().String()
	}

	tx, err := repo.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "starting transaction")
	}
	n, err := executor{db: tx}.exec(ctx, repo.insert(records))
	if err != nil {
		_ = tx.Rollback()
		return 0, trapViolation(err, attendance.ErrAlreadyMarked, "inserting attendance")
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing attendance")
	}
	return int(n), nil
}

func (repo attendanceRepository) ListAttendanceByStudents(ctx context.Context, schoolID string, studentIDs ...string) ([]attendance.Attendance, error) {
	if len(studentIDs) == 0 {
		return []attendance.Attendance{}, nil
	}
	var rows []attendanceRow
	q := psql.Select(attendanceColumns...).From("attendance").
		Where(sq.Eq{"school_id": schoolID, "student_id": studentIDs}).
		OrderBy("date DESC")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing attendance")
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, repo.fromRow(r))
	}
	return records, nil
}

var noticeColumns = []string{
	"id", "school_id", "title", "message", "audience", "is_important", "expiry_date",
	"created_by_id", "created_by_role", "created_at",
}

type noticeRow struct {
	ID            string    `db:"id"`
	SchoolID      string    `db:"school_id"`
	Title         string    `db:"title"`
	Message       string    `db:"message"`
	Audience      string    `db:"audience"`
	IsImportant   bool      `db:"is_important"`
	ExpiryDate    null.Time `db:"expiry_date"`
	CreatedByID   string    `db:"created_by_id"`
	CreatedByRole string    `db:"created_by_role"`
	CreatedAt     time.Time `db:"created_at"`
}

type noticeRepository struct {
	executor
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *sqlx.DB) *noticeRepository {
	return &noticeRepository{executor{db: db}}
}

func (repo noticeRepository) values(n notice.Notice) map[string]interface{} {
	expiry := null.TimeFromPtr(n.ExpiryDate)
	if expiry.Valid {
		expiry.Time = expiry.Time.UTC()
	}
	return map[string]interface{}{
		"title":        n.Title,
		"message":      n.Message,
		"audience":     string(n.Audience),
		"is_important": n.IsImportant,
		"expiry_date":  expiry,
	}
}

func (repo noticeRepository) fromRow(r noticeRow) notice.Notice {
	n := notice.Notice{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		Title:       r.Title,
		Message:     r.Message,
		Audience:    notice.Audience(r.Audience),
		IsImportant: r.IsImportant,
		CreatedBy:   auth.Author{ID: r.CreatedByID, Role: auth.Role(r.CreatedByRole)},
		CreatedAt:   utc(r.CreatedAt),
	}
	if r.ExpiryDate.Valid {
		expiry := r.ExpiryDate.Time.UTC()
		n.ExpiryDate = &expiry
	}
	return n
}

func (repo noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	n.ID = uuid.New().String()
	vals := repo.values(n)
	vals["id"] = n.ID
	vals["school_id"] = n.SchoolID
	vals["created_by_id"] = n.CreatedBy.ID
	vals["created_by_role"] = n.CreatedBy.Role.String()
	vals["created_at"] = n.CreatedAt.UTC()
	if _, err := repo.exec(ctx, psql.Insert("notice").SetMap(vals)); err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return n, nil
}

func (repo noticeRepository) GetNotice(ctx context.Context, schoolID, id string) (notice.Notice, error) {
	var r noticeRow
	q := psql.Select(noticeColumns...).From("notice").Where(sq.Eq{"id": id, "school_id": schoolID})
	if err := repo.get(ctx, &r, q); err != nil {
		return notice.Notice{}, trapNoRowsErr(err, notice.ErrNotFound, "finding notice")
	}
	return repo.fromRow(r), nil
}

func (repo noticeRepository) QueryNotices(ctx context.Context, schoolID string, vis notice.Visibility, filter notice.QueryFilter, page core.Page) ([]notice.Notice, int, error) {
	where := sq.And{sq.Eq{"school_id": schoolID}}
	if !vis.ActiveAt.IsZero() {
		where = append(where, sq.Or{sq.Eq{"expiry_date": nil}, sq.Gt{"expiry_date": vis.ActiveAt.UTC()}})
	}
	if vis.Audiences != nil {
		audiences := make([]string, 0, len(vis.Audiences))
		for _, a := range vis.Audiences {
			audiences = append(audiences, string(a))
		}
		visible := sq.Or{sq.Eq{"audience": audiences}}
		if vis.AuthorID != "" {
			visible = append(visible, sq.Eq{"created_by_id": vis.AuthorID})
		}
		where = append(where, visible)
	}
	if filter.Audience != "" {
		where = append(where, sq.Eq{"audience": string(filter.Audience)})
	}
	if filter.Important != nil {
		where = append(where, sq.Eq{"is_important": *filter.Important})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sq.Or{sq.ILike{"title": pattern}, sq.ILike{"message": pattern}})
	}

	var total int
	if err := repo.get(ctx, &total, psql.Select("COUNT(*)").From("notice").Where(where)); err != nil {
		return nil, 0, errors.Wrap(err, "counting notices")
	}

	var rows []noticeRow
	q := psql.Select(noticeColumns...).From("notice").Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset()))
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, 0, errors.Wrap(err, "querying notices")
	}
	notices := make([]notice.Notice, 0, len(rows))
	for _, r := range rows {
		notices = append(notices, repo.fromRow(r))
	}
	return notices, total, nil
}

func (repo noticeRepository) UpdateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	cnt, err := repo.exec(ctx, psql.Update("notice").SetMap(repo.values(n)).Where(sq.Eq{"id": n.ID, "school_id": n.SchoolID}))
	if err = affectedOrNotFound(cnt, err, notice.ErrNotFound, "updating notice"); err != nil {
		return notice.Notice{}, err
	}
	return n, nil
}

func (repo noticeRepository) DeleteNotice(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("notice").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, notice.ErrNotFound, "deleting notice")
}
