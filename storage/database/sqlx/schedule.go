package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/schedule"
)

var scheduleColumns = []string{"id", "school_id", "teacher_id", "subject_id", "class_id", "start_time", "end_time", "status", "created_at"}

type scheduleRow struct {
	ID        string    `db:"id"`
	SchoolID  string    `db:"school_id"`
	TeacherID string    `db:"teacher_id"`
	SubjectID string    `db:"subject_id"`
	ClassID   string    `db:"class_id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type scheduleRepository struct {
	executor
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{executor{db: db}}
}

func (repo scheduleRepository) values(s schedule.Schedule) map[string]interface{} {
	return map[string]interface{}{
		"teacher_id": s.TeacherID,
		"subject_id": s.SubjectID,
		"class_id":   s.ClassID,
		"start_time": s.StartTime.UTC(),
		"end_time":   s.EndTime.UTC(),
		"status":     s.Status.String(),
	}
}

func (repo scheduleRepository) fromRow(r scheduleRow) schedule.Schedule {
	return schedule.Schedule{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		TeacherID: r.TeacherID,
		SubjectID: r.SubjectID,
		ClassID:   r.ClassID,
		StartTime: utc(r.StartTime),
		EndTime:   utc(r.EndTime),
		Status:    schedule.Status(r.Status),
		CreatedAt: utc(r.CreatedAt),
	}
}

func (repo scheduleRepository) list(ctx context.Context, where sq.Sqlizer) ([]schedule.Schedule, error) {
	var rows []scheduleRow
	if err := repo.selectAll(ctx, &rows, psql.Select(scheduleColumns...).From("schedule").Where(where).OrderBy("start_time")); err != nil {
		return nil, errors.Wrap(err, "listing schedules")
	}
	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, repo.fromRow(r))
	}
	return schedules, nil
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	s.ID = uuid.New().String()
	vals := repo.values(s)
	vals["id"] = s.ID
	vals["school_id"] = s.SchoolID
	vals["created_at"] = s.CreatedAt.UTC()
	if _, err := repo.exec(ctx, psql.Insert("schedule").SetMap(vals)); err != nil {
		return schedule.Schedule{}, trapViolation(err, schedule.ErrOverlap, "inserting schedule")
	}
	return s, nil
}

func (repo scheduleRepository) GetSchedule(ctx context.Context, schoolID, id string) (schedule.Schedule, error) {
	var r scheduleRow
	q := psql.Select(scheduleColumns...).From("schedule").Where(sq.Eq{"id": id, "school_id": schoolID})
	if err := repo.get(ctx, &r, q); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "finding schedule")
	}
	return repo.fromRow(r), nil
}

func (repo scheduleRepository) ListSchedulesByClass(ctx context.Context, schoolID, classID string) ([]schedule.Schedule, error) {
	return repo.list(ctx, sq.Eq{"school_id": schoolID, "class_id": classID})
}

func (repo scheduleRepository) ListActiveSchedulesByTeacher(ctx context.Context, teacherID, excludedID string) ([]schedule.Schedule, error) {
	where := sq.And{sq.Eq{"teacher_id": teacherID, "status": schedule.StatusActive.String()}}
	if excludedID != "" {
		where = append(where, sq.NotEq{"id": excludedID})
	}
	return repo.list(ctx, where)
}

func (repo scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	n, err := repo.exec(ctx, psql.Update("schedule").SetMap(repo.values(s)).Where(sq.Eq{"id": s.ID, "school_id": s.SchoolID}))
	if err != nil {
		return schedule.Schedule{}, trapViolation(err, schedule.ErrOverlap, "updating schedule")
	}
	if err = affectedOrNotFound(n, nil, schedule.ErrNotFound, "updating schedule"); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (repo scheduleRepository) DeleteSchedule(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("schedule").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, schedule.ErrNotFound, "deleting schedule")
}

func (repo scheduleRepository) CompleteEndedSchedules(ctx context.Context, now time.Time) (int64, error) {
	n, err := repo.exec(ctx, psql.Update("schedule").
		Set("status", schedule.StatusCompleted.String()).
		Where(sq.Eq{"status": schedule.StatusActive.String()}).
		Where(sq.Lt{"end_time": now.UTC()}))
	return n, errors.Wrap(err, "completing schedules")
}

func (repo scheduleRepository) PurgeCompletedSchedules(ctx context.Context, before time.Time) (int64, error) {
	n, err := repo.exec(ctx, psql.Delete("schedule").
		Where(sq.Eq{"status": schedule.StatusCompleted.String()}).
		Where(sq.Lt{"end_time": before.UTC()}))
	return n, errors.Wrap(err, "purging schedules")
}

var examColumns = []string{
	"id", "school_id", "class_id", "subject_id", "exam_type", "exam_date", "start_time", "end_time",
	"duration", "created_by_id", "created_by_role", "created_at",
}

type examRow struct {
	ID            string      `db:"id"`
	SchoolID      string      `db:"school_id"`
	ClassID       string      `db:"class_id"`
	SubjectID     string      `db:"subject_id"`
	ExamType      string      `db:"exam_type"`
	ExamDate      time.Time   `db:"exam_date"`
	StartTime     string      `db:"start_time"`
	EndTime       null.String `db:"end_time"`
	Duration      int         `db:"duration"`
	CreatedByID   string      `db:"created_by_id"`
	CreatedByRole string      `db:"created_by_role"`
	CreatedAt     time.Time   `db:"created_at"`
}

type examRepository struct {
	executor
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{executor{db: db}}
}

func (repo examRepository) values(e exam.Examination) map[string]interface{} {
	return map[string]interface{}{
		"class_id":   e.ClassID,
		"subject_id": e.SubjectID,
		"exam_type":  string(e.ExamType),
		"exam_date":  e.ExamDate.UTC().Format("2006-01-02"),
		"start_time": e.StartTime,
		"end_time":   nullString(e.EndTime),
		"duration":   e.Duration,
	}
}

func (repo examRepository) fromRow(r examRow) exam.Examination {
	y, m, d := r.ExamDate.Date()
	return exam.Examination{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		ClassID:   r.ClassID,
		SubjectID: r.SubjectID,
		ExamType:  exam.Type(r.ExamType),
		ExamDate:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		StartTime: r.StartTime,
		EndTime:   r.EndTime.String,
		Duration:  r.Duration,
		CreatedBy: auth.Author{ID: r.CreatedByID, Role: auth.Role(r.CreatedByRole)},
		CreatedAt: utc(r.CreatedAt),
	}
}

func (repo examRepository) CreateExamination(ctx context.Context, e exam.Examination) (exam.Examination, error) {
	e.ID = uuid.New().String()
	vals := repo.values(e)
	vals["id"] = e.ID
	vals["school_id"] = e.SchoolID
	vals["created_by_id"] = e.CreatedBy.ID
	vals["created_by_role"] = e.CreatedBy.Role.String()
	vals["created_at"] = e.CreatedAt.UTC()
	if _, err := repo.exec(ctx, psql.Insert("examination").SetMap(vals)); err != nil {
		return exam.Examination{}, errors.Wrap(err, "inserting examination")
	}
	return e, nil
}

func (repo examRepository) GetExamination(ctx context.Context, schoolID, id string) (exam.Examination, error) {
	var r examRow
	q := psql.Select(examColumns...).From("examination").Where(sq.Eq{"id": id, "school_id": schoolID})
	if err := repo.get(ctx, &r, q); err != nil {
		return exam.Examination{}, trapNoRowsErr(err, exam.ErrNotFound, "finding examination")
	}
	return repo.fromRow(r), nil
}

func (repo examRepository) ListExaminations(ctx context.Context, schoolID string, classIDs []string) ([]exam.Examination, error) {
	if classIDs != nil && len(classIDs) == 0 {
		return []exam.Examination{}, nil
	}
	where := sq.And{sq.Eq{"school_id": schoolID}}
	if classIDs != nil {
		where = append(where, sq.Eq{"class_id": classIDs})
	}

	var rows []examRow
	q := psql.Select(examColumns...).From("examination").Where(where).OrderBy("exam_date", "start_time")
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing examinations")
	}
	exams := make([]exam.Examination, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, repo.fromRow(r))
	}
	return exams, nil
}

func (repo examRepository) UpdateExamination(ctx context.Context, e exam.Examination) (exam.Examination, error) {
	n, err := repo.exec(ctx, psql.Update("examination").SetMap(repo.values(e)).Where(sq.Eq{"id": e.ID, "school_id": e.SchoolID}))
	if err = affectedOrNotFound(n, err, exam.ErrNotFound, "updating examination"); err != nil {
		return exam.Examination{}, err
	}
	return e, nil
}

func (repo examRepository) DeleteExamination(ctx context.Context, schoolID, id string) error {
	n, err := repo.exec(ctx, psql.Delete("examination").Where(sq.Eq{"id": id, "school_id": schoolID}))
	return affectedOrNotFound(n, err, exam.ErrNotFound, "deleting examination")
}
