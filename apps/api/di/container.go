// Package di assembles the domain services from a storage backend.
package di

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/services/lock"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

type (
	Options struct {
		Locker    core.Locker
		Metrics   core.Metrics
		Retention core.CleanupConfig
	}

	Services struct {
		Schools     *school.Service
		Classes     *class.Service
		Subjects    *subject.Service
		Teachers    *teacher.Service
		Students    *student.Service
		Schedules   *schedule.Service
		Exams       *exam.Service
		Attendances *attendance.Service
		Notices     *notice.Service
	}
)

// NewServices wires the domain services together. Cross-entity checks go straight to the repositories.
func NewServices(repos database.Repositories, opts Options) *Services {
	if opts.Locker == nil {
		opts.Locker = locksvc.NewLocal()
	}
	if opts.Metrics == nil {
		opts.Metrics = core.NopMetrics{}
	}
	classExists := core.LookupFunc(repos.Classes.ClassExists)
	subjectExists := core.LookupFunc(repos.Subjects.SubjectExists)
	teacherExists := core.LookupFunc(repos.Teachers.TeacherExists)

	svcs := &Services{
		Schools:  school.NewService(repos.Schools),
		Subjects: subject.NewService(repos.Subjects),
		Teachers: teacher.NewService(repos.Teachers, classExists, subjectExists),
		Students: student.NewService(repos.Students, classExists),
		Notices:  notice.NewService(repos.Notices),
	}
	svcs.Classes = class.NewService(repos.Classes, teacherExists, svcs.Students)
	svcs.Schedules = schedule.NewService(repos.Schedules, schedule.Options{
		Teachers:  teacherExists,
		Classes:   classExists,
		Subjects:  subjectExists,
		Locker:    opts.Locker,
		Metrics:   opts.Metrics,
		Retention: opts.Retention.Retention,
	})
	svcs.Exams = exam.NewService(repos.Exams, exam.Options{
		Classes:  classExists,
		Subjects: subjectExists,
		Staff:    svcs.Teachers,
		Roster:   svcs.Students,
	})
	svcs.Attendances = attendance.NewService(repos.Attendances, attendance.Options{
		Classes: svcs.Classes,
		Roster:  svcs.Students,
		Locker:  opts.Locker,
		Metrics: opts.Metrics,
	})
	return svcs
}

// NewLocker returns a redis locker when redis is configured, shared by all instances, otherwise a local one.
// The returned close func releases the redis client, if any.
func NewLocker(ctx context.Context, conf *core.Config, logger core.Logger) (core.TryLocker, func() error, error) {
	if conf.Redis.Address == "" {
		return locksvc.NewLocal(), func() error { return nil }, nil
	}
	client := locksvc.NewRedisClient(conf.Redis)
	locker := locksvc.NewRedis(client, conf.Redis.LockTTL, func(err error) {
		logger.Error("releasing lock", err)
	})
	if !locker.Healthy(ctx) {
		_ = client.Close()
		return nil, nil, errors.Errorf("redis unreachable at %s", conf.Redis.Address)
	}
	return locker, client.Close, nil
}

// NewLogger returns a rollbar logger printing to stdout with `prefix`.
func NewLogger(prefix string, conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
}

// NewValidator returns a validator translating its messages to english.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	school.InitValidators(validate)
	teacher.InitValidators(validate)
	student.InitValidators(validate)
	return validate, translator
}

// OpenRepositories returns the in-memory repositories when configured so,
// otherwise the postgres ones, creating and migrating the database first.
// The returned close func releases the database, if any.
func OpenRepositories(ctx context.Context, conf *core.Config) (database.Repositories, func() error, error) {
	if conf.InMemStorage {
		return inmemdb.Open().Repositories(), func() error { return nil }, nil
	}
	db, err := SetUpDB(ctx, conf)
	if err != nil {
		return database.Repositories{}, nil, err
	}
	return sqlxrepos.Repositories(db), db.Close, nil
}

func SetUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return db, nil
}
