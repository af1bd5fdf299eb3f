package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

const cleanupLockKey = "jobs:schedule-cleanup"

var nowFunc = time.Now // mockable

// Cleaner runs one schedule cleanup pass.
type Cleaner interface {
	Cleanup(ctx context.Context, now time.Time) (schedule.CleanupResult, error)
}

// Runner fires the periodic jobs on a UTC cron.
type Runner struct {
	cron    *cron.Cron
	cleaner Cleaner
	locker  core.TryLocker
	logger  core.Logger
	timeout time.Duration
}

// NewRunner registers the cleanup job at `spec` (standard 5-field cron syntax, UTC).
// Instances sharing `locker` do not run the cleanup concurrently.
func NewRunner(spec string, cleaner Cleaner, locker core.TryLocker, logger core.Logger) (*Runner, error) {
	r := &Runner{
		cleaner: cleaner,
		locker:  locker,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
	cl := cronLogger{logger}
	r.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := r.cron.AddFunc(spec, r.cleanupTick); err != nil {
		return nil, errors.Wrapf(err, "scheduling cleanup at %q", spec)
	}
	return r, nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for running jobs, up to `ctx`.
func (r *Runner) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next returns when the cleanup job fires next.
func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Runner) cleanupTick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	// errors are logged; the next tick tries again
	_, _, _ = r.RunCleanup(ctx)
}

// RunCleanup runs one cleanup pass unless another instance is running one.
// `ran` is false when the pass was skipped.
func (r *Runner) RunCleanup(ctx context.Context) (res schedule.CleanupResult, ran bool, err error) {
	unlock, ok, err := r.locker.TryLock(ctx, cleanupLockKey)
	if err != nil {
		r.logger.Error("schedule cleanup: taking lock", err)
		return res, false, err
	}
	if !ok {
		r.logger.Info("schedule cleanup: skipped, already running elsewhere")
		return res, false, nil
	}
	defer unlock()

	res, err = r.cleaner.Cleanup(ctx, nowFunc())
	if err != nil {
		r.logger.Error("schedule cleanup failed", err, map[string]interface{}{
			"completed": res.Completed,
		})
		return res, true, err
	}
	r.logger.Info("schedule cleanup done", map[string]interface{}{
		"completed": res.Completed,
		"deleted":   res.Deleted,
	})
	return res, true, nil
}

// cronLogger reports cron's own events through core.Logger.
type cronLogger struct {
	logger core.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{err}, keysAndValues...)...)
}
