package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/services/jobs"
	"github.com/trezcool/darasa/services/lock"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func setup(t *testing.T) (*commandLine, database.Repositories, *bytes.Buffer) {
	t.Helper()

	conf := core.NewTestConfig()
	repos := inmemdb.Open().Repositories()
	locker := locksvc.NewLocal()
	svcs := di.NewServices(repos, di.Options{Locker: locker, Retention: conf.Cleanup})
	runner, err := jobs.NewRunner(conf.Cleanup.Spec, svcs.Schedules, locker, logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf))
	require.NoError(t, err)

	var out bytes.Buffer
	return &commandLine{
		db: &sqlx.DB{},
		resetters: map[auth.Role]passwordResetter{
			auth.RoleSchool:  svcs.Schools,
			auth.RoleTeacher: svcs.Teachers,
			auth.RoleStudent: svcs.Students,
		},
		cleaner: runner,
		out:     &out,
	}, repos, &out
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) {
	t.Helper()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	defer func() { migrateFunc = database.RunMigrations }()
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "grades", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, tt)
		})
	}

	t.Run("no database", func(t *testing.T) {
		cli.db = nil
		runCLI(t, cli, cliTest{args: []string{"migrate", "up"}, wantErr: errNoDatabase})
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repos, out := setup(t)
	ctx := context.Background()

	svc := school.NewService(repos.Schools)
	sch, err := svc.Register(ctx, school.NewSchool{SchoolName: "Wima", Email: "wima@test.cd", OwnerName: "Owner", Password: "Old!Passw0rd"}, "")
	require.NoError(t, err)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"resetpassword", "-role", "admin", "-email", sch.Email}, extra: extra{pwd: "lol"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-role", "school", "-email", sch.Email}, wantErr: errHelp},
		{name: "school not found", args: []string{"resetpassword", "-role", "school", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: school.ErrNotFound},
		{name: "teacher not found", args: []string{"resetpassword", "-role", "teacher", "-email", sch.Email}, extra: extra{pwd: "lol"}, wantErrStr: "teacher not found"},
		{name: "reset", args: []string{"resetpassword", "-role", "school", "-email", "WIMA@test.cd"}, extra: extra{pwd: "New!Passw0rd"}},
	}
	readPassword := readPasswordFunc
	defer func() { readPasswordFunc = readPassword }()
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, tt)
		})
	}

	_, err = svc.Authenticate(ctx, sch.Email, "New!Passw0rd")
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "password of SCHOOL WIMA@test.cd updated")
}

func Test_commandLine_cleanup(t *testing.T) {
	cli, repos, out := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, s := range []schedule.Schedule{
		{SchoolID: "s", TeacherID: "t", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: schedule.StatusActive},
		{SchoolID: "s", TeacherID: "t", StartTime: now.Add(-50 * 24 * time.Hour), EndTime: now.Add(-49 * 24 * time.Hour), Status: schedule.StatusCompleted},
	} {
		_, err := repos.Schedules.CreateSchedule(ctx, s)
		require.NoError(t, err)
	}

	runCLI(t, cli, cliTest{args: []string{"cleanup"}})
	assert.Contains(t, out.String(), "completed: 1\ndeleted: 1\n")
}
