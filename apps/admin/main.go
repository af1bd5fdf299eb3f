package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/services/jobs"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()
	logger := di.NewLogger("ADMIN : ", conf)

	// set up DB
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	locker, closeLocker, err := di.NewLocker(ctx, conf, logger)
	if err != nil {
		_ = db.Close()
		logger.Fatal(fmt.Sprintf("setting up locker: %v", err), err)
	}

	svcs := di.NewServices(sqlxrepos.Repositories(db), di.Options{Locker: locker, Retention: conf.Cleanup})
	runner, err := jobs.NewRunner(conf.Cleanup.Spec, svcs.Schedules, locker, logger)
	if err != nil {
		_ = db.Close()
		logger.Fatal(fmt.Sprintf("setting up cleanup: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db: db,
		resetters: map[auth.Role]passwordResetter{
			auth.RoleSchool:  svcs.Schools,
			auth.RoleTeacher: svcs.Teachers,
			auth.RoleStudent: svcs.Students,
		},
		cleaner: runner,
		out:     os.Stdout,
	}
	err = cli.run(os.Args)

	_ = closeLocker()
	_ = db.Close()
	logger.Flush()

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
