package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/schedule"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type (
	passwordResetter interface {
		ResetPassword(ctx context.Context, email, pwd string) error
	}

	cleanupRunner interface {
		RunCleanup(ctx context.Context) (schedule.CleanupResult, bool, error)
	}

	commandLine struct {
		db        *sqlx.DB
		resetters map[auth.Role]passwordResetter
		cleaner   cleanupRunner
		out       io.Writer
	}
)

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                              - run a goose command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  resetpassword -role school|teacher|student -email EMAIL - reset an account's password")
	fmt.Fprintln(cli.out, "  cleanup                                             - complete ended schedules and purge the old ones")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordRole := resetPasswordCmd.String("role", "", "The account's role: school, teacher or student.")
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		role, ok := auth.ParseRole(*resetPasswordRole)
		if !ok || *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(role, *resetPasswordEmail, string(pwd))

	case "cleanup":
		return cli.cleanup()

	default:
		cli.printUsage()
		return errHelp
	}
}
