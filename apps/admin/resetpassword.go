package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
)

func (cli *commandLine) resetPassword(role auth.Role, email, pwd string) error {
	resetter, ok := cli.resetters[role]
	if !ok {
		return errors.Errorf("cannot reset %s passwords", role)
	}
	if err := resetter.ResetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s %s updated\n", role, email)
	return nil
}
