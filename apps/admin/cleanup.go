package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) cleanup() error {
	res, ran, err := cli.cleaner.RunCleanup(context.Background())
	if err != nil {
		return err
	}
	if !ran {
		fmt.Fprintln(cli.out, "cleanup already running elsewhere, skipped")
		return nil
	}
	fmt.Fprintf(cli.out, "completed: %d\ndeleted: %d\n", res.Completed, res.Deleted)
	return nil
}
