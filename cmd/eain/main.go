// Package main runs the eain command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/eain/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if reportable(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}

// reportable reports whether err still needs printing. Commands render
// their own ExitErrors through the output formatter; anything else, such as
// a cobra flag error, has not been shown yet.
func reportable(err error) bool {
	if err == nil {
		return false
	}
	var exitErr *cli.ExitError
	return !errors.As(err, &exitErr)
}
