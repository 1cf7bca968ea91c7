// Package main provides the entry point for the cfdcheck bottleneck estimator CLI.
package main

import (
	"errors"
	"os"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

func main() {
	err := Execute()
	if err != nil && !errors.Is(err, errInsufficient) {
		printError("%v", err)
	}
	_ = logging.Close()
	os.Exit(exitCode(err))
}
