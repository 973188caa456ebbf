package main

import "github.com/vibecheck/vibecheck/internal/errs"

// exitCodeFor maps a command error to the process exit code spec.md §6
// assigns per-verb; cobra's Execute only ever returns the last command's
// error so one mapping point suffices.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return errs.ExitCode(err)
}
