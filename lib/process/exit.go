// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is an error that selects its own exit status. Commands that
// have already printed their outcome return one to exit without the
// generic "error:" line.
type ExitCoder interface {
	error
	ExitCode() int
}

// Fatal reports err and exits. This is the standard entrypoint error
// handler for main().
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes "error: err" to w unless err is an ExitCoder, and
// returns the exit status.
func Report(w io.Writer, err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
