// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command packed compresses asset trees into linkable objects and
// generates the Go code that decodes them. See "packed --help".
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/bureau-foundation/packed/cmd/packed/commands"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.Root().Execute(ctx, args); err != nil {
		// Commands that print their own report (like verify) return an
		// error carrying the exit code. Don't print a redundant
		// "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			return coder.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
