// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package scan

import (
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/packed/lib/packerr"
)

func TestScanRejectsSpecialFiles(t *testing.T) {
	root := t.TempDir()
	if err := unix.Mkfifo(filepath.Join(root, "pipe"), 0644); err != nil {
		t.Skipf("Mkfifo: %v", err)
	}

	_, err := Scan(root, Filter{})
	if !packerr.Is(err, packerr.KindScan) {
		t.Fatalf("Scan with a FIFO = %v, want scan error", err)
	}

	if _, err := Scan(root, Filter{Exclude: []string{"pipe"}}); err != nil {
		t.Errorf("an excluded FIFO should be ignored: %v", err)
	}
}
