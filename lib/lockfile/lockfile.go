// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockfile serializes packer runs that share an output
// directory.
//
// The lock is an advisory, whole-file exclusive lock on a lock file
// inside the directory: flock(2) on unix, LockFileEx on Windows. The
// kernel drops it when the holding process exits, so a crashed build
// never leaves a stale lock behind. On platforms without either
// primitive, Acquire succeeds without locking.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileName is the lock file created inside a locked directory.
const FileName = ".packed.lock"

// pollInterval is how often Acquire retries a contended lock.
const pollInterval = 50 * time.Millisecond

// ErrContended reports that the lock is held by another process.
var ErrContended = errors.New("lock held by another process")

// Lock is a held directory lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive lock for a directory, waiting until it
// is free or ctx is done. The directory must exist.
func Acquire(ctx context.Context, lockPath string) (*Lock, error) {
	file, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		err := tryLock(file)
		if err == nil {
			return &Lock{file: file, path: lockPath}, nil
		}
		if !errors.Is(err, ErrContended) {
			file.Close()
			return nil, fmt.Errorf("locking %s: %w", lockPath, err)
		}
		select {
		case <-ctx.Done():
			file.Close()
			return nil, fmt.Errorf("waiting for lock %s: %w", lockPath, ctx.Err())
		case <-ticker.C:
		}
	}
}

// TryAcquire takes the lock without waiting. Returns an error wrapping
// ErrContended when another process holds it.
func TryAcquire(lockPath string) (*Lock, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lock, err := Acquire(ctx, lockPath)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("locking %s: %w", lockPath, ErrContended)
	}
	return lock, err
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The lock file itself stays in place: removing
// it would race with a process that opened it but has not locked it.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(unlockErr, closeErr)
}
