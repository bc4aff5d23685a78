// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package buffer implements the local buffer store: an arena of per-location
// append-only files that act as the write-ahead layer in front of archival.
//
// Each location owns one file under the arena root, plus the cross-location
// aggregate file (buffer.Aggregate). Appends to the same location are
// serialized by a per-location lock so no partial or interleaved lines ever
// land in a file; appends to different locations never contend.
//
// Only two mutations are legal: Append, and the prefix-bounded truncation
// performed by the consolidator after a successful merge. ResetPrefix removes
// exactly the snapshotted prefix, so lines appended while a consolidation
// cycle is in flight always survive into the next cycle.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Aggregate is the pseudo-location of the cross-location buffer file.
const Aggregate = "All"

// bufferExt is the filename extension of buffer files.
const bufferExt = ".log"

// ErrBadLocation reports a location identifier unusable as a file name.
var ErrBadLocation = errors.New("invalid location identifier")

// ErrShortBuffer reports a ResetPrefix length exceeding the buffer size.
// This indicates the caller's snapshot does not match the file, never a
// legal state transition.
var ErrShortBuffer = errors.New("reset length exceeds buffer size")

// Arena is a directory of per-location append-only buffer files.
// Safe for concurrent use.
type Arena struct {
	root string

	// mu guards the locks map only; file operations hold the per-location
	// lock, not mu.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewArena opens (and creates if necessary) an arena rooted at dir.
func NewArena(dir string) (*Arena, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create buffer root: %w", err)
	}
	return &Arena{
		root:  dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the arena root directory.
func (a *Arena) Root() string { return a.root }

// lockFor returns the mutex guarding one location's file, creating it on
// first use.
func (a *Arena) lockFor(location string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[location]
	if !ok {
		l = &sync.Mutex{}
		a.locks[location] = l
	}
	return l
}

// path validates the location identifier and returns its buffer file path.
func (a *Arena) path(location string) (string, error) {
	if location == "" ||
		strings.ContainsAny(location, "/\\") ||
		location == "." || location == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadLocation, location)
	}
	return filepath.Join(a.root, location+bufferExt), nil
}

// Append atomically appends p to the location's buffer file. The write is
// issued as a single syscall on an O_APPEND handle under the location lock,
// so concurrent appends to the same location serialize in arrival order and
// never interleave.
func (a *Arena) Append(ctx context.Context, location string, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	path, err := a.path(location)
	if err != nil {
		return err
	}

	l := a.lockFor(location)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open buffer %s: %w", location, err)
	}

	_, werr := f.Write(p)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append buffer %s: %w", location, werr)
	}
	if cerr != nil {
		return fmt.Errorf("close buffer %s: %w", location, cerr)
	}
	return nil
}

// Snapshot returns the current contents of the location's buffer file.
// A missing file reads as empty. The snapshot is taken under the location
// lock so it never observes a torn reset.
func (a *Arena) Snapshot(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := a.path(location)
	if err != nil {
		return nil, err
	}

	l := a.lockFor(location)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read buffer %s: %w", location, err)
	}
	return data, nil
}

// ResetPrefix removes exactly the first n bytes of the location's buffer
// file. Bytes appended after the caller's snapshot are preserved. The
// replacement is written to a temporary file and renamed into place, so
// readers observe either the full pre-reset content or the post-reset
// remainder, never a partial file.
func (a *Arena) ResetPrefix(ctx context.Context, location string, n int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative reset length %d", n)
	}
	if n == 0 {
		return nil
	}

	path, err := a.path(location)
	if err != nil {
		return err
	}

	l := a.lockFor(location)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read buffer %s: %w", location, err)
	}
	if int64(len(data)) < n {
		return fmt.Errorf("buffer %s: %w (%d < %d)", location, ErrShortBuffer, len(data), n)
	}

	tmp, err := os.CreateTemp(a.root, location+".reset-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", location, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data[n:])
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("write temp for %s: %w", location, werr)
		}
		return fmt.Errorf("close temp for %s: %w", location, cerr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap buffer %s: %w", location, err)
	}
	return nil
}

// Size returns the current byte length of the location's buffer file.
// A missing file has size zero.
func (a *Arena) Size(ctx context.Context, location string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := a.path(location)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat buffer %s: %w", location, err)
	}
	return info.Size(), nil
}

// Locations lists the locations that currently have a buffer file on disk,
// including the aggregate if present.
func (a *Arena) Locations() ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("list buffer root: %w", err)
	}

	var locations []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, bufferExt) {
			continue
		}
		locations = append(locations, strings.TrimSuffix(name, bufferExt))
	}
	return locations, nil
}
