// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package cas provides the content-addressed store client used by the
// archival consolidator. A blob's content identifier (CID) is derived from
// its bytes, so identical content always yields the same CID and retrieval
// is verifiable against the identifier.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cidPrefix marks campwatch content identifiers.
const cidPrefix = "bafk"

// Store uploads and retrieves content-addressed blobs.
type Store interface {
	// Put stores data under a derived CID and returns it. Storing identical
	// bytes twice returns the same CID; Put is idempotent.
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Get retrieves the blob for cid, verifying its content against the
	// identifier before returning.
	Get(ctx context.Context, cid string) ([]byte, error)

	// Stat reports whether a blob exists for cid.
	Stat(ctx context.Context, cid string) (bool, error)
}

// Errors returned by Store implementations.
var (
	ErrNotFound  = errors.New("blob not found")
	ErrCorrupted = errors.New("blob content does not match CID")
	ErrBadCID    = errors.New("malformed CID")
)

// CIDFor derives the content identifier for a blob.
func CIDFor(data []byte) string {
	sum := sha256.Sum256(data)
	return cidPrefix + hex.EncodeToString(sum[:])
}

// validCID checks the shape of a CID without touching storage.
func validCID(cid string) bool {
	if !strings.HasPrefix(cid, cidPrefix) {
		return false
	}
	digest := strings.TrimPrefix(cid, cidPrefix)
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

// FSStore is a filesystem-backed Store keeping one file per CID under a
// root directory. Writes go to a temporary file and are renamed into place,
// so a blob is either fully present or absent.
type FSStore struct {
	root string
}

// NewFSStore opens (and creates if necessary) a store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cas root: %w", err)
	}
	return &FSStore{root: dir}, nil
}

// Put stores data and returns its CID. The name parameter is advisory
// labeling for operators; content addressing ignores it.
func (s *FSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cid := CIDFor(data)
	path := filepath.Join(s.root, cid)

	// Content-addressed: an existing blob with this CID is the same bytes.
	if _, err := os.Stat(path); err == nil {
		return cid, nil
	}

	tmp, err := os.CreateTemp(s.root, "put-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return "", fmt.Errorf("write blob %s: %w", name, werr)
		}
		return "", fmt.Errorf("close blob %s: %w", name, cerr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store blob %s: %w", name, err)
	}
	return cid, nil
}

// Get retrieves and verifies the blob for cid.
func (s *FSStore) Get(ctx context.Context, cid string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validCID(cid) {
		return nil, fmt.Errorf("%w: %q", ErrBadCID, cid)
	}

	data, err := os.ReadFile(filepath.Join(s.root, cid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", cid, err)
	}

	if CIDFor(data) != cid {
		return nil, fmt.Errorf("%w: %s", ErrCorrupted, cid)
	}
	return data, nil
}

// Stat reports whether a blob exists for cid.
func (s *FSStore) Stat(ctx context.Context, cid string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !validCID(cid) {
		return false, fmt.Errorf("%w: %q", ErrBadCID, cid)
	}

	_, err := os.Stat(filepath.Join(s.root, cid))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", cid, err)
	}
	return true, nil
}
