// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package cas

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	data := []byte("Delhi,2026-03-14T09:26:53Z,a,b,c,d,e,f,info,0.5000\n")

	cid, err := s.Put(ctx, "Delhi.log", data)
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.Get(ctx, cid)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: %q vs %q", got, data)
	}
}

func TestPutDeterministicCID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	data := []byte("same bytes")

	cid1, err := s.Put(ctx, "a", data)
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	cid2, err := s.Put(ctx, "b", data)
	if err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	if cid1 != cid2 {
		t.Errorf("identical content must yield identical CIDs: %s vs %s", cid1, cid2)
	}
	if cid1 != CIDFor(data) {
		t.Errorf("CID should match CIDFor: %s vs %s", cid1, CIDFor(data))
	}
}

func TestGetUnknownCID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), CIDFor([]byte("never stored")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMalformedCID(t *testing.T) {
	s := newTestStore(t)

	for _, cid := range []string{"", "bafk", "nonsense", "bafkzzzz"} {
		if _, err := s.Get(context.Background(), cid); !errors.Is(err, ErrBadCID) {
			t.Errorf("cid %q: expected ErrBadCID, got %v", cid, err)
		}
	}
}

func TestGetDetectsTampering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cid, err := s.Put(ctx, "x", []byte("original"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Corrupt the stored blob behind the store's back.
	if err := os.WriteFile(filepath.Join(s.root, cid), []byte("tampered"), 0o640); err != nil {
		t.Fatalf("tamper failed: %v", err)
	}

	if _, err := s.Get(ctx, cid); !errors.Is(err, ErrCorrupted) {
		t.Errorf("expected ErrCorrupted, got %v", err)
	}
}

func TestStat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cid, err := s.Put(ctx, "x", []byte("content"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	ok, err := s.Stat(ctx, cid)
	if err != nil || !ok {
		t.Errorf("expected blob to exist, ok=%v err=%v", ok, err)
	}

	ok, err = s.Stat(ctx, CIDFor([]byte("missing")))
	if err != nil || ok {
		t.Errorf("expected blob to be absent, ok=%v err=%v", ok, err)
	}
}

func TestBreakerStorePassthrough(t *testing.T) {
	s := NewBreakerStore(newTestStore(t))
	ctx := context.Background()
	data := []byte("through the breaker")

	cid, err := s.Put(ctx, "x", data)
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := s.Get(ctx, cid)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch through breaker")
	}
}
