// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campwatch/campwatch/internal/buffer"
	"github.com/campwatch/campwatch/internal/cas"
	"github.com/campwatch/campwatch/internal/config"
	"github.com/campwatch/campwatch/internal/ledger"
	"github.com/campwatch/campwatch/internal/store"
)

type fixture struct {
	arena  *buffer.Arena
	blobs  cas.Store
	ledger *ledger.FileLedger
	store  *store.Store
	cfg    config.ArchiveConfig
}

func newFixture(t *testing.T, locations ...string) *fixture {
	t.Helper()

	arena, err := buffer.NewArena(t.TempDir())
	if err != nil {
		t.Fatalf("new arena: %v", err)
	}
	blobs, err := cas.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new cas: %v", err)
	}
	led, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.jsonl"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	st, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return &fixture{
		arena:  arena,
		blobs:  blobs,
		ledger: led,
		store:  st,
		cfg: config.ArchiveConfig{
			Root:          t.TempDir(),
			Locations:     locations,
			StageTimeout:  5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Millisecond,
		},
	}
}

func (f *fixture) consolidator(t *testing.T) *Consolidator {
	t.Helper()
	c, err := New(f.arena, f.blobs, f.ledger, f.store, f.cfg)
	if err != nil {
		t.Fatalf("new consolidator: %v", err)
	}
	return c
}

func TestRunFullCycle(t *testing.T) {
	f := newFixture(t, "Delhi")
	c := f.consolidator(t)
	ctx := context.Background()

	payload := []byte("Delhi,2026-03-14T09:00:00Z,10.0.0.1,203.0.113.7,ops@delhi.camp,gw,port_scan,probe,info,0.3000\n")
	if err := f.arena.Append(ctx, "Delhi", payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	res := c.Run(ctx, "Delhi")
	if res.Err != nil {
		t.Fatalf("cycle failed at %s: %v", res.Stage, res.Err)
	}
	if res.Stage != StageDone {
		t.Errorf("expected StageDone, got %s", res.Stage)
	}
	if res.CID != cas.CIDFor(payload) {
		t.Errorf("cid mismatch: %s", res.CID)
	}
	if res.Bytes != int64(len(payload)) {
		t.Errorf("expected %d bytes, got %d", len(payload), res.Bytes)
	}

	// Blob retrievable and intact.
	blob, err := f.blobs.Get(ctx, res.CID)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if !bytes.Equal(blob, payload) {
		t.Error("stored blob does not match snapshot")
	}

	// Snapshot merged into the central archive.
	merged, err := os.ReadFile(filepath.Join(f.cfg.Root, "Delhi.log"))
	if err != nil {
		t.Fatalf("read archive file: %v", err)
	}
	if !bytes.Equal(merged, payload) {
		t.Error("archive file does not match snapshot")
	}

	// Buffer released.
	size, err := f.arena.Size(ctx, "Delhi")
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != 0 {
		t.Errorf("buffer should be empty after cycle, has %d bytes", size)
	}

	// Ledger anchored and record saved.
	if entries := f.ledger.Entries(); len(entries) != 1 || entries[0].CID != res.CID {
		t.Errorf("expected one ledger entry for %s, got %+v", res.CID, entries)
	}
	records, err := f.store.ListArchiveRecords(ctx, 10)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 || records[0].LedgerRef != res.LedgerRef {
		t.Errorf("expected one archive record with ref %s, got %+v", res.LedgerRef, records)
	}
}

func TestRunEmptyBufferSkips(t *testing.T) {
	f := newFixture(t, "Delhi")
	c := f.consolidator(t)

	res := c.Run(context.Background(), "Delhi")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Skipped {
		t.Error("empty buffer should be skipped")
	}
	if res.CID != "" || res.LedgerRef != "" {
		t.Error("skipped cycle must not upload or anchor")
	}

	records, err := f.store.ListArchiveRecords(context.Background(), 10)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("skipped cycle must not write a record, found %d", len(records))
	}
}

// failingStore rejects a fixed number of Puts before delegating.
type failingStore struct {
	cas.Store
	failures int
}

func (s *failingStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if s.failures > 0 {
		s.failures--
		return "", errors.New("store unavailable")
	}
	return s.Store.Put(ctx, name, data)
}

func TestRunUploadFailureLeavesBuffer(t *testing.T) {
	f := newFixture(t, "Delhi")
	f.blobs = &failingStore{Store: f.blobs, failures: 100}
	c := f.consolidator(t)
	ctx := context.Background()

	payload := []byte("line one\n")
	if err := f.arena.Append(ctx, "Delhi", payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	res := c.Run(ctx, "Delhi")
	if !errors.Is(res.Err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", res.Err)
	}
	if res.Stage != StageUploading {
		t.Errorf("expected failure at uploading, got %s", res.Stage)
	}

	// Buffer untouched; the cycle is re-triggerable.
	snap, err := f.arena.Snapshot(ctx, "Delhi")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(snap, payload) {
		t.Error("failed cycle must leave the buffer intact")
	}
}

func TestRunUploadRetriesThenSucceeds(t *testing.T) {
	f := newFixture(t, "Delhi")
	f.blobs = &failingStore{Store: f.blobs, failures: 2}
	c := f.consolidator(t)
	ctx := context.Background()

	if err := f.arena.Append(ctx, "Delhi", []byte("line\n")); err != nil {
		t.Fatalf("append: %v", err)
	}

	res := c.Run(ctx, "Delhi")
	if res.Err != nil {
		t.Fatalf("expected retries to recover, got %v", res.Err)
	}
	if res.Stage != StageDone {
		t.Errorf("expected StageDone, got %s", res.Stage)
	}
}

// failingAnchorer always rejects.
type failingAnchorer struct{}

func (failingAnchorer) Anchor(ctx context.Context, cid, label string) (string, error) {
	return "", errors.New("chain unavailable")
}

func TestRunAnchorFailureLeavesBuffer(t *testing.T) {
	f := newFixture(t, "Delhi")
	c, err := New(f.arena, f.blobs, failingAnchorer{}, f.store, f.cfg)
	if err != nil {
		t.Fatalf("new consolidator: %v", err)
	}
	ctx := context.Background()

	payload := []byte("line\n")
	if err := f.arena.Append(ctx, "Delhi", payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	res := c.Run(ctx, "Delhi")
	if !errors.Is(res.Err, ErrAnchor) {
		t.Fatalf("expected ErrAnchor, got %v", res.Err)
	}
	if res.Stage != StageAnchoring {
		t.Errorf("expected failure at anchoring, got %s", res.Stage)
	}

	snap, err := f.arena.Snapshot(ctx, "Delhi")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(snap, payload) {
		t.Error("failed cycle must leave the buffer intact")
	}

	// The blob upload is idempotent; a retry converges on the same CID.
	retry, err := New(f.arena, f.blobs, f.ledger, f.store, f.cfg)
	if err != nil {
		t.Fatalf("new consolidator: %v", err)
	}
	res2 := retry.Run(ctx, "Delhi")
	if res2.Err != nil {
		t.Fatalf("retry failed: %v", res2.Err)
	}
	if res2.CID != cas.CIDFor(payload) {
		t.Errorf("retry produced unexpected CID %s", res2.CID)
	}
}

func TestConcurrentAppendSurvivesCycle(t *testing.T) {
	f := newFixture(t, "Delhi")
	ctx := context.Background()

	first := []byte("consolidated line\n")
	if err := f.arena.Append(ctx, "Delhi", first); err != nil {
		t.Fatalf("append: %v", err)
	}

	// gateStore parks the upload until released, so an append can race the
	// in-flight cycle.
	release := make(chan struct{})
	uploading := make(chan struct{})
	f.blobs = &gateStore{Store: f.blobs, uploading: uploading, release: release}
	c := f.consolidator(t)

	done := make(chan *CycleResult, 1)
	go func() { done <- c.Run(ctx, "Delhi") }()

	<-uploading
	late := []byte("late line\n")
	if err := f.arena.Append(ctx, "Delhi", late); err != nil {
		t.Fatalf("racing append: %v", err)
	}
	close(release)

	res := <-done
	if res.Err != nil {
		t.Fatalf("cycle failed: %v", res.Err)
	}

	// Only the consolidated prefix was released.
	snap, err := f.arena.Snapshot(ctx, "Delhi")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(snap, late) {
		t.Errorf("racing append lost: buffer holds %q", snap)
	}

	merged, err := os.ReadFile(filepath.Join(f.cfg.Root, "Delhi.log"))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.Equal(merged, first) {
		t.Errorf("archive holds %q, want consolidated prefix only", merged)
	}
}

// gateStore signals when Put starts and waits for release.
type gateStore struct {
	cas.Store
	uploading chan struct{}
	release   chan struct{}
	signaled  bool
}

func (s *gateStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if !s.signaled {
		s.signaled = true
		close(s.uploading)
		<-s.release
	}
	return s.Store.Put(ctx, name, data)
}

func TestRunInFlightRejected(t *testing.T) {
	f := newFixture(t, "Delhi")
	ctx := context.Background()
	if err := f.arena.Append(ctx, "Delhi", []byte("line\n")); err != nil {
		t.Fatalf("append: %v", err)
	}

	release := make(chan struct{})
	uploading := make(chan struct{})
	f.blobs = &gateStore{Store: f.blobs, uploading: uploading, release: release}
	c := f.consolidator(t)

	done := make(chan *CycleResult, 1)
	go func() { done <- c.Run(ctx, "Delhi") }()
	<-uploading

	dup := c.Run(ctx, "Delhi")
	if !errors.Is(dup.Err, ErrCycleInFlight) {
		t.Errorf("expected ErrCycleInFlight, got %v", dup.Err)
	}

	close(release)
	if res := <-done; res.Err != nil {
		t.Fatalf("original cycle failed: %v", res.Err)
	}

	// The location is runnable again once the cycle finishes.
	if res := c.Run(ctx, "Delhi"); res.Err != nil {
		t.Errorf("post-cycle run failed: %v", res.Err)
	}
}

func TestRunAll(t *testing.T) {
	f := newFixture(t, "Delhi", "Mumbai", "Bangalore")
	c := f.consolidator(t)
	ctx := context.Background()

	if err := f.arena.Append(ctx, "Delhi", []byte("delhi line\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.arena.Append(ctx, buffer.Aggregate, []byte("agg line\n")); err != nil {
		t.Fatalf("append: %v", err)
	}

	results := c.RunAll(ctx)
	if len(results) != 4 {
		t.Fatalf("expected 4 results (3 locations + aggregate), got %d", len(results))
	}

	byLoc := make(map[string]*CycleResult)
	for _, res := range results {
		byLoc[res.Location] = res
	}
	if res := byLoc["Delhi"]; res == nil || res.Err != nil || res.Skipped {
		t.Errorf("Delhi should archive, got %+v", res)
	}
	if res := byLoc["Mumbai"]; res == nil || !res.Skipped {
		t.Errorf("Mumbai should skip, got %+v", res)
	}
	if res := byLoc[buffer.Aggregate]; res == nil || res.Err != nil || res.Skipped {
		t.Errorf("aggregate should archive, got %+v", res)
	}

	// Order follows the configured location set, aggregate last.
	want := []string{"Delhi", "Mumbai", "Bangalore", buffer.Aggregate}
	for i, loc := range want {
		if results[i].Location != loc {
			t.Errorf("result %d: expected %s, got %s", i, loc, results[i].Location)
		}
	}
}

func TestCycleResultView(t *testing.T) {
	res := &CycleResult{
		Location: "Delhi",
		Stage:    StageAnchoring,
		Err:      errors.New("chain unavailable"),
	}
	v := res.View()
	if v.Stage != "anchoring" {
		t.Errorf("expected stage anchoring, got %s", v.Stage)
	}
	if v.Error != "chain unavailable" {
		t.Errorf("expected error text, got %q", v.Error)
	}
}
