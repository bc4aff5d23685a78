// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package blocklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campwatch/campwatch/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s.DB())
}

func TestBlockAndList(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	entry, created, err := r.Block(ctx, "203.0.113.7", "Delhi", "10.0.0.4", "ops@delhi.camp", now)
	if err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if !created {
		t.Error("first block should create the entry")
	}
	if entry.ID == "" {
		t.Error("expected a block ID")
	}
	if !entry.BlockedAt.Equal(now) {
		t.Errorf("expected blocked_at %v, got %v", now, entry.BlockedAt)
	}

	blocked, err := r.IsBlocked(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("is-blocked failed: %v", err)
	}
	if !blocked {
		t.Error("destination should be blocked")
	}

	entries, err := r.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestBlockDuplicateReturnsExisting(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	first, created, err := r.Block(ctx, "203.0.113.7", "Delhi", "10.0.0.4", "ops@delhi.camp", time.Now())
	if err != nil || !created {
		t.Fatalf("first block failed: created=%v err=%v", created, err)
	}

	second, created, err := r.Block(ctx, "203.0.113.7", "Mumbai", "10.0.1.9", "ops@mumbai.camp", time.Now())
	if err != nil {
		t.Fatalf("second block failed: %v", err)
	}
	if created {
		t.Error("second block of same destination must not create")
	}
	if second.ID != first.ID {
		t.Errorf("expected existing entry, got ID %s vs %s", second.ID, first.ID)
	}
	if second.Location != "Delhi" {
		t.Errorf("existing entry fields must win, got location %s", second.Location)
	}
}

func TestConcurrentBlockSingleWinner(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	ids := make(map[string]struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, created, err := r.Block(ctx, "198.51.100.23", "Delhi",
				fmt.Sprintf("10.0.0.%d", i), "ops@delhi.camp", time.Now())
			if err != nil {
				t.Errorf("block failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if created {
				createdCount++
			}
			ids[entry.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one creation, got %d", createdCount)
	}
	if len(ids) != 1 {
		t.Errorf("all callers should converge on one entry, saw %d", len(ids))
	}
}

func TestUnblock(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	entry, _, err := r.Block(ctx, "203.0.113.7", "Delhi", "10.0.0.4", "ops@delhi.camp", time.Now())
	if err != nil {
		t.Fatalf("block failed: %v", err)
	}

	if err := r.Unblock(ctx, entry.ID); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}

	blocked, err := r.IsBlocked(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("is-blocked failed: %v", err)
	}
	if blocked {
		t.Error("destination should be unblocked")
	}

	// Destination can be blocked again after unblock.
	_, created, err := r.Block(ctx, "203.0.113.7", "Mumbai", "10.0.1.9", "ops@mumbai.camp", time.Now())
	if err != nil {
		t.Fatalf("re-block failed: %v", err)
	}
	if !created {
		t.Error("re-block after unblock should create a fresh entry")
	}
}

func TestUnblockUnknownID(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Unblock(context.Background(), "b6f1c6f4-0000-4000-8000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListActiveOrdering(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, dest := range []string{"zebra.example", "alpha.example", "mid.example"} {
		if _, _, err := r.Block(ctx, dest, "Delhi", "10.0.0.4", "ops@delhi.camp", time.Now()); err != nil {
			t.Fatalf("block %s failed: %v", dest, err)
		}
	}

	entries, err := r.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"alpha.example", "mid.example", "zebra.example"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Destination != w {
			t.Errorf("entry %d: expected %s, got %s", i, w, entries[i].Destination)
		}
	}
}
