// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package archive runs the consolidation pipeline: snapshot a location
// buffer, upload it to the content-addressed store, anchor the returned CID
// in the ledger, merge the snapshot into the central archive, and release
// the consolidated prefix from the buffer.
//
// The release is prefix-bounded, so events appended while a cycle is in
// flight survive it untouched. A failure at any stage leaves the buffer
// exactly as it was; the cycle is safe to re-trigger.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campwatch/campwatch/internal/buffer"
	"github.com/campwatch/campwatch/internal/cas"
	"github.com/campwatch/campwatch/internal/config"
	"github.com/campwatch/campwatch/internal/ledger"
	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/metrics"
	"github.com/campwatch/campwatch/internal/models"
	"github.com/campwatch/campwatch/internal/store"
)

// Stage identifies where in the pipeline a cycle is, or where it stopped.
type Stage int

// Pipeline stages in execution order.
const (
	StageIdle Stage = iota
	StageSnapshotting
	StageUploading
	StageAnchoring
	StageMerging
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:         "idle",
	StageSnapshotting: "snapshotting",
	StageUploading:    "uploading",
	StageAnchoring:    "anchoring",
	StageMerging:      "merging",
	StageDone:         "done",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Stage-scoped failures. Each wraps the underlying cause; all are
// retryable by re-triggering the cycle.
var (
	ErrUpload = errors.New("content store upload failed")
	ErrAnchor = errors.New("ledger anchor failed")
	ErrMerge  = errors.New("central archive merge failed")
)

// ErrCycleInFlight is returned when a location already has a running cycle.
var ErrCycleInFlight = errors.New("consolidation cycle already in flight")

// CycleResult reports the outcome of one location's cycle. Stage is the
// stage reached: StageDone on success, the failing stage otherwise.
type CycleResult struct {
	Location  string
	Stage     Stage
	Skipped   bool
	CID       string
	LedgerRef string
	Bytes     int64
	Err       error
}

// View renders the result for API responses.
func (r *CycleResult) View() models.CycleResultView {
	v := models.CycleResultView{
		Location:  r.Location,
		Stage:     r.Stage.String(),
		Skipped:   r.Skipped,
		CID:       r.CID,
		LedgerRef: r.LedgerRef,
		Bytes:     r.Bytes,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

// Consolidator drives consolidation cycles over the buffer arena.
type Consolidator struct {
	arena    *buffer.Arena
	blobs    cas.Store
	anchorer ledger.Anchorer
	records  *store.Store
	cfg      config.ArchiveConfig

	mu       sync.Mutex
	inFlight map[string]bool
}

// New builds a consolidator. The archive root is created eagerly so merge
// failures surface at startup rather than mid-cycle.
func New(arena *buffer.Arena, blobs cas.Store, anchorer ledger.Anchorer, records *store.Store, cfg config.ArchiveConfig) (*Consolidator, error) {
	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &Consolidator{
		arena:    arena,
		blobs:    blobs,
		anchorer: anchorer,
		records:  records,
		cfg:      cfg,
		inFlight: make(map[string]bool),
	}, nil
}

// RunAll consolidates every configured location plus the aggregate buffer,
// concurrently. Results are returned in input order; per-location failures
// never abort sibling cycles.
func (c *Consolidator) RunAll(ctx context.Context) []*CycleResult {
	locations := append(append([]string{}, c.cfg.Locations...), buffer.Aggregate)
	results := make([]*CycleResult, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			results[i] = c.Run(ctx, loc)
		}(i, loc)
	}
	wg.Wait()
	return results
}

// Run consolidates a single location. A location with a cycle already in
// flight returns a failed result wrapping ErrCycleInFlight.
func (c *Consolidator) Run(ctx context.Context, location string) *CycleResult {
	res := &CycleResult{Location: location, Stage: StageIdle}

	if !c.acquire(location) {
		res.Stage = StageFailed
		res.Err = fmt.Errorf("%w: %s", ErrCycleInFlight, location)
		return res
	}
	defer c.release(location)

	start := time.Now()
	c.run(ctx, location, res)

	switch {
	case res.Err != nil:
		metrics.RecordCycle(location, "failed", time.Since(start))
		metrics.RecordStageFailure(location, res.Stage.String())
		logging.Err(res.Err).
			Str("location", location).
			Str("stage", res.Stage.String()).
			Msg("consolidation cycle failed")
	case res.Skipped:
		metrics.RecordCycle(location, "skipped", time.Since(start))
	default:
		metrics.RecordCycle(location, "archived", time.Since(start))
		metrics.RecordArchivedBytes(location, res.Bytes)
		logging.Info().
			Str("location", location).
			Str("cid", res.CID).
			Str("ledger_ref", res.LedgerRef).
			Int64("bytes", res.Bytes).
			Dur("elapsed", time.Since(start)).
			Msg("consolidation cycle complete")
	}
	return res
}

func (c *Consolidator) run(ctx context.Context, location string, res *CycleResult) {
	res.Stage = StageSnapshotting
	snapshot, err := c.arena.Snapshot(ctx, location)
	if err != nil {
		res.Err = fmt.Errorf("snapshot %s: %w", location, err)
		return
	}
	if len(snapshot) == 0 {
		res.Stage, res.Skipped = StageDone, true
		return
	}
	res.Bytes = int64(len(snapshot))

	res.Stage = StageUploading
	cid, err := c.withRetry(ctx, func(stageCtx context.Context) (string, error) {
		return c.blobs.Put(stageCtx, location+".log", snapshot)
	})
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrUpload, err)
		return
	}
	res.CID = cid

	res.Stage = StageAnchoring
	ref, err := c.withRetry(ctx, func(stageCtx context.Context) (string, error) {
		return c.anchorer.Anchor(stageCtx, cid, location)
	})
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrAnchor, err)
		return
	}
	res.LedgerRef = ref

	res.Stage = StageMerging
	if err := c.merge(ctx, location, snapshot); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrMerge, err)
		return
	}

	rec := &models.ArchiveRecord{
		ID:        uuid.New().String(),
		Location:  location,
		CID:       cid,
		LedgerRef: ref,
		MergedAt:  time.Now().UTC(),
		Bytes:     res.Bytes,
	}
	if err := c.records.SaveArchiveRecord(ctx, rec); err != nil {
		// The archive itself succeeded; losing the record is logged, not
		// surfaced as a cycle failure.
		logging.Err(err).
			Str("location", location).
			Str("cid", cid).
			Msg("archive record write failed")
	}

	res.Stage = StageDone
}

// merge appends the snapshot to the central archive file and releases the
// consolidated prefix from the buffer. Appends that raced the cycle stay.
func (c *Consolidator) merge(ctx context.Context, location string, snapshot []byte) error {
	path := filepath.Join(c.cfg.Root, location+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	if _, err := f.Write(snapshot); err != nil {
		f.Close()
		return fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}

	if err := c.arena.ResetPrefix(ctx, location, int64(len(snapshot))); err != nil {
		return fmt.Errorf("release buffer prefix: %w", err)
	}
	if size, err := c.arena.Size(ctx, location); err == nil {
		metrics.SetBufferBytes(location, size)
	}
	return nil
}

// withRetry runs op under the stage timeout, retrying with doubling backoff
// up to the configured attempt count.
func (c *Consolidator) withRetry(ctx context.Context, op func(context.Context) (string, error)) (string, error) {
	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := c.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		stageCtx, cancel := context.WithTimeout(ctx, c.cfg.StageTimeout)
		out, err := op(stageCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (c *Consolidator) acquire(location string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[location] {
		return false
	}
	c.inFlight[location] = true
	return true
}

func (c *Consolidator) release(location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, location)
}
