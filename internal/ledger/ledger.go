// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package ledger provides the append-only anchor ledger. Each anchor records
// a (CID, label) pair; entries are hash-chained so any rewrite of history
// invalidates every later entry. The ledger supports no update or delete.
package ledger

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Anchorer records immutable (CID, label) pairs.
type Anchorer interface {
	// Anchor appends the pair and returns a stable anchor reference.
	// Anchoring an already-anchored (cid, label) pair is an idempotent
	// no-op returning the existing reference.
	Anchor(ctx context.Context, cid, label string) (string, error)
}

// ErrChainBroken reports a ledger whose hash chain does not verify.
var ErrChainBroken = errors.New("ledger hash chain broken")

// genesisHash seeds the chain before the first entry.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one anchored (CID, label) pair. Hash covers all other fields
// including PrevHash, forming the tamper-evidence chain; Hash doubles as
// the anchor reference handed back to callers.
type Entry struct {
	Seq        int64     `json:"seq"`
	CID        string    `json:"cid"`
	Label      string    `json:"label"`
	AnchoredAt time.Time `json:"anchored_at"`
	PrevHash   string    `json:"prev_hash"`
	Hash       string    `json:"hash"`
}

// computeHash derives the entry hash over every field except Hash itself.
func computeHash(e *Entry) string {
	payload := fmt.Sprintf("%d|%s|%s|%d|%s",
		e.Seq, e.CID, e.Label, e.AnchoredAt.UnixNano(), e.PrevHash)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// FileLedger is a JSON-lines file-backed Anchorer. The full chain is kept
// in memory for duplicate detection and verification; the file is the
// durable copy, appended synchronously under the ledger lock.
type FileLedger struct {
	path string

	mu      sync.Mutex
	entries []Entry

	// byPair indexes existing anchors by "cid|label" for idempotency.
	byPair map[string]string
}

// Open loads (or creates) a ledger at path and verifies its chain.
func Open(path string) (*FileLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	l := &FileLedger{
		path:   path,
		byPair: make(map[string]string),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parse ledger entry: %w", err)
		}
		l.entries = append(l.entries, e)
		l.byPair[e.CID+"|"+e.Label] = e.Hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if err := l.verifyLocked(); err != nil {
		return nil, err
	}
	return l, nil
}

// Anchor appends a (cid, label) pair and returns its anchor reference.
func (l *FileLedger) Anchor(ctx context.Context, cid, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cid == "" || label == "" {
		return "", fmt.Errorf("anchor requires cid and label")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Duplicate anchor: tolerated as a no-op, not an error.
	if ref, ok := l.byPair[cid+"|"+label]; ok {
		return ref, nil
	}

	prev := genesisHash
	if n := len(l.entries); n > 0 {
		prev = l.entries[n-1].Hash
	}

	e := Entry{
		Seq:        int64(len(l.entries)) + 1,
		CID:        cid,
		Label:      label,
		AnchoredAt: time.Now().UTC(),
		PrevHash:   prev,
	}
	e.Hash = computeHash(&e)

	if err := l.appendLocked(&e); err != nil {
		return "", err
	}

	l.entries = append(l.entries, e)
	l.byPair[cid+"|"+label] = e.Hash
	return e.Hash, nil
}

// appendLocked writes one entry to the file with fsync. Must hold mu.
func (l *FileLedger) appendLocked(e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	_, werr := f.Write(data)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append ledger: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("sync ledger: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("close ledger: %w", cerr)
	}
	return nil
}

// Entries returns a copy of the chain in anchor order.
func (l *FileLedger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Verify walks the chain and reports the first break, if any.
func (l *FileLedger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyLocked()
}

// verifyLocked checks hashes and back-links. Must hold mu.
func (l *FileLedger) verifyLocked() error {
	prev := genesisHash
	for i := range l.entries {
		e := &l.entries[i]
		if e.PrevHash != prev {
			return fmt.Errorf("%w: entry %d back-link mismatch", ErrChainBroken, e.Seq)
		}
		if computeHash(e) != e.Hash {
			return fmt.Errorf("%w: entry %d hash mismatch", ErrChainBroken, e.Seq)
		}
		prev = e.Hash
	}
	return nil
}
