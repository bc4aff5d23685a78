// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrUnknownUser reports a failed event attribution: the supplied user
// reference is not registered in the directory.
var ErrUnknownUser = errors.New("unknown user")

// User is a registered attribution identity. Authentication happens in an
// external collaborator; this directory only maps the opaque reference it
// issues to a durable ID for attribution.
type User struct {
	ID        string    `json:"id"`
	Ref       string    `json:"ref"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PutUser registers (or re-registers) an attribution identity and returns
// it. Re-registering an existing ref keeps its durable ID.
func (s *Store) PutUser(ctx context.Context, ref, name string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("user ref is required")
	}

	key := []byte(prefixUser + ref)
	var user User

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); verr != nil {
				return fmt.Errorf("unmarshal user: %w", verr)
			}
			user.Name = name
		case errors.Is(err, badger.ErrKeyNotFound):
			user = User{
				ID:        uuid.New().String(),
				Ref:       ref,
				Name:      name,
				CreatedAt: time.Now().UTC(),
			}
		default:
			return fmt.Errorf("lookup user %s: %w", ref, err)
		}

		data, merr := json.Marshal(&user)
		if merr != nil {
			return fmt.Errorf("marshal user: %w", merr)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("put user %s: %w", ref, err)
	}
	return &user, nil
}

// ResolveUser maps an opaque user reference to its durable identity.
// Returns ErrUnknownUser if the ref is not registered.
func (s *Store) ResolveUser(ctx context.Context, ref string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixUser + ref))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownUser, ref)
		}
		if err != nil {
			return fmt.Errorf("lookup user %s: %w", ref, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
