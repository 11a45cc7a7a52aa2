// Package store persists one bingo board per browser session.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dailybingo/internal/bingo"
	"dailybingo/internal/types"
)

var (
	// ErrNotFound means no usable snapshot exists for the session. Corrupt
	// and expired snapshots are reported this way too.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidSessionID rejects ids that are not UUIDs.
	ErrInvalidSessionID = errors.New("invalid session ID format")
)

// Store loads and saves session snapshots.
type Store interface {
	Load(ctx context.Context, sessionID string) (*bingo.State, error)
	Save(ctx context.Context, sessionID string, state bingo.State) error
	// Cleanup removes snapshots not written within maxAge and returns how
	// many were removed.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// ValidateSessionID returns ErrInvalidSessionID unless id is a canonical UUID.
func ValidateSessionID(id string) error {
	if len(id) != 36 {
		return ErrInvalidSessionID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidSessionID
	}
	return nil
}

func encode(state bingo.State) ([]byte, error) {
	return json.MarshalIndent(state.Snapshot(), "", "  ")
}

func decode(data []byte) (*bingo.State, error) {
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", bingo.ErrMalformedSnapshot, err)
	}
	state, err := bingo.FromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	return &state, nil
}
