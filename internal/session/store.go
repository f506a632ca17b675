package session

import (
	"context"
	"errors"

	"propalyst/internal/model"
)

// ErrNotFound is returned by Get for an unknown session ID.
var ErrNotFound = errors.New("session: not found")

// Store persists conversation state between turns. Implementations must be
// safe for concurrent use.
type Store interface {
	// GetOrCreate returns the state for sessionID, creating a fresh one if
	// none exists yet.
	GetOrCreate(ctx context.Context, sessionID string) (*model.ConversationState, error)

	// Get returns the state for sessionID or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*model.ConversationState, error)

	// Put stores the state, replacing any previous version.
	Put(ctx context.Context, state *model.ConversationState) error

	// Delete removes the session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}
