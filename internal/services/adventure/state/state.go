// Package state stores active adventure sessions.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/questforge/questforge/internal/services/adventure/quest"
)

// ErrNotFound indicates no active adventure exists under the ID.
var ErrNotFound = errors.New("adventure not found")

// SessionTTL bounds how long an abandoned adventure stays resumable.
const SessionTTL = 24 * time.Hour

// Store holds active adventure state keyed by adventure ID.
type Store interface {
	Put(ctx context.Context, adventureID string, session quest.State) error
	Get(ctx context.Context, adventureID string) (quest.State, error)
	Delete(ctx context.Context, adventureID string) error
}
