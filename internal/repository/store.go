package repository

import (
	"context"
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
)

// ActiveFilter narrows the set of active sessions returned by ListActive.
// Zero values mean "no filtering" for that dimension. Search is matched
// case-insensitively as a substring against tower, unit, occupant name,
// occupant id and plate, OR-combined across the fields. Tower and Role are
// exact matches. Results are ordered by entry time, newest first, unless
// OldestFirst is set.
type ActiveFilter struct {
	Search      string
	Tower       string
	Role        model.Role
	OldestFirst bool
}

// SessionUpdate carries the editable field set for an existing session.
// Entry time, exit time and the acknowledged flag are lifecycle state and
// move only through their dedicated operations.
type SessionUpdate struct {
	Tower        string
	Unit         *string
	OccupantName string
	OccupantID   string
	Role         model.Role
	Plate        string
}

// SessionStore is the durable store for access sessions. It owns
// persistence and filter evaluation only; lifecycle rules live in the
// service layer. Implementations must serialize concurrent writes to the
// same record so that, for example, only one of two racing exit
// registrations wins and the loser observes ErrAlreadyClosed.
type SessionStore interface {
	Create(ctx context.Context, s *model.AccessSession) error
	GetByID(ctx context.Context, id uint64) (*model.AccessSession, error)
	Update(ctx context.Context, id uint64, upd SessionUpdate) (*model.AccessSession, error)
	Delete(ctx context.Context, id uint64) (*model.AccessSession, error)
	RegisterExit(ctx context.Context, id uint64, now time.Time) (*model.AccessSession, error)
	Acknowledge(ctx context.Context, id uint64) (*model.AccessSession, error)
	ListActive(ctx context.Context, f ActiveFilter) ([]model.AccessSession, error)
	HasActivePlate(ctx context.Context, plate string, excludeID uint64) (bool, error)
}
