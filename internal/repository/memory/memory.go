// Package memory provides an in-memory SessionStore used by tests and
// local development without a MySQL instance. It mirrors the filter and
// write-serialization semantics of the SQL repository: the exit write is
// conditional on the session still being open, and the search filter is the
// same case-insensitive OR-substring match.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
	"github.com/iliyamo/vehicle-access-registry/internal/repository"
)

// SessionStore is a mutex-guarded map of sessions keyed by id.
type SessionStore struct {
	mu       sync.Mutex
	nextID   uint64
	sessions map[uint64]*model.AccessSession
}

// NewSessionStore returns an empty in-memory store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*model.AccessSession)}
}

var _ repository.SessionStore = (*SessionStore)(nil)

func (m *SessionStore) Create(_ context.Context, s *model.AccessSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *SessionStore) GetByID(_ context.Context, id uint64) (*model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *SessionStore) Update(_ context.Context, id uint64, upd repository.SessionUpdate) (*model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	s.Tower = upd.Tower
	s.Unit = upd.Unit
	s.OccupantName = upd.OccupantName
	s.OccupantID = upd.OccupantID
	s.Role = upd.Role
	s.Plate = upd.Plate
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	return &cp, nil
}

func (m *SessionStore) Delete(_ context.Context, id uint64) (*model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

func (m *SessionStore) RegisterExit(_ context.Context, id uint64, now time.Time) (*model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if s.ExitedAt != nil {
		return nil, repository.ErrAlreadyClosed
	}
	t := now.UTC()
	s.ExitedAt = &t
	s.UpdatedAt = t
	cp := *s
	return &cp, nil
}

func (m *SessionStore) Acknowledge(_ context.Context, id uint64) (*model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	s.AlertAcknowledged = true
	cp := *s
	return &cp, nil
}

func (m *SessionStore) ListActive(_ context.Context, f repository.ActiveFilter) ([]model.AccessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AccessSession, 0)
	for _, s := range m.sessions {
		if s.ExitedAt != nil {
			continue
		}
		if f.Tower != "" && s.Tower != f.Tower {
			continue
		}
		if f.Role != "" && s.Role != f.Role {
			continue
		}
		if f.Search != "" && !matchesSearch(s, f.Search) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.OldestFirst {
			return out[i].EnteredAt.Before(out[j].EnteredAt)
		}
		return out[i].EnteredAt.After(out[j].EnteredAt)
	})
	return out, nil
}

func matchesSearch(s *model.AccessSession, search string) bool {
	needle := strings.ToLower(search)
	unit := ""
	if s.Unit != nil {
		unit = *s.Unit
	}
	for _, field := range []string{s.Tower, unit, s.OccupantName, s.OccupantID, s.Plate} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (m *SessionStore) HasActivePlate(_ context.Context, plate string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID != excludeID && s.ExitedAt == nil && s.Plate == plate {
			return true, nil
		}
	}
	return false, nil
}
