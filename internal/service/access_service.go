// Package service implements the access-session lifecycle and the read-only
// query/aggregation views. It owns validation and the business rules around
// entry, exit, alerting and acknowledgment; persistence is delegated to a
// SessionStore and overstay math to the alert package.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/alert"
	"github.com/iliyamo/vehicle-access-registry/internal/model"
	"github.com/iliyamo/vehicle-access-registry/internal/queue"
	"github.com/iliyamo/vehicle-access-registry/internal/repository"
)

// ValidationError reports the required fields that were missing or invalid
// on a create/update request. It is caller input feedback, not a fault, and
// is never logged as one.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// EventPublisher pushes gate events to the message broker. Publishing is
// best-effort: a broker outage must never block an entry or exit at the
// physical gate, so the service logs publish failures and moves on.
type EventPublisher interface {
	PublishAccessEvent(ctx context.Context, ev queue.AccessEvent) error
}

// SessionInput is the caller-supplied field set for creating or updating a
// session. Unit is optional; every other field is required.
type SessionInput struct {
	Tower        string `json:"tower"`
	Unit         string `json:"unit"`
	OccupantName string `json:"occupant_name"`
	OccupantID   string `json:"occupant_id"`
	Role         string `json:"role"`
	Plate        string `json:"plate"`
}

// SessionView is a session decorated with its overstay status. Overstay is
// populated only for active visitor sessions, the only case where the
// threshold applies.
type SessionView struct {
	model.AccessSession
	Overstay *alert.Status `json:"overstay,omitempty"`
}

// Stats summarizes the current active set. All counts derive from one
// store snapshot so the numbers shown together never skew against each
// other.
type Stats struct {
	ActiveTotal     int `json:"active_total"`
	ActiveResidents int `json:"active_residents"`
	ActiveVisitors  int `json:"active_visitors"`
	PendingAlerts   int `json:"pending_alerts"`
	Towers          int `json:"towers"`
}

// AccessService wires the session store, the alert rules and the event
// publisher together.
type AccessService struct {
	store     repository.SessionStore
	publisher EventPublisher
}

// NewAccessService returns an AccessService. publisher may be nil, in which
// case gate events are simply not emitted.
func NewAccessService(store repository.SessionStore, publisher EventPublisher) *AccessService {
	if store == nil {
		panic("nil store passed to NewAccessService")
	}
	return &AccessService{store: store, publisher: publisher}
}

// normalize trims all fields, uppercases the plate and validates the
// required set. It returns a ValidationError naming every offending field
// rather than stopping at the first.
func normalize(in SessionInput) (SessionInput, error) {
	in.Tower = strings.TrimSpace(in.Tower)
	in.Unit = strings.TrimSpace(in.Unit)
	in.OccupantName = strings.TrimSpace(in.OccupantName)
	in.OccupantID = strings.TrimSpace(in.OccupantID)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))

	var missing []string
	if in.Tower == "" {
		missing = append(missing, "tower")
	}
	if in.OccupantName == "" {
		missing = append(missing, "occupant_name")
	}
	if in.OccupantID == "" {
		missing = append(missing, "occupant_id")
	}
	if !model.Role(in.Role).Valid() {
		missing = append(missing, "role")
	}
	if in.Plate == "" {
		missing = append(missing, "plate")
	}
	if len(missing) > 0 {
		return in, &ValidationError{Fields: missing}
	}
	return in, nil
}

func unitPtr(unit string) *string {
	if unit == "" {
		return nil
	}
	return &unit
}

// CreateSession opens a new presence interval for a vehicle entering the
// complex. The entry timestamp is the provided instant; a plate that
// already has an open session is rejected with ErrPlateActive.
func (s *AccessService) CreateSession(ctx context.Context, in SessionInput, now time.Time) (*model.AccessSession, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	taken, err := s.store.HasActivePlate(ctx, in.Plate, 0)
	if err != nil {
		return nil, fmt.Errorf("check active plate: %w", err)
	}
	if taken {
		return nil, repository.ErrPlateActive
	}
	session := &model.AccessSession{
		Tower:        in.Tower,
		Unit:         unitPtr(in.Unit),
		OccupantName: in.OccupantName,
		OccupantID:   in.OccupantID,
		Role:         model.Role(in.Role),
		Plate:        in.Plate,
		EnteredAt:    now.UTC(),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.publish(ctx, queue.EventVehicleEntered, session, now)
	return session, nil
}

// UpdateSession corrects the recorded data of an existing session. The same
// validation as creation applies; lifecycle state is untouched. If the
// session is still open, the new plate must not collide with another open
// session.
func (s *AccessService) UpdateSession(ctx context.Context, id uint64, in SessionInput) (*model.AccessSession, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Active() {
		taken, err := s.store.HasActivePlate(ctx, in.Plate, id)
		if err != nil {
			return nil, fmt.Errorf("check active plate: %w", err)
		}
		if taken {
			return nil, repository.ErrPlateActive
		}
	}
	return s.store.Update(ctx, id, repository.SessionUpdate{
		Tower:        in.Tower,
		Unit:         unitPtr(in.Unit),
		OccupantName: in.OccupantName,
		OccupantID:   in.OccupantID,
		Role:         model.Role(in.Role),
		Plate:        in.Plate,
	})
}

// DeleteSession removes the session outright and returns the deleted
// record. There is no tombstone; removal is final.
func (s *AccessService) DeleteSession(ctx context.Context, id uint64) (*model.AccessSession, error) {
	return s.store.Delete(ctx, id)
}

// GetSession returns a single session by id.
func (s *AccessService) GetSession(ctx context.Context, id uint64) (*model.AccessSession, error) {
	return s.store.GetByID(ctx, id)
}

// RegisterExit closes the session at the provided instant. Closing an
// already-closed session fails with ErrAlreadyClosed: the first exit
// timestamp is never moved.
func (s *AccessService) RegisterExit(ctx context.Context, id uint64, now time.Time) (*model.AccessSession, error) {
	session, err := s.store.RegisterExit(ctx, id, now)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventVehicleExited, session, now)
	return session, nil
}

// AcknowledgeAlert marks an overstay alert as seen. The flag is one-way and
// the operation is idempotent: acknowledging an already-acknowledged or
// already-closed session is accepted silently.
func (s *AccessService) AcknowledgeAlert(ctx context.Context, id uint64, now time.Time) (*model.AccessSession, error) {
	session, err := s.store.Acknowledge(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventAlertAcknowledged, session, now)
	return session, nil
}

// ListActive returns the active sessions matching the filter, newest entry
// first, each decorated with its overstay status when the threshold
// applies.
func (s *AccessService) ListActive(ctx context.Context, f repository.ActiveFilter, now time.Time) ([]SessionView, error) {
	f.OldestFirst = false
	sessions, err := s.store.ListActive(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, s.view(&sessions[i], now))
	}
	return views, nil
}

// ListPendingAlerts returns every active, unacknowledged visitor session
// past the overstay threshold, ordered by entry time ascending so the
// longest-overstayed vehicle appears first. The predicate is evaluated
// fresh on every call; nothing is cached between polls.
func (s *AccessService) ListPendingAlerts(ctx context.Context, now time.Time) ([]SessionView, error) {
	sessions, err := s.store.ListActive(ctx, repository.ActiveFilter{
		Role:        model.RoleVisitor,
		OldestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list visitor sessions: %w", err)
	}
	views := make([]SessionView, 0)
	for i := range sessions {
		if alert.IsAlertCandidate(&sessions[i], now) {
			views = append(views, s.view(&sessions[i], now))
		}
	}
	return views, nil
}

// GetStats computes the dashboard counters from a single snapshot of the
// active set.
func (s *AccessService) GetStats(ctx context.Context, now time.Time) (Stats, error) {
	sessions, err := s.store.ListActive(ctx, repository.ActiveFilter{})
	if err != nil {
		return Stats{}, fmt.Errorf("list active sessions: %w", err)
	}
	var st Stats
	towers := make(map[string]struct{})
	for i := range sessions {
		sess := &sessions[i]
		st.ActiveTotal++
		towers[sess.Tower] = struct{}{}
		switch sess.Role {
		case model.RoleResident:
			st.ActiveResidents++
		case model.RoleVisitor:
			st.ActiveVisitors++
		}
		if alert.IsAlertCandidate(sess, now) {
			st.PendingAlerts++
		}
	}
	st.Towers = len(towers)
	return st, nil
}

// view decorates a session with its overstay status when the session is an
// active visitor.
func (s *AccessService) view(sess *model.AccessSession, now time.Time) SessionView {
	v := SessionView{AccessSession: *sess}
	if sess.Role == model.RoleVisitor && sess.Active() {
		st := alert.Classify(sess.EnteredAt, now)
		v.Overstay = &st
	}
	return v
}

// publish emits a gate event when a publisher is configured. Failures are
// logged and dropped; the write that triggered the event has already been
// committed.
func (s *AccessService) publish(ctx context.Context, eventType string, sess *model.AccessSession, now time.Time) {
	if s.publisher == nil {
		return
	}
	ev := queue.AccessEvent{
		Type:         eventType,
		SessionID:    sess.ID,
		Tower:        sess.Tower,
		Unit:         sess.Unit,
		OccupantName: sess.OccupantName,
		OccupantID:   sess.OccupantID,
		Role:         string(sess.Role),
		Plate:        sess.Plate,
		EnteredAt:    sess.EnteredAt.UTC().Format(time.RFC3339),
		OccurredAt:   now.UTC().Format(time.RFC3339),
	}
	if sess.ExitedAt != nil {
		ev.ExitedAt = sess.ExitedAt.UTC().Format(time.RFC3339)
	}
	if err := s.publisher.PublishAccessEvent(ctx, ev); err != nil {
		log.Printf("access-service: publish %s event for session %d failed: %v", eventType, sess.ID, err)
	}
}
