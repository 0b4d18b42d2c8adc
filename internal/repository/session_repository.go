package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
)

// SessionRepo is the MySQL-backed SessionStore. All statements are
// parameterized and all timestamps are stored in UTC (the connection is
// opened with parseTime=true and loc=UTC).
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

var _ SessionStore = (*SessionRepo)(nil)

const sessionColumns = `id, tower, unit, occupant_name, occupant_id, role, plate,
	entered_at, exited_at, alert_acknowledged, created_at, updated_at`

// scanSession reads one access_sessions row. It works for both *sql.Row and
// *sql.Rows via the shared Scan signature.
func scanSession(scan func(dest ...any) error) (*model.AccessSession, error) {
	var s model.AccessSession
	var unit sql.NullString
	var exitedAt sql.NullTime
	err := scan(
		&s.ID, &s.Tower, &unit, &s.OccupantName, &s.OccupantID, &s.Role, &s.Plate,
		&s.EnteredAt, &exitedAt, &s.AlertAcknowledged, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if unit.Valid {
		u := unit.String
		s.Unit = &u
	}
	if exitedAt.Valid {
		t := exitedAt.Time.UTC()
		s.ExitedAt = &t
	}
	s.EnteredAt = s.EnteredAt.UTC()
	return &s, nil
}

// Create inserts a new session and populates the generated id and
// bookkeeping timestamps on the provided record.
func (r *SessionRepo) Create(ctx context.Context, s *model.AccessSession) error {
	const q = `INSERT INTO access_sessions
		(tower, unit, occupant_name, occupant_id, role, plate, entered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	var unit any
	if s.Unit != nil {
		unit = *s.Unit
	}
	result, err := r.db.ExecContext(ctx, q,
		s.Tower, unit, s.OccupantName, s.OccupantID, s.Role, s.Plate, s.EnteredAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Query the row back to pick up created_at/updated_at defaults.
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID returns the session with the given id or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.AccessSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM access_sessions WHERE id = ?`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the editable field set of an existing session and returns
// the updated record. Lifecycle columns (entered_at, exited_at,
// alert_acknowledged) are untouched.
func (r *SessionRepo) Update(ctx context.Context, id uint64, upd SessionUpdate) (*model.AccessSession, error) {
	const q = `UPDATE access_sessions
		SET tower = ?, unit = ?, occupant_name = ?, occupant_id = ?, role = ?, plate = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	var unit any
	if upd.Unit != nil {
		unit = *upd.Unit
	}
	if _, err := r.db.ExecContext(ctx, q,
		upd.Tower, unit, upd.OccupantName, upd.OccupantID, upd.Role, upd.Plate, id); err != nil {
		return nil, err
	}
	// MySQL reports 0 affected rows both for a missing id and for an update
	// that changed nothing, so existence is confirmed by reading the row.
	return r.GetByID(ctx, id)
}

// Delete removes the session and returns the record as it was at deletion
// time, or ErrSessionNotFound.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) (*model.AccessSession, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// RegisterExit closes the session by setting exited_at, but only while the
// column is still NULL. The conditional write is what serializes two racing
// exit registrations: exactly one statement matches the row, the other sees
// zero affected rows and reports ErrAlreadyClosed.
func (r *SessionRepo) RegisterExit(ctx context.Context, id uint64, now time.Time) (*model.AccessSession, error) {
	const q = `UPDATE access_sessions
		SET exited_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND exited_at IS NULL`
	result, err := r.db.ExecContext(ctx, q, now.UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish "no such session" from "already closed".
		s, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.ExitedAt != nil {
			return nil, ErrAlreadyClosed
		}
		return nil, ErrSessionNotFound
	}
	return r.GetByID(ctx, id)
}

// Acknowledge sets the one-way alert_acknowledged flag. Acknowledging an
// already-acknowledged session is accepted silently; the flag never resets.
func (r *SessionRepo) Acknowledge(ctx context.Context, id uint64) (*model.AccessSession, error) {
	// Confirm existence first: an UPDATE that flips nothing affects 0 rows
	// and would be indistinguishable from a missing id.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	const q = `UPDATE access_sessions
		SET alert_acknowledged = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND alert_acknowledged = 0`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListActive returns sessions whose vehicle is still inside, narrowed by
// the filter. The substring search is evaluated in SQL with LOWER/LIKE over
// the five searchable columns, mirroring the conjunctive contract: search,
// tower and role conditions are ANDed together.
func (r *SessionRepo) ListActive(ctx context.Context, f ActiveFilter) ([]model.AccessSession, error) {
	where := []string{"exited_at IS NULL"}
	args := []any{}

	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, `(
			LOWER(tower) LIKE ? OR
			LOWER(COALESCE(unit, '')) LIKE ? OR
			LOWER(occupant_name) LIKE ? OR
			LOWER(occupant_id) LIKE ? OR
			LOWER(plate) LIKE ?)`)
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat, pat, pat, pat)
	}
	if f.Tower != "" {
		where = append(where, "tower = ?")
		args = append(args, f.Tower)
	}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}

	order := "entered_at DESC"
	if f.OldestFirst {
		order = "entered_at ASC"
	}

	q := `SELECT ` + sessionColumns + `
		FROM access_sessions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AccessSession, 0)
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasActivePlate reports whether another open session already carries the
// given plate. excludeID skips the session being updated so a record can
// keep its own plate.
func (r *SessionRepo) HasActivePlate(ctx context.Context, plate string, excludeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM access_sessions
		WHERE plate = ? AND exited_at IS NULL AND id <> ?`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, plate, excludeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
