// Package alert implements the overstay classification rules for visitor
// sessions.  Everything here is a pure function of the session fields and an
// explicit reference instant, so the package holds no state and needs no
// clock: callers pass "now" in, which keeps evaluation deterministic and
// trivially testable.
package alert

import (
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
)

const (
	// Threshold is the maximum duration a visitor session may remain open
	// before it is considered overstayed.
	Threshold = 6 * time.Hour

	// NearLimitWindow is how long before the threshold a session starts
	// being reported as near its limit.
	NearLimitWindow = time.Hour
)

// Status describes where a session stands relative to the overstay
// threshold at a given instant.  Exceeded and NearLimit are mutually
// exclusive: a session near the limit still has time remaining.
type Status struct {
	Elapsed   time.Duration `json:"-"`
	Remaining time.Duration `json:"-"`
	Exceeded  bool          `json:"exceeded"`
	NearLimit bool          `json:"near_limit"`

	// Display fields, truncated toward zero to whole units.
	RemainingHours   int `json:"remaining_hours"`
	RemainingMinutes int `json:"remaining_minutes"`
	ExceededHours    int `json:"exceeded_hours"`
	ExceededMinutes  int `json:"exceeded_minutes"`
}

// Classify computes the overstay status for a session entered at enteredAt,
// observed at now.  A zero enteredAt or a reference instant earlier than the
// entry is treated as elapsed = 0 rather than an error: overstay display is
// advisory and must never fault on skewed input.
func Classify(enteredAt, now time.Time) Status {
	var elapsed time.Duration
	if !enteredAt.IsZero() && now.After(enteredAt) {
		elapsed = now.Sub(enteredAt)
	}

	remaining := Threshold - elapsed
	if remaining < 0 {
		remaining = 0
	}

	st := Status{
		Elapsed:   elapsed,
		Remaining: remaining,
		Exceeded:  elapsed >= Threshold,
	}
	st.NearLimit = remaining > 0 && remaining <= NearLimitWindow

	st.RemainingHours, st.RemainingMinutes = hoursMinutes(remaining)
	if st.Exceeded {
		st.ExceededHours, st.ExceededMinutes = hoursMinutes(elapsed - Threshold)
	}
	return st
}

// IsAlertCandidate reports whether the session should appear in the pending
// alert view at the given instant: an active, unacknowledged visitor session
// past the threshold.  The predicate is re-evaluated on every query; nothing
// is cached.
func IsAlertCandidate(s *model.AccessSession, now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Role != model.RoleVisitor || !s.Active() || s.AlertAcknowledged {
		return false
	}
	return Classify(s.EnteredAt, now).Exceeded
}

// hoursMinutes splits d into whole hours and whole minutes, truncating the
// fractional remainder toward zero.
func hoursMinutes(d time.Duration) (int, int) {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return h, m
}
