package alert

import (
	"testing"
	"time"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		elapsed       time.Duration
		wantExceeded  bool
		wantNearLimit bool
		wantRemH      int
		wantRemM      int
		wantExcH      int
		wantExcM      int
	}{
		{
			name:     "just entered",
			elapsed:  0,
			wantRemH: 6, wantRemM: 0,
		},
		{
			name:     "halfway",
			elapsed:  3 * time.Hour,
			wantRemH: 3, wantRemM: 0,
		},
		{
			name:          "inside near-limit window",
			elapsed:       5*time.Hour + 30*time.Minute,
			wantNearLimit: true,
			wantRemH:      0, wantRemM: 30,
		},
		{
			name:          "exactly one hour remaining",
			elapsed:       5 * time.Hour,
			wantNearLimit: true,
			wantRemH:      1, wantRemM: 0,
		},
		{
			name:          "one minute before threshold",
			elapsed:       5*time.Hour + 59*time.Minute,
			wantNearLimit: true,
			wantRemH:      0, wantRemM: 1,
		},
		{
			name:         "exactly at threshold",
			elapsed:      6 * time.Hour,
			wantExceeded: true,
		},
		{
			name:         "one minute past threshold",
			elapsed:      6*time.Hour + time.Minute,
			wantExceeded: true,
			wantExcH:     0, wantExcM: 1,
		},
		{
			name:         "well past threshold",
			elapsed:      8*time.Hour + 45*time.Minute,
			wantExceeded: true,
			wantExcH:     2, wantExcM: 45,
		},
		{
			name:         "fractional minutes truncate toward zero",
			elapsed:      7*time.Hour + 30*time.Minute + 59*time.Second,
			wantExceeded: true,
			wantExcH:     1, wantExcM: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Classify(base, base.Add(tt.elapsed))
			if st.Exceeded != tt.wantExceeded {
				t.Errorf("Exceeded = %v, want %v", st.Exceeded, tt.wantExceeded)
			}
			if st.NearLimit != tt.wantNearLimit {
				t.Errorf("NearLimit = %v, want %v", st.NearLimit, tt.wantNearLimit)
			}
			if st.Exceeded && st.NearLimit {
				t.Error("Exceeded and NearLimit must be mutually exclusive")
			}
			if st.RemainingHours != tt.wantRemH || st.RemainingMinutes != tt.wantRemM {
				t.Errorf("remaining = %dh%dm, want %dh%dm",
					st.RemainingHours, st.RemainingMinutes, tt.wantRemH, tt.wantRemM)
			}
			if st.ExceededHours != tt.wantExcH || st.ExceededMinutes != tt.wantExcM {
				t.Errorf("exceeded by = %dh%dm, want %dh%dm",
					st.ExceededHours, st.ExceededMinutes, tt.wantExcH, tt.wantExcM)
			}
		})
	}
}

func TestClassifyClampsSkewedClock(t *testing.T) {
	// A reference instant earlier than the entry must read as elapsed = 0,
	// never a negative duration.
	st := Classify(base, base.Add(-30*time.Minute))
	if st.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0", st.Elapsed)
	}
	if st.Remaining != Threshold {
		t.Errorf("Remaining = %v, want %v", st.Remaining, Threshold)
	}
	if st.Exceeded || st.NearLimit {
		t.Errorf("unexpected flags: exceeded=%v nearLimit=%v", st.Exceeded, st.NearLimit)
	}
}

func TestClassifyZeroEntryTreatedAsJustEntered(t *testing.T) {
	st := Classify(time.Time{}, base)
	if st.Exceeded {
		t.Error("zero entry time must not be classified as exceeded")
	}
	if st.Remaining != Threshold {
		t.Errorf("Remaining = %v, want %v", st.Remaining, Threshold)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	// Advancing the observation instant never increases remaining and never
	// decreases elapsed.
	prev := Classify(base, base)
	for step := time.Minute; step <= 9*time.Hour; step += 13 * time.Minute {
		cur := Classify(base, base.Add(step))
		if cur.Remaining > prev.Remaining {
			t.Fatalf("remaining increased from %v to %v at step %v", prev.Remaining, cur.Remaining, step)
		}
		if cur.Elapsed < prev.Elapsed {
			t.Fatalf("elapsed decreased from %v to %v at step %v", prev.Elapsed, cur.Elapsed, step)
		}
		prev = cur
	}
}

func TestIsAlertCandidate(t *testing.T) {
	exited := base.Add(2 * time.Hour)

	tests := []struct {
		name    string
		session *model.AccessSession
		now     time.Time
		want    bool
	}{
		{
			name: "visitor one minute past threshold",
			session: &model.AccessSession{
				Role:      model.RoleVisitor,
				EnteredAt: base,
			},
			now:  base.Add(6*time.Hour + time.Minute),
			want: true,
		},
		{
			name: "visitor one minute before threshold",
			session: &model.AccessSession{
				Role:      model.RoleVisitor,
				EnteredAt: base,
			},
			now:  base.Add(5*time.Hour + 59*time.Minute),
			want: false,
		},
		{
			name: "resident never alerts regardless of elapsed time",
			session: &model.AccessSession{
				Role:      model.RoleResident,
				EnteredAt: base,
			},
			now:  base.Add(100 * time.Hour),
			want: false,
		},
		{
			name: "closed visitor session",
			session: &model.AccessSession{
				Role:      model.RoleVisitor,
				EnteredAt: base,
				ExitedAt:  &exited,
			},
			now:  base.Add(10 * time.Hour),
			want: false,
		},
		{
			name: "acknowledged overstay",
			session: &model.AccessSession{
				Role:              model.RoleVisitor,
				EnteredAt:         base,
				AlertAcknowledged: true,
			},
			now:  base.Add(10 * time.Hour),
			want: false,
		},
		{
			name:    "nil session",
			session: nil,
			now:     base,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAlertCandidate(tt.session, tt.now); got != tt.want {
				t.Errorf("IsAlertCandidate() = %v, want %v", got, tt.want)
			}
			// The predicate is pure: a second evaluation with the same
			// inputs must agree with the first.
			if again := IsAlertCandidate(tt.session, tt.now); again != tt.want {
				t.Errorf("second evaluation = %v, want %v", again, tt.want)
			}
		})
	}
}
