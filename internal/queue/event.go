// Package queue defines message payloads exchanged over the message broker,
// the publisher used by the service layer, and the background consumer that
// mirrors gate activity into a local log file.
package queue

// Event types published to the access.events queue.
const (
	EventVehicleEntered    = "vehicle.entered"
	EventVehicleExited     = "vehicle.exited"
	EventAlertAcknowledged = "alert.acknowledged"
)

// AccessEvent is published whenever a session changes state at the gate.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.
type AccessEvent struct {
	Type         string  `json:"type"`
	SessionID    uint64  `json:"session_id"`
	Tower        string  `json:"tower"`
	Unit         *string `json:"unit,omitempty"`
	OccupantName string  `json:"occupant_name"`
	OccupantID   string  `json:"occupant_id"`
	Role         string  `json:"role"`
	Plate        string  `json:"plate"`
	EnteredAt    string  `json:"entered_at"`
	ExitedAt     string  `json:"exited_at,omitempty"`
	OccurredAt   string  `json:"occurred_at"`
}
