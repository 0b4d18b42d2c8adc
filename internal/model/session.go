package model

import "time"

// Role identifies why a vehicle is inside the complex.  Residents park
// indefinitely; visitors are subject to the overstay rules evaluated by
// the alert package.
type Role string

const (
    RoleResident Role = "resident" // vehicle belongs to a unit owner
    RoleVisitor  Role = "visitor"  // vehicle is visiting; overstay rules apply
)

// Valid reports whether r is one of the two supported roles.
func (r Role) Valid() bool {
    return r == RoleResident || r == RoleVisitor
}

// AccessSession records one continuous vehicle-presence interval, from the
// moment the vehicle enters the complex until it exits.  A session with a
// nil ExitedAt is active (the vehicle is still inside).  The role is fixed
// at creation and only changes through an explicit update.
//
// Fields:
//  ID                – primary key identifier.
//  Tower             – building block label (e.g. "A", "Torre 2").
//  Unit              – apartment/department number (nullable).
//  OccupantName      – display name of the person associated with the vehicle.
//  OccupantID        – identity document number (free text, e.g. a RUT).
//  Role              – resident or visitor.
//  Plate             – license plate, stored uppercase.
//  EnteredAt         – entry timestamp, set once at creation.
//  ExitedAt          – exit timestamp; nil while the vehicle is inside.
//  AlertAcknowledged – one-way flag marking an overstay alert as seen.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type AccessSession struct {
    ID                uint64     `json:"id"`                 // access_sessions.id
    Tower             string     `json:"tower"`              // access_sessions.tower
    Unit              *string    `json:"unit,omitempty"`     // access_sessions.unit (nullable)
    OccupantName      string     `json:"occupant_name"`      // access_sessions.occupant_name
    OccupantID        string     `json:"occupant_id"`        // access_sessions.occupant_id
    Role              Role       `json:"role"`               // access_sessions.role
    Plate             string     `json:"plate"`              // access_sessions.plate
    EnteredAt         time.Time  `json:"entered_at"`         // access_sessions.entered_at
    ExitedAt          *time.Time `json:"exited_at,omitempty"` // access_sessions.exited_at (nullable)
    AlertAcknowledged bool       `json:"alert_acknowledged"` // access_sessions.alert_acknowledged
    CreatedAt         time.Time  `json:"created_at"`         // access_sessions.created_at
    UpdatedAt         time.Time  `json:"updated_at"`         // access_sessions.updated_at
}

// Active reports whether the vehicle is still inside the complex.
func (s *AccessSession) Active() bool {
    return s.ExitedAt == nil
}
