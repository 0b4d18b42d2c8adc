// Package repository defines the session store contract and its MySQL
// implementation. The sentinel errors declared here let higher layers such
// as the service and handlers distinguish failure scenarios without
// inspecting driver-specific error values.
package repository

import "errors"

// ErrSessionNotFound is returned when an operation targets a session id
// that does not exist. Handlers should translate this into an HTTP 404
// response.
var ErrSessionNotFound = errors.New("session not found")

// ErrAlreadyClosed is returned when an exit registration targets a session
// whose exit has already been recorded. The stored exit timestamp is never
// moved once set; handlers should translate this into an HTTP 409 response.
var ErrAlreadyClosed = errors.New("session already closed")

// ErrPlateActive is returned when a create or update would leave two open
// sessions with the same plate. A vehicle that is already inside cannot
// enter again until its current session is closed. Handlers should
// translate this into an HTTP 409 response.
var ErrPlateActive = errors.New("plate already has an active session")
