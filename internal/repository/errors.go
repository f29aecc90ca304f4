// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current
// user is not authorized to perform an operation on a resource owned
// by someone else, while ErrActiveReservation signals that the
// uniqueness guard blocked a second live reservation for the same
// customer.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as completing a reservation that is not
// awaiting payment. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrActiveReservation is returned by the create batch when the
// customer already holds a live reservation. The guard is a
// uniqueness row keyed by user, inserted in the same transaction as
// the reservation itself.
var ErrActiveReservation = errors.New("active reservation exists")
