// Package repository defines error types shared by the data access
// layer. These sentinel values let higher layers such as handlers
// distinguish between failure scenarios without inspecting driver
// errors. For example, ErrSeatTaken indicates that the requested
// seat already has a non-cancelled booking on the flight, while
// ErrInvalidTransition signals an attempt to move a booking out of
// a terminal state.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking exists for the
// requested identifier. Handlers should translate this into an
// HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatTaken is returned when a non-cancelled booking already
// holds the requested seat on the flight. The unique index on
// (flight_id, active_seat) raises this even under concurrent
// inserts for the same seat.
var ErrSeatTaken = errors.New("seat already booked")

// ErrInvalidTransition is returned when a status update would move
// a booking backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")
