package model

import (
    "regexp"
    "time"
)

// SeatType enumerates the cabin classes a seat can be booked in.
type SeatType string

const (
    SeatEconomy  SeatType = "economy"
    SeatPremium  SeatType = "premium"
    SeatBusiness SeatType = "business"
)

// Valid reports whether the seat type is one of the known cabin classes.
func (s SeatType) Valid() bool {
    switch s {
    case SeatEconomy, SeatPremium, SeatBusiness:
        return true
    }
    return false
}

// BookingStatus enumerates the lifecycle states of a booking.  A booking
// is created as pending and moves forward to confirmed or cancelled;
// confirmed and cancelled are terminal.
type BookingStatus string

const (
    StatusPending   BookingStatus = "pending"
    StatusConfirmed BookingStatus = "confirmed"
    StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether the status is a known booking state.
func (s BookingStatus) Valid() bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusCancelled:
        return true
    }
    return false
}

// CanTransitionTo reports whether a status change is allowed.  Only
// pending bookings may move, and only to a terminal state.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
    return s == StatusPending && (to == StatusConfirmed || to == StatusCancelled)
}

// Booking records a single seat purchased by a user on a flight.
// TotalPrice is fixed at admission time and never recomputed; bookings
// made in the same request share a CreatedAt timestamp, which is used
// to group them into batches.
//
// Fields:
//  ID          – booking.id (uuid).
//  UserID      – user who made the booking (owned by the identity service).
//  FlightID    – flight being booked (owned by the flight service).
//  Email       – contact address captured at request time.
//  SeatType    – cabin class (economy, premium, business).
//  SeatNumber  – physical seat token, row 0–25 + column A–F.
//  Status      – lifecycle state (pending, confirmed, cancelled).
//  TotalPrice  – price fixed by the pricing window at admission.
//  CreatedAt   – creation timestamp; batch correlation key.
//  UpdatedAt   – last update timestamp.
type Booking struct {
    ID         string        `json:"id"`          // booking.id
    UserID     string        `json:"user_id"`     // booking.user_id
    FlightID   string        `json:"flight_id"`   // booking.flight_id
    Email      string        `json:"email"`       // booking.email
    SeatType   SeatType      `json:"seat_type"`   // booking.seat_type
    SeatNumber string        `json:"seat_number"` // booking.seat_number
    Status     BookingStatus `json:"status"`      // booking.status
    TotalPrice float64       `json:"total_price"` // booking.total_price
    CreatedAt  time.Time     `json:"created_at"`  // booking.created_at
    UpdatedAt  time.Time     `json:"updated_at"`  // booking.updated_at
}

// SeatRequest is one element of the batch body accepted by POST /v1/booking.
type SeatRequest struct {
    FlightID   string   `json:"flight_id" validate:"required,uuid"`
    SeatType   SeatType `json:"seat_type" validate:"required"`
    SeatNumber string   `json:"seat_number" validate:"required"`
    Email      string   `json:"email" validate:"required,email"`
}

// seatNumberRe matches rows 0-25 followed by a single column letter A-F.
var seatNumberRe = regexp.MustCompile(`^([0-9]|1[0-9]|2[0-5])[A-F]$`)

// ValidSeatNumber reports whether a seat token names a physical seat.
func ValidSeatNumber(s string) bool {
    return seatNumberRe.MatchString(s)
}
