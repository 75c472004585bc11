package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestValidSeatNumber(t *testing.T) {
    cases := []struct {
        seat string
        want bool
    }{
        {"0A", true},
        {"9F", true},
        {"12A", true},
        {"19C", true},
        {"25F", true},
        {"26A", false}, // row beyond 25
        {"12G", false}, // column beyond F
        {"A12", false},
        {"12", false},
        {"", false},
        {"125A", false},
        {"12a", false},
        {"-1A", false},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, ValidSeatNumber(tc.seat), "seat %q", tc.seat)
    }
}

func TestBookingStatusTransitions(t *testing.T) {
    cases := []struct {
        from, to BookingStatus
        want     bool
    }{
        {StatusPending, StatusConfirmed, true},
        {StatusPending, StatusCancelled, true},
        {StatusPending, StatusPending, false},
        {StatusConfirmed, StatusCancelled, false},
        {StatusConfirmed, StatusPending, false},
        {StatusCancelled, StatusConfirmed, false},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
    }
}

func TestSeatTypeValid(t *testing.T) {
    assert.True(t, SeatEconomy.Valid())
    assert.True(t, SeatPremium.Valid())
    assert.True(t, SeatBusiness.Valid())
    assert.False(t, SeatType("first").Valid())
    assert.False(t, SeatType("").Valid())
}
