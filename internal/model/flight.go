package model

import "time"

// PriceWindow is one sequential capacity tier within a cabin class.
// Earlier windows are cheaper and are exhausted before later ones.
// Percent is the multiplier applied to the flight's base price.
type PriceWindow struct {
    Seats     int     `json:"seats"`
    Remaining int     `json:"remaining_seats"`
    Percent   float64 `json:"percentage"`
}

// ClassWindows holds the pricing windows of each cabin class in sequence
// order.  Economy carries three windows, premium and business two.
type ClassWindows struct {
    Economy  []PriceWindow `json:"economy"`
    Premium  []PriceWindow `json:"premium"`
    Business []PriceWindow `json:"business"`
}

// ForClass returns the window sequence for the given cabin class.
func (w ClassWindows) ForClass(t SeatType) []PriceWindow {
    switch t {
    case SeatPremium:
        return w.Premium
    case SeatBusiness:
        return w.Business
    default:
        return w.Economy
    }
}

// RemainingSeats sums the remaining capacity across all windows of a class.
func RemainingSeats(ws []PriceWindow) int {
    total := 0
    for _, w := range ws {
        total += w.Remaining
    }
    return total
}

// FirstOpenPercent returns the price multiplier of the first window in
// sequence order that still has remaining capacity.  All seats of a class
// admitted in one batch are priced at this single multiplier even when the
// batch spans several windows; per-seat marginal pricing is deliberately
// not applied.
func FirstOpenPercent(ws []PriceWindow) (float64, bool) {
    for _, w := range ws {
        if w.Remaining > 0 {
            return w.Percent, true
        }
    }
    return 0, false
}

// Airplane describes the aircraft assigned to a flight.
type Airplane struct {
    ID   string `json:"id"`
    Name string `json:"name"`
    Code string `json:"code"`
}

// Airport carries the location details used in notifications.
type Airport struct {
    ID      string `json:"id"`
    Name    string `json:"name"`
    Code    string `json:"code"`
    City    string `json:"city"`
    Country string `json:"country"`
}

// FlightDetail is the snapshot of a flight fetched from the inventory
// service at admission time.  It is read-only and never persisted or
// cached locally; the remaining-seat counts it carries are authoritative
// only for the moment of the fetch.
type FlightDetail struct {
    ID               string       `json:"id"`
    FlightNumber     string       `json:"flight_number"`
    Status           string       `json:"status"`
    DepartureTime    time.Time    `json:"departure_time"`
    ArrivalTime      time.Time    `json:"arrival_time"`
    Price            float64      `json:"price"`
    Airplane         Airplane     `json:"airplane"`
    DepartureAirport Airport      `json:"departure_airport"`
    ArrivalAirport   Airport      `json:"arrival_airport"`
    Windows          ClassWindows `json:"class_windows"`
}

// UserAccount is the slice of the identity service's user record needed
// for admin booking views.
type UserAccount struct {
    ID    string `json:"id"`
    Email string `json:"email"`
}
