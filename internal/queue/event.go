// Package queue defines message payloads exchanged over the broker and
// the process-wide AMQP client, publisher and consumer built on them.
package queue

import "time"

// BookingCreatedEvent is published once per booking after the row is
// durably persisted. The consumer uses it to drive the confirmation
// pipeline.
type BookingCreatedEvent struct {
    BookingID string `json:"booking_id"`
    FlightID  string `json:"flight_id"`
}

// ReminderEvent is the scheduled pre-departure reminder handed to the
// reminder queue. NotificationTime is when the downstream consumer
// should deliver it; this service computes it but never runs timers
// itself.
type ReminderEvent struct {
    Subject          string    `json:"subject"`
    Body             string    `json:"body"`
    Email            string    `json:"email"`
    NotificationTime time.Time `json:"notification_time"`
    FlightNumber     string    `json:"flight_number"`
    SeatType         string    `json:"seat_type"`
    SeatNumber       string    `json:"seat_number"`
    TotalPrice       float64   `json:"total_price"`
    DepartureTime    time.Time `json:"departure_time"`
}
