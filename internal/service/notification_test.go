package service

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/skywings/booking-service/internal/model"
)

func TestBuildReminder(t *testing.T) {
    departure := time.Date(2026, 3, 5, 14, 5, 0, 0, time.UTC)
    booking := &model.Booking{
        ID:         "b1",
        Email:      "pax@example.com",
        SeatType:   model.SeatEconomy,
        SeatNumber: "12A",
        TotalPrice: 1250.5,
    }
    flight := &model.FlightDetail{
        FlightNumber:  "SW123",
        DepartureTime: departure,
        ArrivalTime:   departure.Add(4*time.Hour + 25*time.Minute),
        Airplane:      model.Airplane{Name: "Boeing 737"},
        DepartureAirport: model.Airport{
            Name: "Heathrow", City: "London", Country: "United Kingdom",
        },
        ArrivalAirport: model.Airport{
            Name: "Schiphol", City: "Amsterdam", Country: "Netherlands",
        },
    }

    ev, err := BuildReminder(booking, flight)

    assert.NoError(t, err)
    assert.Equal(t, departure.Add(-4*time.Hour), ev.NotificationTime)
    assert.Equal(t, "Booking Confirmed: Flight SW123 on 5/3/2026 14:5", ev.Subject)
    assert.Equal(t, "pax@example.com", ev.Email)
    assert.Equal(t, "SW123", ev.FlightNumber)
    assert.Equal(t, "12A", ev.SeatNumber)
    assert.Equal(t, 1250.5, ev.TotalPrice)
    assert.Equal(t, departure, ev.DepartureTime)

    assert.Contains(t, ev.Body, "SW123")
    assert.Contains(t, ev.Body, "12A (economy)")
    assert.Contains(t, ev.Body, "1250.50")
    assert.Contains(t, ev.Body, "Heathrow, London, United Kingdom")
    assert.Contains(t, ev.Body, "Schiphol, Amsterdam, Netherlands")
    assert.Contains(t, ev.Body, "pax@example.com")
    assert.Contains(t, ev.Body, "SkyWings Airlines")
}

func TestFormatLocalTime(t *testing.T) {
    // Unpadded day/month/year hour:minute.
    got := formatLocalTime(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC))
    assert.Equal(t, "2/1/2026 3:4", got)
}
