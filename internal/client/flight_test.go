package client

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/skywings/booking-service/internal/model"
)

const flightJSON = `{"data":{
  "id": "f1",
  "flight_number": "SW123",
  "status": "scheduled",
  "departure_time": "2026-03-05T14:00:00Z",
  "arrival_time": "2026-03-05T18:25:00Z",
  "price": 1000,
  "airplane": {"id": "a1", "name": "Boeing 737", "code": "B737"},
  "departure_airport": {
    "id": "ap1", "name": "Heathrow", "code": "LHR",
    "city": {"name": "London", "country": {"name": "United Kingdom"}}
  },
  "arrival_airport": {
    "id": "ap2", "name": "Schiphol", "code": "AMS",
    "city": {"name": "Amsterdam", "country": {"name": "Netherlands"}}
  },
  "class_window_price": {
    "economy": {
      "first_window_seats": 10, "first_window_remaining_seats": 2, "first_window_percentage": 1.0,
      "second_window_seats": 10, "second_window_remaining_seats": 10, "second_window_percentage": 1.2,
      "third_window_seats": 10, "third_window_remaining_seats": 10, "third_window_percentage": 1.5
    },
    "premium": {
      "first_window_seats": 5, "first_window_remaining_seats": 5, "first_window_percentage": 1.5,
      "second_window_seats": 5, "second_window_remaining_seats": 5, "second_window_percentage": 1.8
    },
    "business": {
      "first_window_seats": 3, "first_window_remaining_seats": 3, "first_window_percentage": 2.0,
      "second_window_seats": 3, "second_window_remaining_seats": 3, "second_window_percentage": 2.5
    }
  }
}}`

func TestGetFlight(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/flight/f1", r.URL.Path)
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(flightJSON))
    }))
    defer srv.Close()

    c := NewFlightClient(srv.URL, 2*time.Second)
    flight, err := c.GetFlight(context.Background(), "f1")

    assert.NoError(t, err)
    assert.Equal(t, "SW123", flight.FlightNumber)
    assert.Equal(t, 1000.0, flight.Price)
    assert.Equal(t, "London", flight.DepartureAirport.City)
    assert.Equal(t, "Netherlands", flight.ArrivalAirport.Country)

    // Flattened window fields folded into ordered slices.
    assert.Len(t, flight.Windows.Economy, 3)
    assert.Equal(t, model.PriceWindow{Seats: 10, Remaining: 2, Percent: 1.0}, flight.Windows.Economy[0])
    assert.Equal(t, 1.5, flight.Windows.Economy[2].Percent)
    assert.Len(t, flight.Windows.Premium, 2)
    assert.Len(t, flight.Windows.Business, 2)
}

func TestGetFlightNotFound(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusNotFound)
    }))
    defer srv.Close()

    c := NewFlightClient(srv.URL, 2*time.Second)
    _, err := c.GetFlight(context.Background(), "missing")

    assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFlightEmptyEnvelope(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"data":null}`))
    }))
    defer srv.Close()

    c := NewFlightClient(srv.URL, 2*time.Second)
    _, err := c.GetFlight(context.Background(), "f1")

    assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFlightUpstreamError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusBadGateway)
    }))
    defer srv.Close()

    c := NewFlightClient(srv.URL, 2*time.Second)
    _, err := c.GetFlight(context.Background(), "f1")

    assert.ErrorIs(t, err, ErrUpstream)
}

func TestReserveSeat(t *testing.T) {
    var got map[string]any
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, http.MethodPut, r.Method)
        assert.Equal(t, "/flight/f1/seat", r.URL.Path)
        assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
        _, _ = w.Write([]byte(`{"data":{}}`))
    }))
    defer srv.Close()

    c := NewFlightClient(srv.URL, 2*time.Second)
    err := c.ReserveSeat(context.Background(), "f1", model.SeatBusiness, 1)

    assert.NoError(t, err)
    assert.Equal(t, "business", got["window_type"])
    assert.Equal(t, float64(1), got["seats"])
}

func TestGetUser(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/user/id/u1", r.URL.Path)
        _, _ = w.Write([]byte(`{"data":{"id":"u1","email":"account@example.com"}}`))
    }))
    defer srv.Close()

    c := NewUserClient(srv.URL, 2*time.Second)
    u, err := c.GetUser(context.Background(), "u1")

    assert.NoError(t, err)
    assert.Equal(t, "account@example.com", u.Email)
}
