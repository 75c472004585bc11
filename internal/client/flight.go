// Package client talks to the external flight/inventory and identity
// services over HTTP. Responses arrive wrapped in a {"data": ...}
// envelope. Every call carries the request context and the underlying
// http.Client enforces a timeout, so a stalled upstream fails the call
// instead of holding resources.
package client

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/skywings/booking-service/internal/model"
)

// ErrNotFound is returned when the upstream service reports that the
// requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUpstream is returned when the upstream service is unreachable or
// responds with an unexpected status. Callers should treat it as
// retryable.
var ErrUpstream = errors.New("upstream unavailable")

// FlightClient fetches flight snapshots and pushes seat decrements to
// the inventory service.
type FlightClient struct {
    base string
    http *http.Client
}

// NewFlightClient builds a client for the inventory service rooted at
// base, e.g. "http://flight-service:3001/api/v1".
func NewFlightClient(base string, timeout time.Duration) *FlightClient {
    return &FlightClient{
        base: strings.TrimRight(base, "/"),
        http: &http.Client{Timeout: timeout},
    }
}

// flightPayload mirrors the inventory service's wire format. The per-class
// pricing windows arrive as flattened first/second/third fields and are
// folded into ordered window slices during mapping.
type flightPayload struct {
    ID            string         `json:"id"`
    FlightNumber  string         `json:"flight_number"`
    Status        string         `json:"status"`
    DepartureTime time.Time      `json:"departure_time"`
    ArrivalTime   time.Time      `json:"arrival_time"`
    Price         float64        `json:"price"`
    Airplane      model.Airplane `json:"airplane"`
    Departure     airportPayload `json:"departure_airport"`
    Arrival       airportPayload `json:"arrival_airport"`
    Windows       struct {
        Economy  threeWindowPayload `json:"economy"`
        Premium  twoWindowPayload   `json:"premium"`
        Business twoWindowPayload   `json:"business"`
    } `json:"class_window_price"`
}

type airportPayload struct {
    ID   string `json:"id"`
    Name string `json:"name"`
    Code string `json:"code"`
    City struct {
        Name    string `json:"name"`
        Country struct {
            Name string `json:"name"`
        } `json:"country"`
    } `json:"city"`
}

type twoWindowPayload struct {
    FirstSeats      int     `json:"first_window_seats"`
    FirstRemaining  int     `json:"first_window_remaining_seats"`
    FirstPercent    float64 `json:"first_window_percentage"`
    SecondSeats     int     `json:"second_window_seats"`
    SecondRemaining int     `json:"second_window_remaining_seats"`
    SecondPercent   float64 `json:"second_window_percentage"`
}

type threeWindowPayload struct {
    twoWindowPayload
    ThirdSeats     int     `json:"third_window_seats"`
    ThirdRemaining int     `json:"third_window_remaining_seats"`
    ThirdPercent   float64 `json:"third_window_percentage"`
}

func (p twoWindowPayload) windows() []model.PriceWindow {
    return []model.PriceWindow{
        {Seats: p.FirstSeats, Remaining: p.FirstRemaining, Percent: p.FirstPercent},
        {Seats: p.SecondSeats, Remaining: p.SecondRemaining, Percent: p.SecondPercent},
    }
}

func (p threeWindowPayload) windows() []model.PriceWindow {
    return append(p.twoWindowPayload.windows(),
        model.PriceWindow{Seats: p.ThirdSeats, Remaining: p.ThirdRemaining, Percent: p.ThirdPercent})
}

func (p *flightPayload) toModel() *model.FlightDetail {
    return &model.FlightDetail{
        ID:            p.ID,
        FlightNumber:  p.FlightNumber,
        Status:        p.Status,
        DepartureTime: p.DepartureTime,
        ArrivalTime:   p.ArrivalTime,
        Price:         p.Price,
        Airplane:      p.Airplane,
        DepartureAirport: model.Airport{
            ID: p.Departure.ID, Name: p.Departure.Name, Code: p.Departure.Code,
            City: p.Departure.City.Name, Country: p.Departure.City.Country.Name,
        },
        ArrivalAirport: model.Airport{
            ID: p.Arrival.ID, Name: p.Arrival.Name, Code: p.Arrival.Code,
            City: p.Arrival.City.Name, Country: p.Arrival.City.Country.Name,
        },
        Windows: model.ClassWindows{
            Economy:  p.Windows.Economy.windows(),
            Premium:  p.Windows.Premium.windows(),
            Business: p.Windows.Business.windows(),
        },
    }
}

// GetFlight fetches the current snapshot for a flight: base price and
// the per-class window capacity, occupancy and multipliers. The
// snapshot is never cached; every admission fetches a fresh one.
func (c *FlightClient) GetFlight(ctx context.Context, id string) (*model.FlightDetail, error) {
    var payload flightPayload
    if err := c.get(ctx, "/flight/"+id, &payload); err != nil {
        return nil, err
    }
    return payload.toModel(), nil
}

// ReserveSeat decrements the remaining seats of a cabin class on a
// flight in the inventory service. Called once per confirmed booking.
func (c *FlightClient) ReserveSeat(ctx context.Context, flightID string, class model.SeatType, seats int) error {
    body, err := json.Marshal(map[string]any{
        "window_type": string(class),
        "seats":       seats,
    })
    if err != nil {
        return err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+"/flight/"+flightID+"/seat", bytes.NewReader(body))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrUpstream, err)
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode == http.StatusNotFound:
        return fmt.Errorf("flight %s: %w", flightID, ErrNotFound)
    case resp.StatusCode < 200 || resp.StatusCode > 299:
        return fmt.Errorf("%w: reserve seat returned %d", ErrUpstream, resp.StatusCode)
    }
    return nil
}

// envelope is the common {"data": ...} wrapper around upstream responses.
type envelope struct {
    Data json.RawMessage `json:"data"`
}

func (c *FlightClient) get(ctx context.Context, path string, out any) error {
    return getJSON(ctx, c.http, c.base+path, out)
}

func getJSON(ctx context.Context, hc *http.Client, url string, out any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return err
    }
    resp, err := hc.Do(req)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrUpstream, err)
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode == http.StatusNotFound:
        return ErrNotFound
    case resp.StatusCode < 200 || resp.StatusCode > 299:
        return fmt.Errorf("%w: %s returned %d", ErrUpstream, url, resp.StatusCode)
    }
    var env envelope
    if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
        return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
    }
    if len(env.Data) == 0 {
        return ErrNotFound
    }
    if err := json.Unmarshal(env.Data, out); err != nil {
        return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
    }
    return nil
}
