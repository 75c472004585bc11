// Package service implements booking admission and the read-side
// assembly of booking views. Admission validates a batch of seat
// requests against the per-user seat cap and the pricing windows of
// each flight, fixes a price per seat, and persists the whole batch
// atomically before emitting booking-created events.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sort"
    "time"

    "github.com/google/uuid"

    "github.com/skywings/booking-service/internal/client"
    "github.com/skywings/booking-service/internal/model"
    "github.com/skywings/booking-service/internal/queue"
)

// MaxSeatsPerFlight caps the cumulative non-cancelled seats one user
// may hold on one flight.
const MaxSeatsPerFlight = 5

// ErrFlightNotFound is returned when the inventory service does not
// know a flight referenced by the batch.
var ErrFlightNotFound = errors.New("flight not found")

// ErrSeatCapExceeded is returned when a batch would push the user past
// MaxSeatsPerFlight on some flight.
var ErrSeatCapExceeded = errors.New("seat cap exceeded")

// ErrNotEnoughSeats is returned when a cabin class lacks remaining
// window capacity for the requested seat count.
var ErrNotEnoughSeats = errors.New("not enough seats available")

// BookingStore is the persistence surface the service depends on.
// *repository.BookingRepo satisfies it.
type BookingStore interface {
    CreateBatch(ctx context.Context, bookings []*model.Booking) error
    CountActiveSeats(ctx context.Context, flightID, userID string) (int, error)
    GetByID(ctx context.Context, id string) (*model.Booking, error)
    ListAll(ctx context.Context, limit, offset int) ([]model.Booking, error)
    ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
    ListByFlight(ctx context.Context, flightID string) ([]model.Booking, error)
    UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

// FlightAPI is the slice of the inventory service client used here.
type FlightAPI interface {
    GetFlight(ctx context.Context, id string) (*model.FlightDetail, error)
}

// UserAPI resolves account emails for the admin manifest view.
type UserAPI interface {
    GetUser(ctx context.Context, id string) (*model.UserAccount, error)
}

// EventPublisher emits booking-created events after persistence.
type EventPublisher interface {
    PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// BookingService wires the booking store, the external service clients
// and the event publisher into the admission and read operations.
type BookingService struct {
    store   BookingStore
    flights FlightAPI
    users   UserAPI
    events  EventPublisher
}

// NewBookingService constructs a BookingService. All dependencies must
// be non-nil.
func NewBookingService(store BookingStore, flights FlightAPI, users UserAPI, events EventPublisher) *BookingService {
    if store == nil || flights == nil || users == nil || events == nil {
        panic("nil dependency passed to NewBookingService")
    }
    return &BookingService{store: store, flights: flights, users: users, events: events}
}

// classTally accumulates the requested seat count and the admitted
// per-seat price for one cabin class on one flight.
type classTally struct {
    seats int
    price float64
}

// flightTally is the fixed-shape aggregation of a batch for one flight:
// one tally per cabin class, no dynamic keys.
type flightTally struct {
    economy  classTally
    premium  classTally
    business classTally
}

func (t *flightTally) class(st model.SeatType) *classTally {
    switch st {
    case model.SeatPremium:
        return &t.premium
    case model.SeatBusiness:
        return &t.business
    default:
        return &t.economy
    }
}

func (t *flightTally) total() int {
    return t.economy.seats + t.premium.seats + t.business.seats
}

// CreateBookings admits a batch of seat requests for one user. It
// groups the requests per flight, validates the seat cap and window
// capacity against a fresh flight snapshot, prices each class at the
// first window with remaining capacity, then persists every booking of
// the batch in one transaction. A violation on any flight fails the
// whole batch before anything is written. After a successful commit one
// BookingCreatedEvent is published per booking; publish failures are
// logged and left for out-of-band reconciliation, never rolled back.
func (s *BookingService) CreateBookings(ctx context.Context, userID string, reqs []model.SeatRequest) ([]*model.Booking, error) {
    // Group requests per flight, preserving first-seen flight order so
    // validation errors are deterministic.
    tallies := make(map[string]*flightTally, len(reqs))
    order := make([]string, 0, len(reqs))
    for _, req := range reqs {
        t, ok := tallies[req.FlightID]
        if !ok {
            t = &flightTally{}
            tallies[req.FlightID] = t
            order = append(order, req.FlightID)
        }
        t.class(req.SeatType).seats++
    }

    // Validate and price every flight before anything is persisted.
    for _, flightID := range order {
        tally := tallies[flightID]
        flight, err := s.flights.GetFlight(ctx, flightID)
        if err != nil {
            if errors.Is(err, client.ErrNotFound) {
                return nil, fmt.Errorf("flight %s: %w", flightID, ErrFlightNotFound)
            }
            return nil, fmt.Errorf("fetch flight %s: %w", flightID, err)
        }
        existing, err := s.store.CountActiveSeats(ctx, flightID, userID)
        if err != nil {
            return nil, fmt.Errorf("count seats for flight %s: %w", flightID, err)
        }
        if existing+tally.total() > MaxSeatsPerFlight {
            return nil, fmt.Errorf("flight %s allows at most %d seats per user: %w",
                flight.FlightNumber, MaxSeatsPerFlight, ErrSeatCapExceeded)
        }
        for _, st := range []model.SeatType{model.SeatEconomy, model.SeatPremium, model.SeatBusiness} {
            ct := tally.class(st)
            if ct.seats == 0 {
                continue
            }
            windows := flight.Windows.ForClass(st)
            if model.RemainingSeats(windows) < ct.seats {
                return nil, fmt.Errorf("flight %s has no %s capacity for %d seats: %w",
                    flight.FlightNumber, st, ct.seats, ErrNotEnoughSeats)
            }
            // Every seat of the class is priced at the first window that
            // still has capacity, even when the count spills into later
            // windows. Deliberate batch pricing, not a per-seat rate.
            pct, ok := model.FirstOpenPercent(windows)
            if !ok {
                return nil, fmt.Errorf("flight %s has no open %s window: %w",
                    flight.FlightNumber, st, ErrNotEnoughSeats)
            }
            ct.price = flight.Price * pct
        }
    }

    // Build the batch. A shared creation timestamp correlates bookings
    // made in the same request.
    now := time.Now().UTC()
    bookings := make([]*model.Booking, 0, len(reqs))
    for _, req := range reqs {
        bookings = append(bookings, &model.Booking{
            ID:         uuid.NewString(),
            UserID:     userID,
            FlightID:   req.FlightID,
            Email:      req.Email,
            SeatType:   req.SeatType,
            SeatNumber: req.SeatNumber,
            Status:     model.StatusPending,
            TotalPrice: tallies[req.FlightID].class(req.SeatType).price,
            CreatedAt:  now,
            UpdatedAt:  now,
        })
    }
    if err := s.store.CreateBatch(ctx, bookings); err != nil {
        return nil, err
    }

    for _, b := range bookings {
        ev := queue.BookingCreatedEvent{BookingID: b.ID, FlightID: b.FlightID}
        if err := s.events.PublishBookingCreated(ctx, ev); err != nil {
            // The booking stays pending until reconciled out of band.
            log.Printf("booking-service: publish booking_created for %s failed: %v", b.ID, err)
        }
    }
    return bookings, nil
}

// GetBooking returns a single booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
    return s.store.GetByID(ctx, id)
}

// ListBookings returns one page of all bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, limit, offset int) ([]model.Booking, error) {
    return s.store.ListAll(ctx, limit, offset)
}

// UpdateBookingStatus transitions a booking's status. Forward-only
// transitions are enforced by the repository.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
    return s.store.UpdateStatus(ctx, id, status)
}

// FlightBookings pairs a flight snapshot with the bookings placed on it.
type FlightBookings struct {
    Flight   *model.FlightDetail `json:"flight"`
    Bookings []model.Booking     `json:"bookings"`
}

// ListUserBookings returns the user's bookings grouped by booking batch
// (shared created_at) and then by flight, newest batch first. Each
// flight group carries the enriched flight detail and is ordered by
// departure time within its batch.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([][]FlightBookings, error) {
    rows, err := s.store.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    grouped := make([][]FlightBookings, 0)
    // rows are ordered newest first, so batches come out newest first.
    details := make(map[string]*model.FlightDetail)
    for i := 0; i < len(rows); {
        j := i
        for j < len(rows) && rows[j].CreatedAt.Equal(rows[i].CreatedAt) {
            j++
        }
        batch := rows[i:j]
        i = j

        perFlight := make(map[string][]model.Booking)
        flightOrder := make([]string, 0)
        for _, b := range batch {
            if _, ok := perFlight[b.FlightID]; !ok {
                flightOrder = append(flightOrder, b.FlightID)
            }
            perFlight[b.FlightID] = append(perFlight[b.FlightID], b)
        }
        group := make([]FlightBookings, 0, len(flightOrder))
        for _, flightID := range flightOrder {
            detail, ok := details[flightID]
            if !ok {
                detail, err = s.flights.GetFlight(ctx, flightID)
                if err != nil {
                    if errors.Is(err, client.ErrNotFound) {
                        return nil, fmt.Errorf("flight %s: %w", flightID, ErrFlightNotFound)
                    }
                    return nil, err
                }
                details[flightID] = detail
            }
            group = append(group, FlightBookings{Flight: detail, Bookings: perFlight[flightID]})
        }
        sort.SliceStable(group, func(a, b int) bool {
            return group[a].Flight.DepartureTime.Before(group[b].Flight.DepartureTime)
        })
        grouped = append(grouped, group)
    }
    return grouped, nil
}

// ManifestEntry is one booking row in the admin manifest of a flight,
// enriched with the account email resolved from the identity service.
type ManifestEntry struct {
    ID           string              `json:"id"`
    SeatNumber   string              `json:"seat_number"`
    SeatType     model.SeatType      `json:"seat_type"`
    TotalPrice   float64             `json:"total_price"`
    Status       model.BookingStatus `json:"status"`
    BookingEmail string              `json:"booking_email"`
    UserEmail    string              `json:"user_email"`
    CreatedAt    time.Time           `json:"created_at"`
    UpdatedAt    time.Time           `json:"updated_at"`
}

// FlightManifest is the admin view of a flight: its snapshot plus every
// booking placed on it.
type FlightManifest struct {
    Flight   *model.FlightDetail `json:"flight"`
    Bookings []ManifestEntry     `json:"bookings"`
}

// FlightBookingsForAdmin assembles the manifest of a flight. The
// contact email captured at booking time and the account email from the
// identity service are reported side by side.
func (s *BookingService) FlightBookingsForAdmin(ctx context.Context, flightID string) (*FlightManifest, error) {
    flight, err := s.flights.GetFlight(ctx, flightID)
    if err != nil {
        if errors.Is(err, client.ErrNotFound) {
            return nil, fmt.Errorf("flight %s: %w", flightID, ErrFlightNotFound)
        }
        return nil, err
    }
    rows, err := s.store.ListByFlight(ctx, flightID)
    if err != nil {
        return nil, err
    }
    entries := make([]ManifestEntry, 0, len(rows))
    emails := make(map[string]string)
    for _, b := range rows {
        email, ok := emails[b.UserID]
        if !ok {
            u, err := s.users.GetUser(ctx, b.UserID)
            if err != nil {
                return nil, fmt.Errorf("resolve user %s: %w", b.UserID, err)
            }
            email = u.Email
            emails[b.UserID] = email
        }
        entries = append(entries, ManifestEntry{
            ID:           b.ID,
            SeatNumber:   b.SeatNumber,
            SeatType:     b.SeatType,
            TotalPrice:   b.TotalPrice,
            Status:       b.Status,
            BookingEmail: b.Email,
            UserEmail:    email,
            CreatedAt:    b.CreatedAt,
            UpdatedAt:    b.UpdatedAt,
        })
    }
    return &FlightManifest{Flight: flight, Bookings: entries}, nil
}
