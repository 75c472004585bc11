package service

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"

    "github.com/skywings/booking-service/internal/client"
    "github.com/skywings/booking-service/internal/model"
    "github.com/skywings/booking-service/internal/queue"
    "github.com/skywings/booking-service/internal/repository"
)

type MockBookingStore struct {
    mock.Mock
}

func (m *MockBookingStore) CreateBatch(ctx context.Context, bookings []*model.Booking) error {
    args := m.Called(ctx, bookings)
    return args.Error(0)
}

func (m *MockBookingStore) CountActiveSeats(ctx context.Context, flightID, userID string) (int, error) {
    args := m.Called(ctx, flightID, userID)
    return args.Int(0), args.Error(1)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    args := m.Called(ctx, id)
    if b := args.Get(0); b != nil {
        return b.(*model.Booking), args.Error(1)
    }
    return nil, args.Error(1)
}

func (m *MockBookingStore) ListAll(ctx context.Context, limit, offset int) ([]model.Booking, error) {
    args := m.Called(ctx, limit, offset)
    if rows := args.Get(0); rows != nil {
        return rows.([]model.Booking), args.Error(1)
    }
    return nil, args.Error(1)
}

func (m *MockBookingStore) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
    args := m.Called(ctx, userID)
    if rows := args.Get(0); rows != nil {
        return rows.([]model.Booking), args.Error(1)
    }
    return nil, args.Error(1)
}

func (m *MockBookingStore) ListByFlight(ctx context.Context, flightID string) ([]model.Booking, error) {
    args := m.Called(ctx, flightID)
    if rows := args.Get(0); rows != nil {
        return rows.([]model.Booking), args.Error(1)
    }
    return nil, args.Error(1)
}

func (m *MockBookingStore) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
    args := m.Called(ctx, id, status)
    if b := args.Get(0); b != nil {
        return b.(*model.Booking), args.Error(1)
    }
    return nil, args.Error(1)
}

type MockFlightAPI struct {
    mock.Mock
}

func (m *MockFlightAPI) GetFlight(ctx context.Context, id string) (*model.FlightDetail, error) {
    args := m.Called(ctx, id)
    if f := args.Get(0); f != nil {
        return f.(*model.FlightDetail), args.Error(1)
    }
    return nil, args.Error(1)
}

type MockUserAPI struct {
    mock.Mock
}

func (m *MockUserAPI) GetUser(ctx context.Context, id string) (*model.UserAccount, error) {
    args := m.Called(ctx, id)
    if u := args.Get(0); u != nil {
        return u.(*model.UserAccount), args.Error(1)
    }
    return nil, args.Error(1)
}

type MockPublisher struct {
    mock.Mock
}

func (m *MockPublisher) PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
    args := m.Called(ctx, ev)
    return args.Error(0)
}

const (
    testUserID   = "5f5e1f5a-9df1-4c53-9d35-43d9a8e1c001"
    testFlightID = "0a6c3f2e-2bb8-4c61-8a9f-30f3c1d4a002"
)

func testFlight(id string, price float64, economy []model.PriceWindow) *model.FlightDetail {
    return &model.FlightDetail{
        ID:            id,
        FlightNumber:  "SW123",
        Status:        "scheduled",
        DepartureTime: time.Date(2026, 3, 5, 14, 5, 0, 0, time.UTC),
        ArrivalTime:   time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC),
        Price:         1000,
        Windows: model.ClassWindows{
            Economy:  economy,
            Premium:  []model.PriceWindow{{Seats: 5, Remaining: 5, Percent: 1.5}},
            Business: []model.PriceWindow{{Seats: 3, Remaining: 3, Percent: 2.0}},
        },
    }
}

func economyRequests(seats ...string) []model.SeatRequest {
    reqs := make([]model.SeatRequest, 0, len(seats))
    for _, s := range seats {
        reqs = append(reqs, model.SeatRequest{
            FlightID:   testFlightID,
            SeatType:   model.SeatEconomy,
            SeatNumber: s,
            Email:      "pax@example.com",
        })
    }
    return reqs
}

func newTestService(store *MockBookingStore, flights *MockFlightAPI, users *MockUserAPI, pub *MockPublisher) *BookingService {
    return NewBookingService(store, flights, users, pub)
}

func TestCreateBookingsSuccess(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    users := new(MockUserAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, users, pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
    pub.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

    bookings, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("12A", "12B"))

    assert.NoError(t, err)
    assert.Len(t, bookings, 2)
    for _, b := range bookings {
        assert.NotEmpty(t, b.ID)
        assert.Equal(t, testUserID, b.UserID)
        assert.Equal(t, model.StatusPending, b.Status)
        assert.Equal(t, 1000.0, b.TotalPrice)
    }
    // Bookings in one request share a creation timestamp.
    assert.True(t, bookings[0].CreatedAt.Equal(bookings[1].CreatedAt))
    store.AssertCalled(t, "CreateBatch", mock.Anything, mock.Anything)
    pub.AssertNumberOfCalls(t, "PublishBookingCreated", 2)
}

func TestCreateBookingsSeatCapExceeded(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 50, Remaining: 50, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(4, nil)

    _, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A", "1B"))

    assert.ErrorIs(t, err, ErrSeatCapExceeded)
    store.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
    pub.AssertNotCalled(t, "PublishBookingCreated", mock.Anything, mock.Anything)
}

func TestCreateBookingsNotEnoughSeats(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    svc := newTestService(store, flights, new(MockUserAPI), new(MockPublisher))

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 1, Percent: 1.0},
        {Seats: 10, Remaining: 0, Percent: 1.2},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)

    _, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A", "1B"))

    assert.ErrorIs(t, err, ErrNotEnoughSeats)
    store.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateBookingsFirstWindowPricing(t *testing.T) {
    // Four seats against windows of 2, 3 and 5 remaining: the batch
    // spills out of the first window but every seat is still priced at
    // the first open window's rate.
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    svc := newTestService(store, flights, new(MockUserAPI), new(MockPublisher))

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 2, Percent: 1.0},
        {Seats: 10, Remaining: 3, Percent: 1.2},
        {Seats: 10, Remaining: 5, Percent: 1.5},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
    pub := new(MockPublisher)
    pub.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)
    svc = newTestService(store, flights, new(MockUserAPI), pub)

    bookings, err := svc.CreateBookings(context.Background(), testUserID,
        economyRequests("1A", "1B", "1C", "1D"))

    assert.NoError(t, err)
    assert.Len(t, bookings, 4)
    for _, b := range bookings {
        assert.Equal(t, 1000.0, b.TotalPrice)
    }
}

func TestCreateBookingsExactWindowBoundary(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 2, Percent: 1.0},
        {Seats: 10, Remaining: 5, Percent: 1.2},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
    pub.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

    bookings, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A", "1B"))

    assert.NoError(t, err)
    for _, b := range bookings {
        assert.Equal(t, 1000.0, b.TotalPrice)
    }
}

func TestCreateBookingsSecondWindowRate(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 0, Percent: 1.0},
        {Seats: 10, Remaining: 5, Percent: 1.2},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
    pub.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

    bookings, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A"))

    assert.NoError(t, err)
    assert.Equal(t, 1200.0, bookings[0].TotalPrice)
}

func TestCreateBookingsMultiFlightAllOrNothing(t *testing.T) {
    // A violation on the second flight must fail the whole batch before
    // anything is written or published.
    otherFlightID := "9c1de7b4-6a2f-4f82-b7c3-55e0c9b2a003"

    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    ok := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    })
    full := testFlight(otherFlightID, 800, []model.PriceWindow{
        {Seats: 10, Remaining: 0, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(ok, nil)
    flights.On("GetFlight", mock.Anything, otherFlightID).Return(full, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CountActiveSeats", mock.Anything, otherFlightID, testUserID).Return(0, nil)

    reqs := append(economyRequests("1A"), model.SeatRequest{
        FlightID:   otherFlightID,
        SeatType:   model.SeatEconomy,
        SeatNumber: "2B",
        Email:      "pax@example.com",
    })
    _, err := svc.CreateBookings(context.Background(), testUserID, reqs)

    assert.ErrorIs(t, err, ErrNotEnoughSeats)
    store.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
    pub.AssertNotCalled(t, "PublishBookingCreated", mock.Anything, mock.Anything)
}

func TestCreateBookingsFlightNotFound(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    svc := newTestService(store, flights, new(MockUserAPI), new(MockPublisher))

    flights.On("GetFlight", mock.Anything, testFlightID).Return(nil, client.ErrNotFound)

    _, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A"))

    assert.ErrorIs(t, err, ErrFlightNotFound)
    store.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateBookingsSeatTaken(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(repository.ErrSeatTaken)

    _, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A"))

    assert.ErrorIs(t, err, repository.ErrSeatTaken)
    pub.AssertNotCalled(t, "PublishBookingCreated", mock.Anything, mock.Anything)
}

func TestCreateBookingsPublishFailureKeepsBookings(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    pub := new(MockPublisher)
    svc := newTestService(store, flights, new(MockUserAPI), pub)

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("CountActiveSeats", mock.Anything, testFlightID, testUserID).Return(0, nil)
    store.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
    pub.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(assert.AnError)

    bookings, err := svc.CreateBookings(context.Background(), testUserID, economyRequests("1A"))

    // The booking is persisted either way; the event is reconciled out
    // of band.
    assert.NoError(t, err)
    assert.Len(t, bookings, 1)
}

func TestFlightBookingsForAdminResolvesEmails(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    users := new(MockUserAPI)
    svc := newTestService(store, flights, users, new(MockPublisher))

    flight := testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    })
    flights.On("GetFlight", mock.Anything, testFlightID).Return(flight, nil)
    store.On("ListByFlight", mock.Anything, testFlightID).Return([]model.Booking{
        {ID: "b1", UserID: testUserID, FlightID: testFlightID, Email: "pax@example.com", SeatNumber: "1A"},
        {ID: "b2", UserID: testUserID, FlightID: testFlightID, Email: "pax@example.com", SeatNumber: "1B"},
    }, nil)
    users.On("GetUser", mock.Anything, testUserID).Return(&model.UserAccount{
        ID: testUserID, Email: "account@example.com",
    }, nil)

    manifest, err := svc.FlightBookingsForAdmin(context.Background(), testFlightID)

    assert.NoError(t, err)
    assert.Len(t, manifest.Bookings, 2)
    assert.Equal(t, "account@example.com", manifest.Bookings[0].UserEmail)
    assert.Equal(t, "pax@example.com", manifest.Bookings[0].BookingEmail)
    // Same user resolved once.
    users.AssertNumberOfCalls(t, "GetUser", 1)
}

func TestListUserBookingsGroupsByBatchAndFlight(t *testing.T) {
    store := new(MockBookingStore)
    flights := new(MockFlightAPI)
    svc := newTestService(store, flights, new(MockUserAPI), new(MockPublisher))

    earlier := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
    later := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
    store.On("ListByUser", mock.Anything, testUserID).Return([]model.Booking{
        {ID: "b3", FlightID: testFlightID, CreatedAt: later},
        {ID: "b1", FlightID: testFlightID, CreatedAt: earlier},
        {ID: "b2", FlightID: testFlightID, CreatedAt: earlier},
    }, nil)
    flights.On("GetFlight", mock.Anything, testFlightID).Return(testFlight(testFlightID, 1000, []model.PriceWindow{
        {Seats: 10, Remaining: 10, Percent: 1.0},
    }), nil)

    grouped, err := svc.ListUserBookings(context.Background(), testUserID)

    assert.NoError(t, err)
    assert.Len(t, grouped, 2)
    assert.Len(t, grouped[0][0].Bookings, 1)
    assert.Len(t, grouped[1][0].Bookings, 2)
    // Flight detail memoized across batches.
    flights.AssertNumberOfCalls(t, "GetFlight", 1)
}
