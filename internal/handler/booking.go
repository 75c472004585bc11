package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/skywings/booking-service/internal/model"
    "github.com/skywings/booking-service/internal/repository"
    "github.com/skywings/booking-service/internal/service"
)

// pageSize is the fixed page length of the admin booking listing.
const pageSize = 20

// BookingHandler exposes the booking HTTP surface.  All methods assume
// that JWT authentication and role validation has already been
// performed by middleware; they may still return 401 when the user id
// cannot be extracted from the context.
type BookingHandler struct {
    svc      *service.BookingService
    validate *validator.Validate
}

// NewBookingHandler constructs a BookingHandler around the given
// service.  It registers a "seatnumber" validation rule enforcing the
// row 0-25 + column A-F seat format.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    v := validator.New()
    _ = v.RegisterValidation("seatnumber", func(fl validator.FieldLevel) bool {
        return model.ValidSeatNumber(fl.Field().String())
    })
    return &BookingHandler{svc: svc, validate: v}
}

// Create handles POST /v1/booking.  The body is an array of seat
// requests; the whole batch is admitted or rejected as one unit.
// Responds 201 with the created bookings, 400 on validation, capacity,
// cap or seat-conflict failures, 404 when a referenced flight does not
// exist.
func (h *BookingHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var reqs []model.SeatRequest
    if err := c.Bind(&reqs); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(reqs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking data is required"})
    }
    for _, req := range reqs {
        if err := h.validate.Struct(req); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking request: " + err.Error()})
        }
        if !req.SeatType.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat type: " + string(req.SeatType)})
        }
        if !model.ValidSeatNumber(req.SeatNumber) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number: " + req.SeatNumber})
        }
    }
    bookings, err := h.svc.CreateBookings(c.Request().Context(), userID, reqs)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrFlightNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        case errors.Is(err, service.ErrSeatCapExceeded),
            errors.Is(err, service.ErrNotEnoughSeats),
            errors.Is(err, repository.ErrSeatTaken):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"items": bookings})
}

// List handles GET /v1/booking (admin).  Pages are fixed-size, newest
// bookings first; ?page= starts at 1.
func (h *BookingHandler) List(c echo.Context) error {
    page := 1
    if raw := c.QueryParam("page"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
        }
        page = n
    }
    bookings, err := h.svc.ListBookings(c.Request().Context(), pageSize, (page-1)*pageSize)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": bookings, "page": page})
}

// GetByID handles GET /v1/booking/id/:id.
func (h *BookingHandler) GetByID(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking id is required"})
    }
    b, err := h.svc.GetBooking(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// ListMine handles GET /v1/booking/user.  Bookings are grouped by
// request batch and flight, enriched with flight details.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    groups, err := h.svc.ListUserBookings(c.Request().Context(), userID)
    if err != nil {
        if errors.Is(err, service.ErrFlightNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// ListForFlight handles GET /v1/booking/flight/:flight_id (admin).  The
// response carries the flight detail and each booking enriched with the
// passenger's account email.
func (h *BookingHandler) ListForFlight(c echo.Context) error {
    flightID := c.Param("flight_id")
    if flightID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "flight id is required"})
    }
    manifest, err := h.svc.FlightBookingsForAdmin(c.Request().Context(), flightID)
    if err != nil {
        if errors.Is(err, service.ErrFlightNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load flight bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": manifest})
}

// UpdateStatus handles PUT /v1/booking/id/:id (super admin).  The body
// is {"status": ...}; only forward transitions out of pending are
// accepted.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking id is required"})
    }
    var body struct {
        Status model.BookingStatus `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if !body.Status.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    b, err := h.svc.UpdateBookingStatus(c.Request().Context(), id, body.Status)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        case errors.Is(err, repository.ErrInvalidTransition):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status transition"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": b})
}
