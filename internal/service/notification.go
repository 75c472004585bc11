package service

import (
    "bytes"
    "fmt"
    "html/template"
    "time"

    "github.com/skywings/booking-service/internal/model"
    "github.com/skywings/booking-service/internal/queue"
)

// reminderLead is the fixed interval before departure at which the
// reminder should be delivered.
const reminderLead = 4 * time.Hour

// notificationData feeds the confirmation body template.
type notificationData struct {
    Email            string
    SeatType         model.SeatType
    SeatNumber       string
    TotalPrice       float64
    FlightNumber     string
    AirplaneName     string
    DepartureAirport model.Airport
    ArrivalAirport   model.Airport
    DepartureTime    string
    ArrivalTime      string
}

var bodyTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8" /></head>
<body>
  <div class="container">
    <h2>Booking Confirmation</h2>
    <p>Dear Customer,</p>
    <p>Your flight booking has been successfully confirmed. Please find your flight and booking details below:</p>
    <div class="section">
      <p><span class="label">Flight Number:</span> {{.FlightNumber}}</p>
      <p><span class="label">Airplane:</span> {{.AirplaneName}}</p>
      <p><span class="label">Seat:</span> {{.SeatNumber}} ({{.SeatType}})</p>
      <p><span class="label">Total Price:</span> {{printf "%.2f" .TotalPrice}}</p>
    </div>
    <div class="section">
      <h3>Departure</h3>
      <p><span class="label">Airport:</span> {{.DepartureAirport.Name}}, {{.DepartureAirport.City}}, {{.DepartureAirport.Country}}</p>
      <p><span class="label">Time:</span> {{.DepartureTime}}</p>
    </div>
    <div class="section">
      <h3>Arrival</h3>
      <p><span class="label">Airport:</span> {{.ArrivalAirport.Name}}, {{.ArrivalAirport.City}}, {{.ArrivalAirport.Country}}</p>
      <p><span class="label">Time:</span> {{.ArrivalTime}}</p>
    </div>
    <p>Please carry a valid ID and arrive at the airport at least 2 hours prior to departure.</p>
    <p>We look forward to having you on board. Safe travels!</p>
    <div class="footer">This confirmation was sent to {{.Email}}.<br />SkyWings Airlines</div>
  </div>
</body>
</html>`))

// formatLocalTime renders a timestamp the way the notification surface
// expects it: day/month/year hour:minute, unpadded.
func formatLocalTime(t time.Time) string {
    return fmt.Sprintf("%d/%d/%d %d:%d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// NotificationSubject builds the reminder subject line for a flight.
func NotificationSubject(flightNumber string, departure time.Time) string {
    return fmt.Sprintf("Booking Confirmed: Flight %s on %s", flightNumber, formatLocalTime(departure))
}

// BuildReminder is the reminder scheduler: a pure transform from a
// confirmed booking and its flight detail into the message handed to
// the reminder queue. The delivery time is departure minus the fixed
// lead; running timers is the downstream consumer's job.
func BuildReminder(b *model.Booking, f *model.FlightDetail) (queue.ReminderEvent, error) {
    var body bytes.Buffer
    err := bodyTemplate.Execute(&body, notificationData{
        Email:            b.Email,
        SeatType:         b.SeatType,
        SeatNumber:       b.SeatNumber,
        TotalPrice:       b.TotalPrice,
        FlightNumber:     f.FlightNumber,
        AirplaneName:     f.Airplane.Name,
        DepartureAirport: f.DepartureAirport,
        ArrivalAirport:   f.ArrivalAirport,
        DepartureTime:    formatLocalTime(f.DepartureTime),
        ArrivalTime:      formatLocalTime(f.ArrivalTime),
    })
    if err != nil {
        return queue.ReminderEvent{}, fmt.Errorf("render notification body: %w", err)
    }
    return queue.ReminderEvent{
        Subject:          NotificationSubject(f.FlightNumber, f.DepartureTime),
        Body:             body.String(),
        Email:            b.Email,
        NotificationTime: f.DepartureTime.Add(-reminderLead),
        FlightNumber:     f.FlightNumber,
        SeatType:         string(b.SeatType),
        SeatNumber:       b.SeatNumber,
        TotalPrice:       b.TotalPrice,
        DepartureTime:    f.DepartureTime,
    }, nil
}
