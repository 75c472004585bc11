package queue

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/skywings/booking-service/internal/client"
    "github.com/skywings/booking-service/internal/model"
    "github.com/skywings/booking-service/internal/repository"
)

// ConfirmStore is the slice of the booking repository the consumer
// needs: the conditional pending->confirmed transition and a re-fetch
// of the confirmed row.
type ConfirmStore interface {
    ConfirmPending(ctx context.Context, id string) (bool, error)
    GetByID(ctx context.Context, id string) (*model.Booking, error)
}

// Inventory is the slice of the flight service client the consumer
// needs: the seat decrement and the enriched flight detail.
type Inventory interface {
    GetFlight(ctx context.Context, id string) (*model.FlightDetail, error)
    ReserveSeat(ctx context.Context, flightID string, class model.SeatType, seats int) error
}

// ReminderPublisher emits reminder messages and parks poison ones.
type ReminderPublisher interface {
    PublishReminder(ctx context.Context, ev ReminderEvent) error
    PublishDeadLetter(ctx context.Context, body []byte) error
}

// Consumer is the long-lived subscriber on the booking.created queue.
// One sequential loop per process: each delivery is fully handled and
// acknowledged before the next is read. Acknowledgment happens only
// after every side effect succeeded, so a crash mid-handle leads to
// redelivery; the pending->confirmed transition gates the non-idempotent
// effects (inventory decrement, reminder publish) so redelivery does not
// repeat them.
type Consumer struct {
    Client  *Client
    Store   ConfirmStore
    Flights Inventory
    Pub     ReminderPublisher
    Retries RetryTracker
    // Compose builds the reminder message from the confirmed booking and
    // its flight detail.
    Compose func(b *model.Booking, f *model.FlightDetail) (ReminderEvent, error)
    // MaxRetries is the ceiling on redeliveries before a message is
    // dead-lettered.
    MaxRetries int
    // HandleTimeout bounds the outbound calls made for one delivery.
    HandleTimeout time.Duration
}

// Run consumes booking.created until ctx is cancelled. Broker failures
// are retried with exponential backoff, mirroring the publish side's
// reconnect behaviour.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        deliveries, err := c.Client.consume(BookingCreatedQueue)
        if err != nil {
            log.Printf("booking-consumer: consume setup failed: %v; retrying in %s", err, backoff)
            select {
            case <-time.After(backoff):
            case <-ctx.Done():
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful subscribe
        if err := c.loop(ctx, deliveries); err != nil {
            return err
        }
        log.Printf("booking-consumer: deliveries channel closed; reconnecting")
    }
}

func (c *Consumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) error {
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-deliveries:
            if !ok {
                return nil
            }
            c.handle(ctx, d)
        }
    }
}

// consume subscribes to a queue with manual acknowledgment and a
// prefetch of one, keeping the processing loop strictly sequential.
func (c *Client) consume(queueName string) (<-chan amqp.Delivery, error) {
    ch, err := c.channel()
    if err != nil {
        return nil, err
    }
    if err := ch.Qos(1, 0, false); err != nil {
        return nil, err
    }
    return ch.Consume(queueName, "", false, false, false, false, nil)
}

// handle processes one booking-created delivery end to end:
// confirm the booking, decrement inventory, fetch flight detail,
// compose the reminder and publish it, then ack. Failures are either
// poison (dead-letter + ack) or retryable (requeue up to MaxRetries,
// then dead-letter).
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
    ctx, cancel := context.WithTimeout(ctx, c.HandleTimeout)
    defer cancel()

    var ev BookingCreatedEvent
    if err := json.Unmarshal(d.Body, &ev); err != nil || ev.BookingID == "" {
        log.Printf("booking-consumer: malformed payload, dead-lettering: %v", err)
        c.deadLetter(ctx, d)
        return
    }

    transitioned, err := c.Store.ConfirmPending(ctx, ev.BookingID)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            log.Printf("booking-consumer: booking %s not found, dead-lettering", ev.BookingID)
            c.deadLetter(ctx, d)
            return
        }
        c.retry(ctx, d, ev.BookingID, err)
        return
    }
    if !transitioned {
        // Redelivery of an already-processed message: the first handling
        // got at least as far as the status flip, so the inventory
        // decrement and reminder publish must not run again.
        log.Printf("booking-consumer: booking %s already processed, acking redelivery", ev.BookingID)
        _ = c.Retries.Clear(ctx, ev.BookingID)
        _ = d.Ack(false)
        return
    }

    b, err := c.Store.GetByID(ctx, ev.BookingID)
    if err != nil {
        c.retry(ctx, d, ev.BookingID, err)
        return
    }
    if err := c.Flights.ReserveSeat(ctx, b.FlightID, b.SeatType, 1); err != nil {
        c.retry(ctx, d, ev.BookingID, err)
        return
    }
    flight, err := c.Flights.GetFlight(ctx, b.FlightID)
    if err != nil {
        if errors.Is(err, client.ErrNotFound) {
            log.Printf("booking-consumer: flight %s not found for booking %s, dead-lettering", b.FlightID, b.ID)
            c.deadLetter(ctx, d)
            return
        }
        c.retry(ctx, d, ev.BookingID, err)
        return
    }
    reminder, err := c.Compose(b, flight)
    if err != nil {
        c.retry(ctx, d, ev.BookingID, err)
        return
    }
    if err := c.Pub.PublishReminder(ctx, reminder); err != nil {
        c.retry(ctx, d, ev.BookingID, err)
        return
    }

    _ = c.Retries.Clear(ctx, ev.BookingID)
    _ = d.Ack(false)
}

// retry requeues the delivery unless the booking has already hit the
// retry ceiling, in which case the message is dead-lettered.
func (c *Consumer) retry(ctx context.Context, d amqp.Delivery, bookingID string, cause error) {
    n, err := c.Retries.Bump(ctx, bookingID)
    if err != nil {
        log.Printf("booking-consumer: retry tracking failed for %s: %v", bookingID, err)
        n = 1
    }
    if n > c.MaxRetries {
        log.Printf("booking-consumer: booking %s failed %d times (%v), dead-lettering", bookingID, n, cause)
        c.deadLetter(ctx, d)
        return
    }
    log.Printf("booking-consumer: booking %s attempt %d failed: %v; requeueing", bookingID, n, cause)
    _ = d.Nack(false, true)
}

// deadLetter parks the message body on the dead-letter queue and acks
// the original. If parking itself fails the message is requeued so it
// is not lost.
func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery) {
    if err := c.Pub.PublishDeadLetter(ctx, d.Body); err != nil {
        log.Printf("booking-consumer: dead-letter publish failed: %v; requeueing original", err)
        _ = d.Nack(false, true)
        return
    }
    _ = d.Ack(false)
}
