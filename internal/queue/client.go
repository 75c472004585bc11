package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Queue and exchange names. Each queue is bound to a durable direct
// exchange of the same name with the name as routing key, so both the
// topology and in-flight messages survive a broker restart.
const (
    BookingCreatedQueue = "booking.created"
    ReminderQueue       = "booking.reminder"
    DeadLetterQueue     = "booking.created.dead"
)

// Client owns the process-wide broker connection and channel. It is
// dialed once at startup and closed at shutdown; publish and consume
// paths share it instead of opening a connection per call. When the
// broker drops the connection, the next use redials.
type Client struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// Dial connects to the broker, opens a channel and declares the full
// topology. The returned client is safe for concurrent use.
func Dial(url string) (*Client, error) {
    c := &Client{url: url}
    if _, err := c.channel(); err != nil {
        return nil, err
    }
    return c, nil
}

// Close shuts the channel and connection down. Safe to call on an
// already-closed client.
func (c *Client) Close() error {
    c.mu.Lock()
    defer c.mu.Unlock()
    if c.ch != nil {
        _ = c.ch.Close()
        c.ch = nil
    }
    if c.conn != nil {
        err := c.conn.Close()
        c.conn = nil
        return err
    }
    return nil
}

// channel returns the live channel, redialing when the previous
// connection has been lost.
func (c *Client) channel() (*amqp.Channel, error) {
    c.mu.Lock()
    defer c.mu.Unlock()
    if c.conn != nil && !c.conn.IsClosed() && c.ch != nil && !c.ch.IsClosed() {
        return c.ch, nil
    }
    conn, err := amqp.Dial(c.url)
    if err != nil {
        return nil, fmt.Errorf("amqp dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("amqp channel: %w", err)
    }
    if err := declareTopology(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    c.conn = conn
    c.ch = ch
    return ch, nil
}

// declareTopology asserts every queue, exchange and binding the service
// uses. Declarations are idempotent and durable.
func declareTopology(ch *amqp.Channel) error {
    for _, name := range []string{BookingCreatedQueue, ReminderQueue, DeadLetterQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        if err := ch.ExchangeDeclare(name, "direct", true, false, false, false, nil); err != nil {
            return fmt.Errorf("exchange declare %s: %w", name, err)
        }
        if err := ch.QueueBind(name, name, name, false, nil); err != nil {
            return fmt.Errorf("queue bind %s: %w", name, err)
        }
    }
    return nil
}

// PublishBookingCreated emits one booking-created event. Failures are
// returned for the caller to log; a failed publish never rolls the
// booking back.
func (c *Client) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
    return c.publishJSON(ctx, BookingCreatedQueue, ev)
}

// PublishReminder enqueues a scheduled reminder message.
func (c *Client) PublishReminder(ctx context.Context, ev ReminderEvent) error {
    return c.publishJSON(ctx, ReminderQueue, ev)
}

// PublishDeadLetter parks a poison message on the dead-letter queue so
// it stops cycling through the consumer but stays available for
// inspection.
func (c *Client) PublishDeadLetter(ctx context.Context, body []byte) error {
    return c.publish(ctx, DeadLetterQueue, body)
}

func (c *Client) publishJSON(ctx context.Context, name string, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return err
    }
    return c.publish(ctx, name, body)
}

func (c *Client) publish(ctx context.Context, name string, body []byte) error {
    ch, err := c.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, name, name, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish to %s failed: %v", name, err)
        return err
    }
    return nil
}
