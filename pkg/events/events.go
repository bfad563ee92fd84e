package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pentacabs/booking-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	// Booking events
	BookingCreated = "booking.created"

	// Payment events
	PaymentOrderCreated = "payment.order.created"
	PaymentCaptured     = "payment.captured"
	PaymentFailed       = "payment.failed"
	PaymentCanceled     = "payment.canceled"

	// Notification events
	NotifySend = "notify.send"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID       int64     `json:"booking_id"`
	CustomBookingID string    `json:"custom_booking_id"`
	ServiceType     string    `json:"service_type"`
	TripType        string    `json:"trip_type"`
	Pickup          string    `json:"pickup"`
	Dropoff         string    `json:"dropoff"`
	TravelDate      string    `json:"travel_date"`
	TravelTime      string    `json:"travel_time"`
	TravelerName    string    `json:"traveler_name"`
	TravelerEmail   string    `json:"traveler_email"`
	PaymentMethod   string    `json:"payment_method"`
	AdvanceAmount   int64     `json:"advance_amount"`
	TotalFare       int64     `json:"total_fare"`
	CreatedAt       time.Time `json:"created_at"`
}

type PaymentOrderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	Tier      string    `json:"tier"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentCapturedEvent struct {
	OrderID         string    `json:"order_id"`
	PaymentID       string    `json:"payment_id"`
	CustomBookingID string    `json:"custom_booking_id"`
	Amount          int64     `json:"amount"`
	CapturedAt      time.Time `json:"captured_at"`
}

type PaymentFailedEvent struct {
	OrderID  string    `json:"order_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type PaymentCanceledEvent struct {
	OrderID    string    `json:"order_id"`
	CanceledAt time.Time `json:"canceled_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data"`
}
