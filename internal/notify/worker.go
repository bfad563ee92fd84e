package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pentacabs/booking-api/internal/mailer"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
)

// Notification types carried on the notify.send subject.
const (
	TypeAirport   = "airport"
	TypeLocal     = "local"
	TypeIntercity = "intercity"
)

// Worker consumes notification events and delivers emails. Delivery is
// best effort; failures are logged and the event is dropped.
type Worker struct {
	bus    events.Subscriber
	mailer mailer.Mailer
}

func NewWorker(bus events.Subscriber, m mailer.Mailer) *Worker {
	return &Worker{bus: bus, mailer: m}
}

func (w *Worker) Start() error {
	if err := w.bus.QueueSubscribe(events.NotifySend, "notify-workers", w.handleNotification); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.NotifySend, err)
	}

	if err := w.bus.QueueSubscribe(events.BookingCreated, "notify-workers", w.handleBookingCreated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.BookingCreated, err)
	}

	logger.Info("Notification worker started", "subjects", []string{events.NotifySend, events.BookingCreated})
	return nil
}

func (w *Worker) handleNotification(msg *events.Message) {
	var event events.NotificationEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode notification event", "error", err)
		return
	}

	if strings.TrimSpace(event.Recipient) == "" {
		logger.Warn("Notification event without recipient", "type", event.Type)
		return
	}

	text, html := buildTripBody(event.Type, event.Data)

	email := &mailer.Message{
		ToEmail: event.Recipient,
		ToName:  str(event.Data, "name"),
		Subject: event.Subject,
		Text:    text,
		HTML:    html,
	}

	if err := w.mailer.Send(email); err != nil {
		logger.Error("Failed to send notification email",
			"type", event.Type,
			"recipient", event.Recipient,
			"error", err,
		)
		return
	}

	logger.Info("Notification email sent", "type", event.Type, "recipient", event.Recipient)
}

func (w *Worker) handleBookingCreated(msg *events.Message) {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking created event", "error", err)
		return
	}

	if strings.TrimSpace(event.TravelerEmail) == "" {
		return
	}

	email := &mailer.Message{
		ToEmail: event.TravelerEmail,
		ToName:  event.TravelerName,
		Subject: fmt.Sprintf("Booking Confirmed - %s", event.CustomBookingID),
		Text:    bookingConfirmationText(&event),
		HTML:    bookingConfirmationHTML(&event),
	}

	if err := w.mailer.Send(email); err != nil {
		logger.Error("Failed to send booking confirmation email",
			"booking_id", event.CustomBookingID,
			"recipient", event.TravelerEmail,
			"error", err,
		)
		return
	}

	logger.Info("Booking confirmation email sent",
		"booking_id", event.CustomBookingID,
		"recipient", event.TravelerEmail,
	)
}

func buildTripBody(notifType string, data map[string]interface{}) (text, html string) {
	var route string
	switch notifType {
	case TypeAirport:
		route = fmt.Sprintf("%s ↔ %s", str(data, "address"), str(data, "airport"))
	case TypeLocal:
		route = fmt.Sprintf("%s (%s)", str(data, "city"), str(data, "package"))
	default:
		route = fmt.Sprintf("%s → %s", str(data, "origin"), str(data, "destination"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", str(data, "name"))
	fmt.Fprintf(&b, "Thank you for choosing Penta Cabs. Here are your trip details:\n\n")
	fmt.Fprintf(&b, "Route: %s\n", route)
	fmt.Fprintf(&b, "Date: %s\n", str(data, "date"))
	fmt.Fprintf(&b, "Time: %s\n", str(data, "time"))
	fmt.Fprintf(&b, "Cab: %s\n", str(data, "cabType"))
	if fare := str(data, "cabPrice"); fare != "" {
		fmt.Fprintf(&b, "Fare: ₹%s\n", fare)
	}
	fmt.Fprintf(&b, "\nOur team will contact you on %s to confirm pickup.\n", str(data, "mobile"))
	fmt.Fprintf(&b, "\nPenta Cabs\n")
	text = b.String()

	html = fmt.Sprintf(`
		<h2>Your Penta Cabs Trip</h2>
		<p>Dear %s,</p>
		<p>Thank you for choosing Penta Cabs. Here are your trip details:</p>
		<table style="border-collapse: collapse;">
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Route</strong></td><td>%s</td></tr>
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Date</strong></td><td>%s</td></tr>
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Time</strong></td><td>%s</td></tr>
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Cab</strong></td><td>%s</td></tr>
		</table>
		<p>Our team will contact you on %s to confirm pickup.</p>
		<p>Penta Cabs</p>
	`, str(data, "name"), route, str(data, "date"), str(data, "time"), str(data, "cabType"), str(data, "mobile"))

	return text, html
}

func bookingConfirmationText(event *events.BookingCreatedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", event.TravelerName)
	fmt.Fprintf(&b, "Your booking %s is confirmed.\n\n", event.CustomBookingID)
	fmt.Fprintf(&b, "Route: %s → %s\n", event.Pickup, event.Dropoff)
	fmt.Fprintf(&b, "Date: %s at %s\n", event.TravelDate, event.TravelTime)
	fmt.Fprintf(&b, "Total fare: ₹%d\n", event.TotalFare)
	if event.AdvanceAmount > 0 {
		fmt.Fprintf(&b, "Paid in advance: ₹%d\n", event.AdvanceAmount)
		fmt.Fprintf(&b, "Balance due to driver: ₹%d\n", event.TotalFare-event.AdvanceAmount)
	} else {
		fmt.Fprintf(&b, "Payment: cash to driver\n")
	}
	fmt.Fprintf(&b, "\nKeep your booking ID %s handy for any queries.\n", event.CustomBookingID)
	fmt.Fprintf(&b, "\nPenta Cabs\n")
	return b.String()
}

func bookingConfirmationHTML(event *events.BookingCreatedEvent) string {
	var payment string
	if event.AdvanceAmount > 0 {
		payment = fmt.Sprintf("Paid in advance: ₹%d · Balance due to driver: ₹%d",
			event.AdvanceAmount, event.TotalFare-event.AdvanceAmount)
	} else {
		payment = "Payment: cash to driver"
	}

	return fmt.Sprintf(`
		<h2>Booking Confirmed</h2>
		<p>Dear %s,</p>
		<p>Your booking <strong style="font-size: 18px;">%s</strong> is confirmed.</p>
		<table style="border-collapse: collapse;">
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Route</strong></td><td>%s → %s</td></tr>
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Date</strong></td><td>%s at %s</td></tr>
			<tr><td style="padding: 4px 12px 4px 0;"><strong>Total fare</strong></td><td>₹%d</td></tr>
		</table>
		<p>%s</p>
		<p>Keep your booking ID handy for any queries.</p>
		<p>Penta Cabs</p>
	`, event.TravelerName, event.CustomBookingID, event.Pickup, event.Dropoff,
		event.TravelDate, event.TravelTime, event.TotalFare, payment)
}

func str(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
