package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/notify"
	"github.com/pentacabs/booking-api/internal/response"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
)

// SendAirportEmail queues a trip-details email for an airport transfer.
func (h *Handlers) SendAirportEmail(w http.ResponseWriter, r *http.Request) {
	h.sendTripEmail(w, r, notify.TypeAirport)
}

// SendLocalEmail queues a trip-details email for a local rental.
func (h *Handlers) SendLocalEmail(w http.ResponseWriter, r *http.Request) {
	h.sendTripEmail(w, r, notify.TypeLocal)
}

// SendIntercityEmail queues a trip-details email for an outstation trip.
func (h *Handlers) SendIntercityEmail(w http.ResponseWriter, r *http.Request) {
	h.sendTripEmail(w, r, notify.TypeIntercity)
}

// sendTripEmail is fire and forget: delivery problems are logged and the
// booking flow never waits on them.
func (h *Handlers) sendTripEmail(w http.ResponseWriter, r *http.Request, notifType string) {
	var draft domain.BookingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if !domain.IsValidEmail(draft.Email) {
		response.BadRequest(w, "A valid email is required")
		return
	}

	event := events.NotificationEvent{
		Type:      notifType,
		Recipient: domain.NormalizeEmail(draft.Email),
		Subject:   fmt.Sprintf("Your Penta Cabs Trip Details - %s", draft.Date),
		Data: map[string]interface{}{
			"name":        draft.Name,
			"mobile":      draft.Mobile,
			"origin":      draft.Origin,
			"destination": draft.Destination,
			"airport":     draft.Airport,
			"address":     draft.Address,
			"city":        draft.City,
			"package":     draft.Package,
			"date":        draft.Date,
			"time":        draft.Time,
			"cabType":     draft.CabType,
			"cabPrice":    draft.CabPrice,
		},
	}

	if err := h.publisher.Publish(r.Context(), events.NotifySend, event); err != nil {
		logger.ErrorContext(r.Context(), "Failed to queue notification email",
			"type", notifType,
			"recipient", event.Recipient,
			"error", err,
		)
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}
