package domain

import (
	"fmt"
	"strings"
	"time"
)

type ServiceType string

const (
	ServiceAirport    ServiceType = "AIRPORT"
	ServiceLocal      ServiceType = "LOCAL"
	ServiceOutstation ServiceType = "OUTSTATION"
)

func ParseServiceType(s string) (ServiceType, bool) {
	switch ServiceType(strings.ToUpper(strings.TrimSpace(s))) {
	case ServiceAirport, ServiceLocal, ServiceOutstation:
		return ServiceType(strings.ToUpper(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

type TripType string

const (
	TripOneway   TripType = "ONEWAY"
	TripRoundway TripType = "ROUNDWAY"
)

func ParseTripType(s string) (TripType, bool) {
	switch TripType(strings.ToUpper(strings.TrimSpace(s))) {
	case TripOneway, TripRoundway:
		return TripType(strings.ToUpper(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

// BookingDraft is the transient trip request a visitor assembles on the site.
// It travels between pages as URL query parameters and is never persisted on
// its own; only a confirmed BookingRequest reaches the database.
type BookingDraft struct {
	ServiceType string `json:"serviceType" url:"serviceType"`
	TripType    string `json:"tripType" url:"tripType"`

	// OUTSTATION routes
	Origin      string `json:"origin,omitempty" url:"origin,omitempty"`
	Destination string `json:"destination,omitempty" url:"destination,omitempty"`

	// AIRPORT routes
	Airport string `json:"airport,omitempty" url:"airport,omitempty"`
	Address string `json:"address,omitempty" url:"address,omitempty"`

	// LOCAL rentals
	City    string `json:"city,omitempty" url:"city,omitempty"`
	Package string `json:"package,omitempty" url:"package,omitempty"`

	Date string `json:"date" url:"date"`
	Time string `json:"time" url:"time"`

	Name   string `json:"name" url:"name"`
	Mobile string `json:"mobile" url:"mobile"`
	Email  string `json:"email" url:"email"`

	CabType     string `json:"cabType" url:"cabType"`
	CabPrice    int64  `json:"cabPrice" url:"cabPrice"`
	CabCapacity int    `json:"cabCapacity" url:"cabCapacity"`
}

// Route returns the pickup and dropoff labels for the draft's service type.
func (d *BookingDraft) Route() (pickup, dropoff string) {
	switch ServiceType(d.ServiceType) {
	case ServiceAirport:
		return d.Airport, d.Address
	case ServiceLocal:
		return d.City, d.Package
	default:
		return d.Origin, d.Destination
	}
}

func (d *BookingDraft) Validate() error {
	if _, ok := ParseServiceType(d.ServiceType); !ok {
		return fmt.Errorf("unknown service type %q", d.ServiceType)
	}
	if _, ok := ParseTripType(d.TripType); !ok {
		return fmt.Errorf("unknown trip type %q", d.TripType)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("traveler name is required")
	}
	if !IsValidEmail(d.Email) {
		return fmt.Errorf("invalid traveler email")
	}
	if !IsValidPhone(d.Mobile) {
		return fmt.Errorf("invalid traveler mobile")
	}
	if strings.TrimSpace(d.Date) == "" || strings.TrimSpace(d.Time) == "" {
		return fmt.Errorf("travel date and time are required")
	}
	pickup, dropoff := d.Route()
	if strings.TrimSpace(pickup) == "" || strings.TrimSpace(dropoff) == "" {
		return fmt.Errorf("route is incomplete")
	}
	if strings.TrimSpace(d.CabType) == "" {
		return fmt.Errorf("no cab selected")
	}
	if d.CabPrice < 0 {
		return fmt.Errorf("cab price cannot be negative")
	}
	return nil
}

type PaymentMethod string

const (
	PayCash    PaymentMethod = "cash"
	PayGateway PaymentMethod = "razorpay"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCanceled  BookingStatus = "canceled"
)

// BookingRequest is the record the API owns once a trip is booked, either via
// the cash path or after a verified gateway payment.
type BookingRequest struct {
	ID              int64         `json:"id"`
	CustomBookingID string        `json:"customBookingId"`
	ManageToken     string        `json:"manage_token,omitempty"`
	Status          BookingStatus `json:"status"`
	ServiceType     ServiceType   `json:"service_type"`
	TripType        TripType      `json:"trip_type"`
	Pickup          string        `json:"pickup"`
	Dropoff         string        `json:"dropoff"`
	TravelDate      string        `json:"travel_date"`
	TravelTime      string        `json:"travel_time"`
	TravelerName    string        `json:"traveler_name"`
	TravelerMobile  string        `json:"traveler_mobile"`
	TravelerEmail   string        `json:"traveler_email"`
	CabType         string        `json:"cab_type"`
	CabCapacity     int           `json:"cab_capacity"`
	TotalFare       int64         `json:"total_fare"`
	AdvanceAmount   int64         `json:"advance_amount"`
	PlatformFee     int64         `json:"platform_fee"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentOrderID  *string       `json:"payment_order_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsOwner checks if the given email owns this booking
func (b *BookingRequest) IsOwner(email string) bool {
	return strings.EqualFold(b.TravelerEmail, email)
}

// CabOption is one selectable cab for a searched route.
type CabOption struct {
	CabType  string `json:"cabType"`
	Price    int64  `json:"price"`
	Capacity int    `json:"capacity"`
}
