// Package draft moves a BookingDraft in and out of URL query parameters.
// The booking flow carries no server session; every page receives the draft
// through the query string.
package draft

import (
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"

	"github.com/pentacabs/booking-api/internal/domain"
)

// Encode renders a draft as query parameters for the next page in the flow.
func Encode(d *domain.BookingDraft) (url.Values, error) {
	return query.Values(d)
}

// Decode rebuilds a draft from query parameters. Numeric fields that fail to
// parse default to 0, mirroring the front-end's handling of a bad fare value.
func Decode(values url.Values) *domain.BookingDraft {
	return &domain.BookingDraft{
		ServiceType: values.Get("serviceType"),
		TripType:    values.Get("tripType"),
		Origin:      values.Get("origin"),
		Destination: values.Get("destination"),
		Airport:     values.Get("airport"),
		Address:     values.Get("address"),
		City:        values.Get("city"),
		Package:     values.Get("package"),
		Date:        values.Get("date"),
		Time:        values.Get("time"),
		Name:        values.Get("name"),
		Mobile:      values.Get("mobile"),
		Email:       values.Get("email"),
		CabType:     values.Get("cabType"),
		CabPrice:    parseInt64(values.Get("cabPrice")),
		CabCapacity: int(parseInt64(values.Get("cabCapacity"))),
	}
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
