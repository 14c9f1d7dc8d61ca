package services

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripplanner/config"
)

// AffiliateLinks fills partner URL templates. Placeholders look like {origin}.
type AffiliateLinks struct {
	cfg config.AffiliateConfig
}

func NewAffiliateLinks(cfg config.AffiliateConfig) *AffiliateLinks {
	return &AffiliateLinks{cfg: cfg}
}

// FlightLink builds a flight search deep link. Dates are YYYY-MM-DD.
func (a *AffiliateLinks) FlightLink(origin, destination, depart, ret string, adults int) string {
	link := fill(a.cfg.FlightTemplate, map[string]string{
		"origin":      strings.ToLower(origin),
		"destination": strings.ToLower(destination),
		"depart":      compactDate(depart),
		"return":      compactDate(ret),
		"adults":      strconv.Itoa(max(1, adults)),
		"partner":     a.cfg.FlightPartnerID,
	})
	// one-way searches leave an empty path segment behind
	return strings.Replace(link, "//?", "/?", 1)
}

func (a *AffiliateLinks) HotelLink(city, checkIn, checkOut string, adults int) string {
	return fill(a.cfg.HotelTemplate, map[string]string{
		"city":     city,
		"checkin":  checkIn,
		"checkout": checkOut,
		"adults":   strconv.Itoa(max(1, adults)),
		"partner":  a.cfg.HotelPartnerID,
	})
}

func (a *AffiliateLinks) ActivityLink(city string) string {
	return fill(a.cfg.ActivityTemplate, map[string]string{
		"city":    city,
		"partner": a.cfg.ActivityPartnerID,
	})
}

// AttachFlightLinks sets BookingLink on every flight that lacks one.
func (a *AffiliateLinks) AttachFlightLinks(flights []Flight, q FlightQuery) {
	for i := range flights {
		if flights[i].BookingLink == "" {
			flights[i].BookingLink = a.FlightLink(q.Origin, q.Destination, q.DepartureDate, q.ReturnDate, q.Adults)
		}
	}
}

func (a *AffiliateLinks) AttachHotelLinks(hotels []Hotel, q HotelQuery) {
	for i := range hotels {
		if hotels[i].BookingLink == "" {
			name := hotels[i].Name
			if hotels[i].Location != "" {
				name += ", " + hotels[i].Location
			}
			hotels[i].BookingLink = a.HotelLink(name, q.CheckIn, q.CheckOut, q.Adults)
		}
	}
}

func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", url.QueryEscape(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// compactDate turns 2026-05-01 into 260501, the format flight search paths expect.
func compactDate(d string) string {
	t, err := time.Parse(time.DateOnly, d)
	if err != nil {
		return ""
	}
	return t.Format("060102")
}
