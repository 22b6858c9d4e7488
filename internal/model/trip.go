// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Trip is one tracked itinerary with its latest known prices.
type Trip struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	FlightPrice *Money     `json:"flight_price"`
	HotelPrice  *Money     `json:"hotel_price"`
	TotalPrice  *Money     `json:"total_price"`
	LastChecked *time.Time `json:"last_checked"`
}

// ApplyUpdate folds a push notification into the trip. Nil prices on the
// update leave the existing quote in place.
func (t *Trip) ApplyUpdate(u *PriceUpdate) {
	if u == nil || u.TripID != t.ID {
		return
	}
	if u.FlightPrice != nil {
		t.FlightPrice = u.FlightPrice
	}
	if u.HotelPrice != nil {
		t.HotelPrice = u.HotelPrice
	}
	if u.TotalPrice != nil {
		t.TotalPrice = u.TotalPrice
	}
	if !u.UpdatedAt.IsZero() {
		ts := u.UpdatedAt
		t.LastChecked = &ts
	}
}
