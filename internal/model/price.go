// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// MONEY TYPE
// =============================================================================

// Money is an amount in a specific currency.
type Money struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Format renders the amount with its currency symbol, e.g. "$1,234.56".
// Unknown currency codes fall back to "CODE value".
func (m Money) Format() string {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		p := message.NewPrinter(language.English)
		if m.Currency == "" {
			return p.Sprintf("%.2f", m.Value)
		}
		return p.Sprintf("%s %.2f", m.Currency, m.Value)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(m.Value)))
}

// =============================================================================
// PRICE UPDATE RECORD
// =============================================================================

// PriceUpdate is one price-change notification for a trip. Nil price fields
// mean the server had no quote for that component.
type PriceUpdate struct {
	// Type discriminates payloads arriving on the unnamed fallback channel;
	// named price_update events carry it too but do not depend on it.
	Type string `json:"type,omitempty"`

	TripID      string    `json:"trip_id"`
	TripName    string    `json:"trip_name"`
	FlightPrice *Money    `json:"flight_price"`
	HotelPrice  *Money    `json:"hotel_price"`
	TotalPrice  *Money    `json:"total_price"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParsePriceUpdate decodes a price_update event payload.
func ParsePriceUpdate(data []byte) (*PriceUpdate, error) {
	var update PriceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, err
	}
	return &update, nil
}

// Total returns the formatted total price, or "—" when no total was quoted.
func (u *PriceUpdate) Total() string {
	if u.TotalPrice == nil {
		return "—"
	}
	return u.TotalPrice.Format()
}
