// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/ui/styles"
	"github.com/voyantic/farewatch-tui/internal/util"
)

// =============================================================================
// PRICE TABLE
// =============================================================================

// Column widths for the price panel.
const (
	tripColWidth  = 22
	priceColWidth = 12
)

// PriceTable renders the latest price update per trip. Rows keep the order
// in which trips first appeared; updated trips change in place, mirroring
// the channel's update set.
type PriceTable struct {
	theme    *styles.Theme
	updates  []model.PriceUpdate
	previous map[string]float64
}

// NewPriceTable creates an empty table.
func NewPriceTable(theme *styles.Theme) *PriceTable {
	return &PriceTable{
		theme:    theme,
		previous: make(map[string]float64),
	}
}

// SetUpdates replaces the rows with a fresh snapshot, remembering prior
// totals so rises and drops can be colored.
func (p *PriceTable) SetUpdates(updates []model.PriceUpdate) {
	for _, u := range p.updates {
		if u.TotalPrice != nil {
			p.previous[u.TripID] = u.TotalPrice.Value
		}
	}
	p.updates = updates
}

// Empty reports whether there is anything to show.
func (p *PriceTable) Empty() bool {
	return len(p.updates) == 0
}

// Render returns the framed price panel.
func (p *PriceTable) Render() string {
	if len(p.updates) == 0 {
		return p.theme.PricePanel.Render(p.theme.InputPlaceholder.Render("No price updates yet"))
	}

	header := p.theme.PriceHeader.Render(
		util.PadWidth("Trip", tripColWidth) +
			util.PadLeftWidth("Flight", priceColWidth) +
			util.PadLeftWidth("Hotel", priceColWidth) +
			util.PadLeftWidth("Total", priceColWidth))

	rows := []string{header}
	for _, u := range p.updates {
		rows = append(rows, p.renderRow(u))
	}
	return p.theme.PricePanel.Render(strings.Join(rows, "\n"))
}

func (p *PriceTable) renderRow(u model.PriceUpdate) string {
	name := u.TripName
	if name == "" {
		name = u.TripID
	}

	row := p.theme.PriceRow.Render(util.PadWidth(name, tripColWidth)) +
		util.PadLeftWidth(formatPrice(u.FlightPrice), priceColWidth) +
		util.PadLeftWidth(formatPrice(u.HotelPrice), priceColWidth)

	total := util.PadLeftWidth(formatPrice(u.TotalPrice), priceColWidth)
	switch p.direction(u) {
	case -1:
		total = p.theme.PriceDrop.Render(total + " ↓")
	case 1:
		total = p.theme.PriceRise.Render(total + " ↑")
	}
	return row + total
}

// direction compares against the previously seen total: -1 for a drop,
// 1 for a rise, 0 for unchanged or unknown.
func (p *PriceTable) direction(u model.PriceUpdate) int {
	if u.TotalPrice == nil {
		return 0
	}
	prev, ok := p.previous[u.TripID]
	switch {
	case !ok || prev == u.TotalPrice.Value:
		return 0
	case u.TotalPrice.Value < prev:
		return -1
	default:
		return 1
	}
}

func formatPrice(m *model.Money) string {
	if m == nil {
		return "—"
	}
	return m.Format()
}
