// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// STREAM FRAME TESTS
// =============================================================================

func TestParseStreamFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, frame *StreamFrame)
	}{
		{
			name:    "content frame",
			payload: `{"type":"content","content":"Hello"}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.Type != FrameContent || frame.Content != "Hello" {
					t.Errorf("got type=%q content=%q", frame.Type, frame.Content)
				}
			},
		},
		{
			name:    "tool call frame",
			payload: `{"type":"tool_call","tool_call":{"id":"tc1","name":"search_flights","arguments":"{\"dest\":\"NRT\"}"}}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.ToolCall == nil {
					t.Fatal("ToolCall is nil")
				}
				if frame.ToolCall.Name != "search_flights" {
					t.Errorf("name = %q", frame.ToolCall.Name)
				}
			},
		},
		{
			name:    "tool result frame",
			payload: `{"type":"tool_result","tool_result":{"tool_call_id":"tc1","name":"search_flights","result":{"count":3},"success":true}}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.ToolResult == nil || !frame.ToolResult.Success {
					t.Errorf("ToolResult = %+v", frame.ToolResult)
				}
			},
		},
		{
			name:    "rate limited frame",
			payload: `{"type":"rate_limited","rate_limit":{"attempt":2,"max_attempts":5,"retry_after":1.5}}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.RateLimit == nil || frame.RateLimit.RetryAfter != 1.5 {
					t.Errorf("RateLimit = %+v", frame.RateLimit)
				}
			},
		},
		{
			name:    "error frame",
			payload: `{"type":"error","error":"backend unavailable"}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.Type != FrameError || frame.Error != "backend unavailable" {
					t.Errorf("got type=%q error=%q", frame.Type, frame.Error)
				}
			},
		},
		{
			name:    "unknown frame type is preserved",
			payload: `{"type":"usage","content":""}`,
			check: func(t *testing.T, frame *StreamFrame) {
				if frame.Type != "usage" {
					t.Errorf("type = %q", frame.Type)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := ParseStreamFrame([]byte(tc.payload))
			if err != nil {
				t.Fatalf("ParseStreamFrame() error = %v", err)
			}
			tc.check(t, frame)
		})
	}
}

func TestParseStreamFrame_Malformed(t *testing.T) {
	if _, err := ParseStreamFrame([]byte(`{"type":"content",`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestWireToolCall_Materialize(t *testing.T) {
	wire := WireToolCall{
		ID:        "tc1",
		Name:      "search_hotels",
		Arguments: `{"city":"Tokyo","nights":4}`,
	}
	call, err := wire.Materialize()
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if call.Arguments["city"] != "Tokyo" {
		t.Errorf("city = %v", call.Arguments["city"])
	}
	if call.Arguments["nights"] != float64(4) {
		t.Errorf("nights = %v", call.Arguments["nights"])
	}
}

func TestWireToolCall_MaterializeEmptyArguments(t *testing.T) {
	wire := WireToolCall{ID: "tc1", Name: "list_trips"}
	call, err := wire.Materialize()
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if call.Arguments == nil {
		t.Error("Arguments should be an empty map, not nil")
	}
	if len(call.Arguments) != 0 {
		t.Errorf("Arguments = %v", call.Arguments)
	}
}

func TestWireToolCall_MaterializeBadArguments(t *testing.T) {
	wire := WireToolCall{ID: "tc1", Name: "list_trips", Arguments: `not json`}
	call, err := wire.Materialize()
	if err == nil {
		t.Fatal("expected error for unparseable arguments")
	}
	// Identity survives so the caller can still report which call failed.
	if call.ID != "tc1" || call.Name != "list_trips" {
		t.Errorf("call = %+v", call)
	}
}

func TestWireToolResult_Materialize(t *testing.T) {
	success := WireToolResult{ToolCallID: "tc1", Name: "refresh", Success: true}
	if got := success.Materialize(); got.IsError {
		t.Error("success=true should materialize as IsError=false")
	}
	failure := WireToolResult{ToolCallID: "tc2", Name: "refresh", Success: false}
	if got := failure.Materialize(); !got.IsError {
		t.Error("success=false should materialize as IsError=true")
	}
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{"usd", Money{Value: 1234.56, Currency: "USD"}, "$"},
		{"eur", Money{Value: 99.5, Currency: "EUR"}, "€"},
		{"unknown code falls back", Money{Value: 12, Currency: "ZZZ"}, "ZZZ"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.money.Format()
			if !strings.Contains(got, tc.want) {
				t.Errorf("Format() = %q, want to contain %q", got, tc.want)
			}
		})
	}
}

func TestMoney_FormatNoCurrency(t *testing.T) {
	got := Money{Value: 1234.5}.Format()
	if !strings.Contains(got, "1,234.50") {
		t.Errorf("Format() = %q", got)
	}
}

// =============================================================================
// PRICE UPDATE TESTS
// =============================================================================

func TestParsePriceUpdate(t *testing.T) {
	payload := `{
		"type": "price_update",
		"trip_id": "trip-1",
		"trip_name": "Tokyo Spring",
		"flight_price": {"value": 850, "currency": "USD"},
		"hotel_price": null,
		"total_price": {"value": 1400, "currency": "USD"},
		"updated_at": "2026-03-01T12:00:00Z"
	}`
	update, err := ParsePriceUpdate([]byte(payload))
	if err != nil {
		t.Fatalf("ParsePriceUpdate() error = %v", err)
	}
	if update.TripID != "trip-1" || update.TripName != "Tokyo Spring" {
		t.Errorf("identity = %q/%q", update.TripID, update.TripName)
	}
	if update.FlightPrice == nil || update.FlightPrice.Value != 850 {
		t.Errorf("FlightPrice = %+v", update.FlightPrice)
	}
	if update.HotelPrice != nil {
		t.Errorf("HotelPrice should stay nil, got %+v", update.HotelPrice)
	}
}

func TestPriceUpdate_Total(t *testing.T) {
	quoted := PriceUpdate{TotalPrice: &Money{Value: 1400, Currency: "USD"}}
	if got := quoted.Total(); !strings.Contains(got, "1,400") {
		t.Errorf("Total() = %q", got)
	}
	unquoted := PriceUpdate{}
	if got := unquoted.Total(); got != "—" {
		t.Errorf("Total() = %q, want em dash", got)
	}
}

// =============================================================================
// TRIP TESTS
// =============================================================================

func TestTrip_ApplyUpdate(t *testing.T) {
	trip := Trip{
		ID:          "trip-1",
		Name:        "Tokyo Spring",
		FlightPrice: &Money{Value: 900, Currency: "USD"},
		HotelPrice:  &Money{Value: 500, Currency: "USD"},
	}
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trip.ApplyUpdate(&PriceUpdate{
		TripID:      "trip-1",
		FlightPrice: &Money{Value: 850, Currency: "USD"},
		TotalPrice:  &Money{Value: 1350, Currency: "USD"},
		UpdatedAt:   when,
	})

	if trip.FlightPrice.Value != 850 {
		t.Errorf("FlightPrice = %v", trip.FlightPrice.Value)
	}
	// Nil components on the update leave the existing quote alone.
	if trip.HotelPrice == nil || trip.HotelPrice.Value != 500 {
		t.Errorf("HotelPrice = %+v", trip.HotelPrice)
	}
	if trip.TotalPrice == nil || trip.TotalPrice.Value != 1350 {
		t.Errorf("TotalPrice = %+v", trip.TotalPrice)
	}
	if trip.LastChecked == nil || !trip.LastChecked.Equal(when) {
		t.Errorf("LastChecked = %v", trip.LastChecked)
	}
}

func TestTrip_ApplyUpdateWrongTrip(t *testing.T) {
	trip := Trip{ID: "trip-1", FlightPrice: &Money{Value: 900, Currency: "USD"}}
	trip.ApplyUpdate(&PriceUpdate{TripID: "trip-2", FlightPrice: &Money{Value: 1, Currency: "USD"}})
	if trip.FlightPrice.Value != 900 {
		t.Error("update for another trip must not apply")
	}
	trip.ApplyUpdate(nil)
	if trip.FlightPrice.Value != 900 {
		t.Error("nil update must not apply")
	}
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn_Placeholder(t *testing.T) {
	turn := NewAssistantTurn()
	if !turn.IsPlaceholder() {
		t.Error("fresh assistant turn should be a placeholder")
	}
	turn.AppendContent("Working on it")
	if turn.IsPlaceholder() {
		t.Error("turn with content is not a placeholder")
	}

	withCall := NewAssistantTurn()
	withCall.AddToolCall(ToolCall{ID: "tc1", Name: "list_trips"})
	if withCall.IsPlaceholder() {
		t.Error("turn with a tool call is not a placeholder")
	}

	user := NewUserTurn("hi")
	if user.IsPlaceholder() {
		t.Error("user turns are never placeholders")
	}
}

func TestTurn_FindToolCall(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AddToolCall(ToolCall{ID: "tc1", Name: "search_flights"})
	turn.AddToolCall(ToolCall{ID: "tc2", Name: "search_hotels"})

	if got := turn.FindToolCall("tc2"); got == nil || got.Name != "search_hotels" {
		t.Errorf("FindToolCall(tc2) = %+v", got)
	}
	if got := turn.FindToolCall("missing"); got != nil {
		t.Errorf("FindToolCall(missing) = %+v", got)
	}
}

func TestTurn_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content unchanged", "hello", 10, "hello"},
		{"long content truncated", "a much longer message", 10, "a much ..."},
		{"unicode truncated on rune boundary", "東京旅行の計画", 6, "東京旅..."},
		{"tiny budget", "hello", 2, "he"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			turn := NewUserTurn(tc.content)
			if got := turn.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestTurn_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		turn := NewAssistantTurn()
		if seen[turn.ID] {
			t.Fatalf("duplicate turn ID %q", turn.ID)
		}
		seen[turn.ID] = true
	}
}
