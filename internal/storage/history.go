// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/voyantic/farewatch-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoObservations = errors.New("no price observations for trip")
	ErrNoTranscript   = errors.New("no archived transcript for thread")
)

// =============================================================================
// HISTORY DATABASE
// =============================================================================

// PricePoint is one recorded price observation for a trip.
type PricePoint struct {
	TripID      string
	TripName    string
	FlightPrice *model.Money
	HotelPrice  *model.Money
	TotalPrice  *model.Money
	ObservedAt  time.Time
}

// ThreadMeta describes one archived conversation.
type ThreadMeta struct {
	ThreadID   string
	TurnCount  int
	LastActive time.Time
	Preview    string
}

// HistoryDB stores price observations and transcript archives.
type HistoryDB struct {
	db *sql.DB
}

// DefaultPath returns the database location under the user's home
// directory: ~/.farewatch/history.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".farewatch", "history.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*HistoryDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed metadata: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Close closes the underlying database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// =============================================================================
// PRICE OBSERVATIONS
// =============================================================================

// RecordUpdate appends one price observation. Nil price components are
// stored as NULL so partial quotes do not fabricate zeros.
func (h *HistoryDB) RecordUpdate(ctx context.Context, update model.PriceUpdate) error {
	observedAt := update.UpdatedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	flightValue, flightCurrency := moneyColumns(update.FlightPrice)
	hotelValue, hotelCurrency := moneyColumns(update.HotelPrice)
	totalValue, totalCurrency := moneyColumns(update.TotalPrice)

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO price_history
			(trip_id, trip_name, flight_value, flight_currency,
			 hotel_value, hotel_currency, total_value, total_currency, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		update.TripID, update.TripName,
		flightValue, flightCurrency,
		hotelValue, hotelCurrency,
		totalValue, totalCurrency,
		observedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record price update: %w", err)
	}
	return nil
}

// History returns the most recent observations for a trip, newest first.
// limit <= 0 returns all of them.
func (h *HistoryDB) History(ctx context.Context, tripID string, limit int) ([]PricePoint, error) {
	query := `
		SELECT trip_id, trip_name, flight_value, flight_currency,
		       hotel_value, hotel_currency, total_value, total_currency, observed_at
		FROM price_history
		WHERE trip_id = ?
		ORDER BY observed_at DESC, id DESC`
	args := []any{tripID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var (
			p              PricePoint
			flightV        sql.NullFloat64
			flightC        sql.NullString
			hotelV         sql.NullFloat64
			hotelC         sql.NullString
			totalV         sql.NullFloat64
			totalC         sql.NullString
			observedAtUnix int64
		)
		if err := rows.Scan(&p.TripID, &p.TripName,
			&flightV, &flightC, &hotelV, &hotelC, &totalV, &totalC,
			&observedAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		p.FlightPrice = moneyFromColumns(flightV, flightC)
		p.HotelPrice = moneyFromColumns(hotelV, hotelC)
		p.TotalPrice = moneyFromColumns(totalV, totalC)
		p.ObservedAt = time.Unix(observedAtUnix, 0)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoObservations
	}
	return points, nil
}

// LowestTotal returns the cheapest observed total for a trip.
func (h *HistoryDB) LowestTotal(ctx context.Context, tripID string) (*model.Money, error) {
	var (
		value    sql.NullFloat64
		currency sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT total_value, total_currency
		FROM price_history
		WHERE trip_id = ? AND total_value IS NOT NULL
		ORDER BY total_value ASC
		LIMIT 1`, tripID).Scan(&value, &currency)
	if err == sql.ErrNoRows {
		return nil, ErrNoObservations
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lowest total: %w", err)
	}

	money := moneyFromColumns(value, currency)
	if money == nil {
		return nil, ErrNoObservations
	}
	return money, nil
}

func moneyColumns(m *model.Money) (sql.NullFloat64, sql.NullString) {
	if m == nil {
		return sql.NullFloat64{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: m.Value, Valid: true},
		sql.NullString{String: m.Currency, Valid: true}
}

func moneyFromColumns(value sql.NullFloat64, currency sql.NullString) *model.Money {
	if !value.Valid {
		return nil
	}
	return &model.Money{Value: value.Float64, Currency: currency.String}
}

// =============================================================================
// TRANSCRIPT ARCHIVE
// =============================================================================

// turnPayload is the JSON blob carrying the non-text parts of a turn.
type turnPayload struct {
	ToolCalls  []model.ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *model.ToolResult `json:"tool_result,omitempty"`
}

// ArchiveTranscript replaces the stored copy of a thread with the given
// turns, atomically.
func (h *HistoryDB) ArchiveTranscript(ctx context.Context, threadID string, turns []model.Turn) error {
	if threadID == "" {
		return errors.New("thread id required")
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transcript_turns WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to clear old transcript: %w", err)
	}

	for i, turn := range turns {
		var payload []byte
		if len(turn.ToolCalls) > 0 || turn.ToolResult != nil {
			payload, err = json.Marshal(turnPayload{
				ToolCalls:  turn.ToolCalls,
				ToolResult: turn.ToolResult,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal turn payload: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transcript_turns
				(thread_id, position, turn_id, role, content, payload, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			threadID, i, turn.ID, turn.Role.String(), turn.Content,
			nullableBlob(payload), turn.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("failed to store turn: %w", err)
		}
	}

	return tx.Commit()
}

// LoadTranscript returns the archived turns for a thread in order.
func (h *HistoryDB) LoadTranscript(ctx context.Context, threadID string) ([]model.Turn, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT turn_id, role, content, payload, created_at
		FROM transcript_turns
		WHERE thread_id = ?
		ORDER BY position`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var (
			turn          model.Turn
			role          string
			payload       sql.NullString
			createdAtUnix int64
		)
		if err := rows.Scan(&turn.ID, &role, &turn.Content, &payload, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = model.Role(role)
		turn.CreatedAt = time.Unix(createdAtUnix, 0)
		if payload.Valid && payload.String != "" {
			var extra turnPayload
			if err := json.Unmarshal([]byte(payload.String), &extra); err == nil {
				turn.ToolCalls = extra.ToolCalls
				turn.ToolResult = extra.ToolResult
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, ErrNoTranscript
	}
	return turns, nil
}

// Threads lists archived conversations, most recently active first.
func (h *HistoryDB) Threads(ctx context.Context) ([]ThreadMeta, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT thread_id, COUNT(*), MAX(created_at),
		       (SELECT content FROM transcript_turns t2
		        WHERE t2.thread_id = t1.thread_id AND t2.role = 'user'
		        ORDER BY t2.position LIMIT 1)
		FROM transcript_turns t1
		GROUP BY thread_id
		ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var metas []ThreadMeta
	for rows.Next() {
		var (
			meta           ThreadMeta
			lastActiveUnix int64
			preview        sql.NullString
		)
		if err := rows.Scan(&meta.ThreadID, &meta.TurnCount, &lastActiveUnix, &preview); err != nil {
			return nil, fmt.Errorf("failed to scan thread meta: %w", err)
		}
		meta.LastActive = time.Unix(lastActiveUnix, 0)
		meta.Preview = preview.String
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
