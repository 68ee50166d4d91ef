package trades

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// tradesColumns is the list of columns for the trades table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match the scan functions below.
const tradesColumns = `id, symbol, direction, setup, session, entry_trigger, location, initial_emotion, entry_price, exit_price, quantity, pnl, outcome, status, notes, opened_at, closed_at, created_at, updated_at`

// TradeRepository handles trade database operations
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a new trade record and returns it with its assigned id
func (r *TradeRepository) Create(trade Trade) (*Trade, error) {
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trade.CreatedAt = now
	trade.UpdatedAt = now
	if trade.OpenedAt.IsZero() {
		trade.OpenedAt = now
	}

	query := `
		INSERT INTO trades
		(symbol, direction, setup, session, entry_trigger, location, initial_emotion,
		 entry_price, exit_price, quantity, pnl, outcome, status, notes,
		 opened_at, closed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Direction),
		nullString(trade.Setup),
		nullString(trade.Session),
		nullString(trade.EntryTrigger),
		nullString(trade.Location),
		nullString(trade.InitialEmotion),
		nullFloat64Ptr(trade.EntryPrice),
		nullFloat64Ptr(trade.ExitPrice),
		nullFloat64Ptr(trade.Quantity),
		nullFloat64Ptr(trade.PnL),
		nullString(string(trade.Outcome)),
		string(trade.Status),
		nullString(trade.Notes),
		trade.OpenedAt.Unix(),
		nullTimePtr(trade.ClosedAt),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get trade id: %w", err)
	}
	trade.ID = id

	r.log.Info().
		Int64("id", id).
		Str("symbol", trade.Symbol).
		Str("setup", trade.Setup).
		Str("session", trade.Session).
		Msg("Trade created")

	return &trade, nil
}

// GetByID retrieves a trade by id
func (r *TradeRepository) GetByID(id int64) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	row := r.db.QueryRow(query, id)
	trade, err := scanTradeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("trade %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return &trade, nil
}

// List retrieves trades, most recently opened first. An empty status
// returns trades in any state; a limit of zero or less returns every
// matching trade, which the export path relies on.
func (r *TradeRepository) List(status TradeStatus, limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades"
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY opened_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// Update writes all mutable fields of a trade
func (r *TradeRepository) Update(trade *Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	trade.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE trades SET
			symbol = ?, direction = ?, setup = ?, session = ?, entry_trigger = ?,
			location = ?, initial_emotion = ?, entry_price = ?, exit_price = ?,
			quantity = ?, pnl = ?, outcome = ?, status = ?, notes = ?,
			opened_at = ?, closed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Direction),
		nullString(trade.Setup),
		nullString(trade.Session),
		nullString(trade.EntryTrigger),
		nullString(trade.Location),
		nullString(trade.InitialEmotion),
		nullFloat64Ptr(trade.EntryPrice),
		nullFloat64Ptr(trade.ExitPrice),
		nullFloat64Ptr(trade.Quantity),
		nullFloat64Ptr(trade.PnL),
		nullString(string(trade.Outcome)),
		string(trade.Status),
		nullString(trade.Notes),
		trade.OpenedAt.Unix(),
		nullTimePtr(trade.ClosedAt),
		trade.UpdatedAt.Unix(),
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("trade %d", trade.ID)
	}

	return nil
}

// Delete removes a trade permanently
func (r *TradeRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("trade %d", id)
	}

	r.log.Info().Int64("id", id).Msg("Trade deleted")
	return nil
}

// FindClosed retrieves closed trades matching the filter, oldest first.
// Attribute constraints AND together; values within one attribute OR.
func (r *TradeRepository) FindClosed(filter ClosedTradeFilter) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE status = 'closed'"
	var args []interface{}

	appendIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := strings.Repeat("?, ", len(values)-1) + "?"
		query += " AND " + column + " IN (" + placeholders + ")"
		for _, v := range values {
			args = append(args, v)
		}
	}

	appendIn("setup", filter.Setup)
	appendIn("session", filter.Session)
	appendIn("entry_trigger", filter.Trigger)
	appendIn("initial_emotion", filter.Emotion)
	appendIn("location", filter.Location)

	if filter.ClosedSince != "" {
		since, err := time.Parse("2006-01-02", filter.ClosedSince)
		if err != nil {
			return nil, domain.NewValidationError("invalid closed_since date %q (expected YYYY-MM-DD)", filter.ClosedSince)
		}
		sinceUnix := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC).Unix()
		query += " AND closed_at >= ?"
		args = append(args, sinceUnix)
	}

	query += " ORDER BY closed_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find closed trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// Helper functions

func collectTrades(rows *sql.Rows) ([]Trade, error) {
	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

// scanner abstracts sql.Row and sql.Rows so one scan function serves both
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTradeRow(row *sql.Row) (Trade, error) {
	return scanTrade(row)
}

func scanTrade(s scanner) (Trade, error) {
	var trade Trade
	var setup, session, trigger, location, emotion, outcome, notes sql.NullString
	var entryPrice, exitPrice, quantity, pnl sql.NullFloat64
	var openedAt, createdAt, updatedAt int64
	var closedAt sql.NullInt64

	err := s.Scan(
		&trade.ID,
		&trade.Symbol,
		&trade.Direction,
		&setup,
		&session,
		&trigger,
		&location,
		&emotion,
		&entryPrice,
		&exitPrice,
		&quantity,
		&pnl,
		&outcome,
		&trade.Status,
		&notes,
		&openedAt,
		&closedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Setup = setup.String
	trade.Session = session.String
	trade.EntryTrigger = trigger.String
	trade.Location = location.String
	trade.InitialEmotion = emotion.String
	trade.Outcome = Outcome(outcome.String)
	trade.Notes = notes.String

	if entryPrice.Valid {
		trade.EntryPrice = &entryPrice.Float64
	}
	if exitPrice.Valid {
		trade.ExitPrice = &exitPrice.Float64
	}
	if quantity.Valid {
		trade.Quantity = &quantity.Float64
	}
	if pnl.Valid {
		trade.PnL = &pnl.Float64
	}

	trade.OpenedAt = time.Unix(openedAt, 0).UTC()
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()
	trade.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if closedAt.Valid {
		t := time.Unix(closedAt.Int64, 0).UTC()
		trade.ClosedAt = &t
	}

	return trade, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
