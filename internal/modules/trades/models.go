// Package trades implements the trade journal: recording, closing and
// querying crypto trades.
package trades

import (
	"strings"
	"time"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// TradeStatus is the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// Direction is the side of a trade
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Outcome is the result of a closed trade
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// Trade represents a journal entry for a single trade
type Trade struct {
	ID             int64       `json:"id"`
	Symbol         string      `json:"symbol"`
	Direction      Direction   `json:"direction"`
	Setup          string      `json:"setup,omitempty"`
	Session        string      `json:"session,omitempty"`
	EntryTrigger   string      `json:"entry_trigger,omitempty"`
	Location       string      `json:"location,omitempty"`
	InitialEmotion string      `json:"initial_emotion,omitempty"`
	EntryPrice     *float64    `json:"entry_price,omitempty"`
	ExitPrice      *float64    `json:"exit_price,omitempty"`
	Quantity       *float64    `json:"quantity,omitempty"`
	PnL            *float64    `json:"pnl,omitempty"`
	Outcome        Outcome     `json:"outcome,omitempty"`
	Status         TradeStatus `json:"status"`
	Notes          string      `json:"notes,omitempty"`
	OpenedAt       time.Time   `json:"opened_at"`
	ClosedAt       *time.Time  `json:"closed_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Validate checks the trade before database insertion
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return domain.NewValidationError("symbol is required")
	}
	switch t.Direction {
	case DirectionLong, DirectionShort:
	default:
		return domain.NewValidationError("direction must be 'long' or 'short', got %q", t.Direction)
	}
	switch t.Status {
	case TradeStatusOpen, TradeStatusClosed:
	default:
		return domain.NewValidationError("status must be 'open' or 'closed', got %q", t.Status)
	}
	if t.Outcome != "" {
		switch t.Outcome {
		case OutcomeWin, OutcomeLoss, OutcomeBreakeven:
		default:
			return domain.NewValidationError("outcome must be 'win', 'loss' or 'breakeven', got %q", t.Outcome)
		}
	}
	return nil
}

// PnLValue returns the trade PnL, treating a missing value as 0
func (t *Trade) PnLValue() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// DeriveOutcome computes the outcome from a PnL value
func DeriveOutcome(pnl float64) Outcome {
	switch {
	case pnl > 0:
		return OutcomeWin
	case pnl < 0:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}

// ClosedTradeFilter selects closed trades for the lesson engine.
// Attribute slices are ANDed together; values within a slice are ORed.
// An empty slice means "don't care" for that attribute.
type ClosedTradeFilter struct {
	Setup    []string
	Session  []string
	Trigger  []string
	Emotion  []string
	Location []string

	// ClosedSince restricts to trades closed on or after this date
	// (YYYY-MM-DD, inclusive, UTC midnight). Empty means no restriction.
	ClosedSince string
}
