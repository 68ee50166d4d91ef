// Package lessons implements the lesson engine: learned trading insights
// with applicability conditions, relevance scoring against trade contexts,
// and validation of a lesson's claimed edge against realized trade results.
package lessons

import (
	"time"

	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// LessonStatus is the lifecycle state of a lesson
type LessonStatus string

const (
	StatusDraft       LessonStatus = "draft"
	StatusActive      LessonStatus = "active"
	StatusValidated   LessonStatus = "validated"
	StatusInvalidated LessonStatus = "invalidated"
	StatusArchived    LessonStatus = "archived"
)

// Conditions is the applicability predicate of a lesson: for each attribute
// a set of acceptable values. A nil/empty slice means "don't care" for that
// attribute. Stored as a JSON column on the lesson row.
type Conditions struct {
	Setup    []string `json:"setup,omitempty"`
	Session  []string `json:"session,omitempty"`
	Trigger  []string `json:"trigger,omitempty"`
	Emotion  []string `json:"emotion,omitempty"`
	Location []string `json:"location,omitempty"`
}

// IsEmpty reports whether no attribute carries any constraint
func (c *Conditions) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Setup) == 0 && len(c.Session) == 0 && len(c.Trigger) == 0 &&
		len(c.Emotion) == 0 && len(c.Location) == 0
}

// Filter converts the conditions into a closed-trade filter, optionally
// restricted to trades closed on or after since (YYYY-MM-DD, inclusive).
func (c *Conditions) Filter(since string) trades.ClosedTradeFilter {
	return trades.ClosedTradeFilter{
		Setup:       c.Setup,
		Session:     c.Session,
		Trigger:     c.Trigger,
		Emotion:     c.Emotion,
		Location:    c.Location,
		ClosedSince: since,
	}
}

// StatsSnapshot aggregates win/loss/PnL metrics over a set of matching
// closed trades. Snapshots are serialized to JSON columns and compared
// field-by-field during validation, so the shape must round-trip exactly.
type StatsSnapshot struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	AvgPnL      float64 `json:"avg_pnl"`
}

// Aggregate computes a snapshot from a set of closed trades.
// Rates are guarded against division by zero: an empty set yields all zeros.
func Aggregate(tradeList []trades.Trade) StatsSnapshot {
	var snap StatsSnapshot
	for i := range tradeList {
		t := &tradeList[i]
		snap.TotalTrades++
		switch t.Outcome {
		case trades.OutcomeWin:
			snap.Wins++
		case trades.OutcomeLoss:
			snap.Losses++
		}
		snap.TotalPnL += t.PnLValue()
	}
	if snap.TotalTrades > 0 {
		snap.WinRate = float64(snap.Wins) / float64(snap.TotalTrades) * 100
		snap.AvgPnL = snap.TotalPnL / float64(snap.TotalTrades)
	}
	return snap
}

// Lesson is a learned insight with optional applicability conditions and a
// validation lifecycle.
type Lesson struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	CategoryID *int64       `json:"category_id,omitempty"`
	Category   string       `json:"category,omitempty"`
	Conditions *Conditions  `json:"conditions,omitempty"`
	Status     LessonStatus `json:"status"`

	// LearnedAt is the date (YYYY-MM-DD) the tracking window begins.
	// Defaults to the creation date but may be backdated.
	LearnedAt string `json:"learned_at"`

	// StatsBefore is the baseline snapshot over all matching closed trades
	// at the time conditions were first set. Never recomputed afterwards.
	StatsBefore      *StatsSnapshot `json:"stats_before,omitempty"`
	TradeCountBefore *int           `json:"trade_count_before,omitempty"`

	// StatsAfter is the latest snapshot over trades closed on or after
	// LearnedAt. Overwritten by each validation run.
	StatsAfter      *StatsSnapshot `json:"stats_after,omitempty"`
	TradeCountAfter *int           `json:"trade_count_after,omitempty"`

	ValidationNote string    `json:"validation_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Category is a user-defined grouping for lessons
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
