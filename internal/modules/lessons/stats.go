package lessons

import (
	"fmt"

	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// TradeFinder is the slice of the trade store the lesson engine consumes.
// The engine never mutates trades.
type TradeFinder interface {
	FindClosed(filter trades.ClosedTradeFilter) ([]trades.Trade, error)
}

// ComputeStats aggregates performance over closed trades matching the
// conditions. A non-empty since date (YYYY-MM-DD) restricts to trades closed
// on or after that date, inclusive.
//
// The lesson lifecycle calls this twice: at creation with no since date
// (baseline over all history) and at validation with since = learned_at
// (tracking window only). The asymmetry is deliberate.
func ComputeStats(finder TradeFinder, conditions *Conditions, since string) (*StatsSnapshot, error) {
	matching, err := finder.FindClosed(conditions.Filter(since))
	if err != nil {
		return nil, fmt.Errorf("failed to load matching trades: %w", err)
	}
	snap := Aggregate(matching)
	return &snap, nil
}
