// Package analytics computes performance statistics over closed trades.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// Summary aggregates performance over a set of closed trades
type Summary struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakeven    int     `json:"breakeven"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	AvgPnL       float64 `json:"avg_pnl"`
	PnLStdDev    float64 `json:"pnl_std_dev"`
	Expectancy   float64 `json:"expectancy"`
	ProfitFactor float64 `json:"profit_factor"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
}

// Breakdown is a summary keyed by one attribute value (setup or session)
type Breakdown struct {
	Key     string  `json:"key"`
	Summary Summary `json:"summary"`
}

// TradeLister is the slice of the trade store analytics consumes
type TradeLister interface {
	FindClosed(filter trades.ClosedTradeFilter) ([]trades.Trade, error)
}

// Service computes trade performance statistics
type Service struct {
	lister TradeLister
	log    zerolog.Logger
}

// NewService creates an analytics service
func NewService(lister TradeLister, log zerolog.Logger) *Service {
	return &Service{
		lister: lister,
		log:    log.With().Str("service", "analytics").Logger(),
	}
}

// Summarize computes the overall performance summary
func (s *Service) Summarize() (*Summary, error) {
	closed, err := s.lister.FindClosed(trades.ClosedTradeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load closed trades: %w", err)
	}
	summary := summarize(closed)
	return &summary, nil
}

// BySetup breaks performance down per setup, ordered by trade count
func (s *Service) BySetup() ([]Breakdown, error) {
	return s.breakdown(func(t *trades.Trade) string { return t.Setup })
}

// BySession breaks performance down per session, ordered by trade count
func (s *Service) BySession() ([]Breakdown, error) {
	return s.breakdown(func(t *trades.Trade) string { return t.Session })
}

func (s *Service) breakdown(key func(*trades.Trade) string) ([]Breakdown, error) {
	closed, err := s.lister.FindClosed(trades.ClosedTradeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load closed trades: %w", err)
	}

	groups := make(map[string][]trades.Trade)
	for i := range closed {
		k := key(&closed[i])
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], closed[i])
	}

	breakdowns := make([]Breakdown, 0, len(groups))
	for k, group := range groups {
		breakdowns = append(breakdowns, Breakdown{Key: k, Summary: summarize(group)})
	}
	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].Summary.TotalTrades != breakdowns[j].Summary.TotalTrades {
			return breakdowns[i].Summary.TotalTrades > breakdowns[j].Summary.TotalTrades
		}
		return breakdowns[i].Key < breakdowns[j].Key
	})

	return breakdowns, nil
}

func summarize(closed []trades.Trade) Summary {
	summary := Summary{}
	if len(closed) == 0 {
		return summary
	}

	pnls := make([]float64, 0, len(closed))
	var grossProfit, grossLoss float64
	best := math.Inf(-1)
	worst := math.Inf(1)

	for i := range closed {
		t := &closed[i]
		pnl := t.PnLValue()
		pnls = append(pnls, pnl)

		summary.TotalTrades++
		switch t.Outcome {
		case trades.OutcomeWin:
			summary.Wins++
		case trades.OutcomeLoss:
			summary.Losses++
		case trades.OutcomeBreakeven:
			summary.Breakeven++
		}

		summary.TotalPnL += pnl
		if pnl > 0 {
			grossProfit += pnl
		} else {
			grossLoss += -pnl
		}
		if pnl > best {
			best = pnl
		}
		if pnl < worst {
			worst = pnl
		}
	}

	summary.WinRate = float64(summary.Wins) / float64(summary.TotalTrades) * 100
	summary.AvgPnL = summary.TotalPnL / float64(summary.TotalTrades)
	summary.Expectancy = stat.Mean(pnls, nil)
	if len(pnls) > 1 {
		summary.PnLStdDev = stat.StdDev(pnls, nil)
	}
	if grossLoss > 0 {
		summary.ProfitFactor = grossProfit / grossLoss
	}
	summary.BestTrade = best
	summary.WorstTrade = worst

	return summary
}
