package trades

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

func newTestTradeService(t *testing.T) *Service {
	return NewService(newTestRepo(t), zerolog.Nop())
}

func TestServiceCreate_DefaultsDirectionAndSession(t *testing.T) {
	svc := newTestTradeService(t)

	trade, err := svc.Create(CreateInput{
		Symbol:   "eurusd",
		OpenedAt: "2026-03-02T14:30:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", trade.Symbol)
	assert.Equal(t, DirectionLong, trade.Direction)
	assert.Equal(t, "NY Open", trade.Session)
	assert.Equal(t, TradeStatusOpen, trade.Status)
}

func TestServiceCreate_ExplicitSessionWins(t *testing.T) {
	svc := newTestTradeService(t)

	trade, err := svc.Create(CreateInput{
		Symbol:   "EURUSD",
		Session:  "London",
		OpenedAt: "2026-03-02T23:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "London", trade.Session)
}

func TestServiceCreate_Invalid(t *testing.T) {
	svc := newTestTradeService(t)

	_, err := svc.Create(CreateInput{})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(CreateInput{Symbol: "EURUSD", OpenedAt: "yesterday"})
	assert.True(t, domain.IsValidation(err))
}

func TestServiceClose_DerivesPnLFromPrices(t *testing.T) {
	svc := newTestTradeService(t)

	entry, qty := 100.0, 2.0
	trade, err := svc.Create(CreateInput{
		Symbol:     "AAPL",
		EntryPrice: &entry,
		Quantity:   &qty,
	})
	require.NoError(t, err)

	exit := 110.0
	closed, err := svc.Close(trade.ID, CloseInput{ExitPrice: &exit})
	require.NoError(t, err)

	require.NotNil(t, closed.PnL)
	assert.InDelta(t, 20.0, *closed.PnL, 0.001)
	assert.Equal(t, OutcomeWin, closed.Outcome)
	assert.Equal(t, TradeStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestServiceClose_ShortDirectionNegatesPnL(t *testing.T) {
	svc := newTestTradeService(t)

	entry, qty := 100.0, 2.0
	trade, err := svc.Create(CreateInput{
		Symbol:     "AAPL",
		Direction:  DirectionShort,
		EntryPrice: &entry,
		Quantity:   &qty,
	})
	require.NoError(t, err)

	exit := 110.0
	closed, err := svc.Close(trade.ID, CloseInput{ExitPrice: &exit})
	require.NoError(t, err)

	require.NotNil(t, closed.PnL)
	assert.InDelta(t, -20.0, *closed.PnL, 0.001)
	assert.Equal(t, OutcomeLoss, closed.Outcome)
}

func TestServiceClose_ExplicitPnLWinsOverDerivation(t *testing.T) {
	svc := newTestTradeService(t)

	entry, qty := 100.0, 2.0
	trade, err := svc.Create(CreateInput{
		Symbol:     "AAPL",
		EntryPrice: &entry,
		Quantity:   &qty,
	})
	require.NoError(t, err)

	exit, pnl := 110.0, -5.0
	closed, err := svc.Close(trade.ID, CloseInput{ExitPrice: &exit, PnL: &pnl})
	require.NoError(t, err)

	require.NotNil(t, closed.PnL)
	assert.InDelta(t, -5.0, *closed.PnL, 0.001)
	assert.Equal(t, OutcomeLoss, closed.Outcome)
}

func TestServiceClose_ZeroPnLIsBreakeven(t *testing.T) {
	svc := newTestTradeService(t)

	trade, err := svc.Create(CreateInput{Symbol: "AAPL"})
	require.NoError(t, err)

	pnl := 0.0
	closed, err := svc.Close(trade.ID, CloseInput{PnL: &pnl})
	require.NoError(t, err)
	assert.Equal(t, OutcomeBreakeven, closed.Outcome)
}

func TestServiceClose_MissingTrade(t *testing.T) {
	svc := newTestTradeService(t)

	_, err := svc.Close(404, CloseInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeriveOutcome(t *testing.T) {
	assert.Equal(t, OutcomeWin, DeriveOutcome(0.01))
	assert.Equal(t, OutcomeLoss, DeriveOutcome(-0.01))
	assert.Equal(t, OutcomeBreakeven, DeriveOutcome(0))
}

func TestClassifySession(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{2, "Asia"},
		{6, "Asia"},
		{7, "London"},
		{11, "London"},
		{12, "NY Open"},
		{16, "NY Open"},
		{17, "NY PM"},
		{20, "NY PM"},
		{21, "Late NY"},
		{23, "Late NY"},
	}

	for _, tt := range tests {
		at := time.Date(2026, 3, 2, tt.hour, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, ClassifySession(at), "hour %d", tt.hour)
	}
}
