package trades

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// setupTradeDB creates an in-memory SQLite database with the trades table
func setupTradeDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT 'long',
		setup TEXT,
		session TEXT,
		entry_trigger TEXT,
		location TEXT,
		initial_emotion TEXT,
		entry_price REAL,
		exit_price REAL,
		quantity REAL,
		pnl REAL,
		outcome TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		notes TEXT,
		opened_at INTEGER NOT NULL,
		closed_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	return db
}

func newTestRepo(t *testing.T) *TradeRepository {
	return NewTradeRepository(setupTradeDB(t), zerolog.Nop())
}

// insertClosed stores a closed trade with the given attributes and close time
func insertClosed(t *testing.T, repo *TradeRepository, setup, session, emotion string, closedAt time.Time, outcome Outcome) *Trade {
	pnl := 100.0
	if outcome == OutcomeLoss {
		pnl = -100.0
	}
	trade, err := repo.Create(Trade{
		Symbol:         "EURUSD",
		Direction:      DirectionLong,
		Setup:          setup,
		Session:        session,
		InitialEmotion: emotion,
		Status:         TradeStatusClosed,
		PnL:            &pnl,
		Outcome:        outcome,
		OpenedAt:       closedAt.Add(-time.Hour),
		ClosedAt:       &closedAt,
	})
	require.NoError(t, err)
	return trade
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	entry := 1.25
	qty := 10.0
	created, err := repo.Create(Trade{
		Symbol:     "GBPUSD",
		Direction:  DirectionShort,
		Setup:      "reversal",
		EntryPrice: &entry,
		Quantity:   &qty,
		Status:     TradeStatusOpen,
		OpenedAt:   time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GBPUSD", got.Symbol)
	assert.Equal(t, DirectionShort, got.Direction)
	require.NotNil(t, got.EntryPrice)
	assert.Equal(t, 1.25, *got.EntryPrice)
	assert.Nil(t, got.PnL)
	assert.Nil(t, got.ClosedAt)
}

func TestGetByID_Missing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_InvalidTradeRejected(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create(Trade{Status: TradeStatusOpen, OpenedAt: time.Now()})
	assert.True(t, domain.IsValidation(err))

	_, err = repo.Create(Trade{
		Symbol:    "EURUSD",
		Direction: "sideways",
		Status:    TradeStatusOpen,
		OpenedAt:  time.Now(),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestList_FiltersByStatus(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create(Trade{Symbol: "A", Direction: DirectionLong, Status: TradeStatusOpen, OpenedAt: time.Now().UTC()})
	require.NoError(t, err)
	insertClosed(t, repo, "breakout", "London", "", time.Now().UTC(), OutcomeWin)

	open, err := repo.List(TradeStatusOpen, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	all, err := repo.List("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestList_ZeroLimitReturnsEveryTrade(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 60; i++ {
		insertClosed(t, repo, "breakout", "London", "", time.Now().UTC(), OutcomeWin)
	}

	all, err := repo.List("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 60)

	capped, err := repo.List("", 50)
	require.NoError(t, err)
	assert.Len(t, capped, 50)
}

func TestFindClosed_MatchesAcrossAttributes(t *testing.T) {
	repo := newTestRepo(t)
	day := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	matching := insertClosed(t, repo, "breakout", "London", "calm", day, OutcomeWin)
	insertClosed(t, repo, "breakout", "Asia", "calm", day, OutcomeWin)   // wrong session
	insertClosed(t, repo, "reversal", "London", "calm", day, OutcomeWin) // wrong setup

	found, err := repo.FindClosed(ClosedTradeFilter{
		Setup:   []string{"breakout"},
		Session: []string{"London"},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, matching.ID, found[0].ID)
}

func TestFindClosed_OrWithinAttribute(t *testing.T) {
	repo := newTestRepo(t)
	day := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	insertClosed(t, repo, "breakout", "London", "", day, OutcomeWin)
	insertClosed(t, repo, "reversal", "Asia", "", day, OutcomeLoss)
	insertClosed(t, repo, "pullback", "Asia", "", day, OutcomeLoss)

	found, err := repo.FindClosed(ClosedTradeFilter{
		Setup: []string{"breakout", "reversal"},
	})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestFindClosed_IgnoresOpenTrades(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create(Trade{
		Symbol:    "EURUSD",
		Direction: DirectionLong,
		Setup:     "breakout",
		Status:    TradeStatusOpen,
		OpenedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	found, err := repo.FindClosed(ClosedTradeFilter{Setup: []string{"breakout"}})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindClosed_ClosedSinceIsInclusive(t *testing.T) {
	repo := newTestRepo(t)

	before := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	onDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	insertClosed(t, repo, "breakout", "", "", before, OutcomeLoss)
	insertClosed(t, repo, "breakout", "", "", onDate, OutcomeWin)
	insertClosed(t, repo, "breakout", "", "", after, OutcomeWin)

	found, err := repo.FindClosed(ClosedTradeFilter{ClosedSince: "2026-02-01"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Ordered by close time ascending.
	assert.True(t, found[0].ClosedAt.Before(*found[1].ClosedAt))
}

func TestFindClosed_InvalidSinceDate(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindClosed(ClosedTradeFilter{ClosedSince: "01/02/2026"})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdate_MissingTrade(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(&Trade{
		ID:        123,
		Symbol:    "EURUSD",
		Direction: DirectionLong,
		Status:    TradeStatusOpen,
		OpenedAt:  time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	trade, err := repo.Create(Trade{
		Symbol:    "EURUSD",
		Direction: DirectionLong,
		Status:    TradeStatusOpen,
		OpenedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(trade.ID))
	_, err = repo.GetByID(trade.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(trade.ID), domain.ErrNotFound)
}
