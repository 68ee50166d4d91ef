package lessons

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// setupLessonDB creates an in-memory SQLite database with the lesson tables
func setupLessonDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	statements := []string{
		`CREATE TABLE lesson_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE lessons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			category_id INTEGER REFERENCES lesson_categories(id),
			conditions TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			learned_at TEXT NOT NULL,
			stats_before TEXT,
			trade_count_before INTEGER,
			stats_after TEXT,
			trade_count_after INTEGER,
			validation_note TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// fakeFinder returns baseline trades for unrestricted queries and window
// trades when the filter carries a closed-since date
type fakeFinder struct {
	baseline []trades.Trade
	window   []trades.Trade
	err      error
}

func (f *fakeFinder) FindClosed(filter trades.ClosedTradeFilter) ([]trades.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	if filter.ClosedSince == "" {
		return f.baseline, nil
	}
	return f.window, nil
}

func closedTrades(wins, losses int) []trades.Trade {
	var out []trades.Trade
	for i := 0; i < wins; i++ {
		pnl := 100.0
		out = append(out, trades.Trade{Status: trades.TradeStatusClosed, Outcome: trades.OutcomeWin, PnL: &pnl})
	}
	for i := 0; i < losses; i++ {
		pnl := -50.0
		out = append(out, trades.Trade{Status: trades.TradeStatusClosed, Outcome: trades.OutcomeLoss, PnL: &pnl})
	}
	return out
}

func newTestService(t *testing.T, finder TradeFinder) *Service {
	db := setupLessonDB(t)
	repo := NewLessonRepository(db, zerolog.Nop())
	return NewService(repo, finder, zerolog.Nop())
}

func TestCreate_RequiresTitleAndContent(t *testing.T) {
	svc := newTestService(t, &fakeFinder{})

	_, err := svc.Create(CreateInput{Content: "c"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(CreateInput{Title: "t"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(CreateInput{Title: "t", Content: "c", LearnedAt: "31-12-2025"})
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_WithConditionsRecordsBaseline(t *testing.T) {
	finder := &fakeFinder{baseline: closedTrades(3, 2)}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{
		Title:      "Breakouts need volume",
		Content:    "Skip breakouts on thin tape",
		Category:   "execution",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	require.NotNil(t, lesson.StatsBefore)
	assert.Equal(t, 5, lesson.StatsBefore.TotalTrades)
	assert.InDelta(t, 60.0, lesson.StatsBefore.WinRate, 0.001)
	require.NotNil(t, lesson.TradeCountBefore)
	assert.Equal(t, 5, *lesson.TradeCountBefore)
	assert.Equal(t, StatusActive, lesson.Status)
	assert.Equal(t, "execution", lesson.Category)

	// Baseline must survive a round-trip through the store.
	reloaded, err := svc.Get(lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.StatsBefore)
	assert.Equal(t, lesson.StatsBefore.WinRate, reloaded.StatsBefore.WinRate)
}

func TestCreate_WithoutConditionsHasNoBaseline(t *testing.T) {
	svc := newTestService(t, &fakeFinder{baseline: closedTrades(9, 1)})

	lesson, err := svc.Create(CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Nil(t, lesson.Conditions)
	assert.Nil(t, lesson.StatsBefore)
	assert.Nil(t, lesson.TradeCountBefore)
}

func TestValidate_TooFewTradesLeavesStatusUnchanged(t *testing.T) {
	finder := &fakeFinder{
		baseline: closedTrades(1, 1),
		window:   closedTrades(2, 1),
	}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{
		Title:      "t",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	result, err := svc.Validate(lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, result.Status)
	assert.False(t, result.Changed)
	assert.Equal(t, "Need 2 more matching trades to validate.", result.Note)
	assert.Equal(t, 3, result.StatsAfter.TotalTrades)
}

func TestValidate_ImprovedWinRateValidates(t *testing.T) {
	// Baseline 40%, window 60%: +20 points.
	finder := &fakeFinder{
		baseline: closedTrades(2, 3),
		window:   closedTrades(3, 2),
	}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{
		Title:      "t",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	result, err := svc.Validate(lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusValidated, result.Status)
	assert.True(t, result.Changed)
	assert.Contains(t, result.Note, "improved")

	reloaded, err := svc.Get(lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, reloaded.Status)
	require.NotNil(t, reloaded.StatsAfter)
	assert.InDelta(t, 60.0, reloaded.StatsAfter.WinRate, 0.001)
	require.NotNil(t, reloaded.TradeCountAfter)
	assert.Equal(t, 5, *reloaded.TradeCountAfter)
	assert.Equal(t, result.Note, reloaded.ValidationNote)

	// The baseline snapshot is immutable across validation runs.
	require.NotNil(t, reloaded.StatsBefore)
	assert.InDelta(t, 40.0, reloaded.StatsBefore.WinRate, 0.001)
}

func TestValidate_DeclinedWinRateInvalidates(t *testing.T) {
	// Baseline 60%, window 40%: -20 points.
	finder := &fakeFinder{
		baseline: closedTrades(3, 2),
		window:   closedTrades(2, 3),
	}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{
		Title:      "t",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	result, err := svc.Validate(lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusInvalidated, result.Status)
	assert.True(t, result.Changed)
	assert.Contains(t, result.Note, "declined")
}

func TestValidate_ThresholdBoundaries(t *testing.T) {
	// Baseline is 50% (1W 1L) in every case; only the window moves.
	tests := []struct {
		name        string
		window      []trades.Trade
		wantStatus  LessonStatus
		wantChanged bool
	}{
		{"exactly plus ten validates", closedTrades(3, 2), StatusValidated, true},      // 60%
		{"exactly minus ten invalidates", closedTrades(2, 3), StatusInvalidated, true}, // 40%
		{"just under plus ten stays active", closedTrades(4, 3), StatusActive, false},  // 57.1%
		{"just under minus ten stays active", closedTrades(3, 4), StatusActive, false}, // 42.9%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeFinder{
				baseline: closedTrades(1, 1),
				window:   tt.window,
			}
			svc := newTestService(t, finder)

			lesson, err := svc.Create(CreateInput{
				Title:      "t",
				Content:    "c",
				Conditions: &Conditions{Setup: []string{"breakout"}},
			})
			require.NoError(t, err)

			result, err := svc.Validate(lesson.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantChanged, result.Changed)
			if !tt.wantChanged {
				assert.Contains(t, result.Note, "not significant")
			}

			reloaded, err := svc.Get(lesson.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, reloaded.Status)
		})
	}
}

func TestValidate_SmallDeltaNotSignificant(t *testing.T) {
	// Baseline 60%, window 60%: no movement.
	finder := &fakeFinder{
		baseline: closedTrades(3, 2),
		window:   closedTrades(3, 2),
	}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{
		Title:      "t",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	result, err := svc.Validate(lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, result.Status)
	assert.False(t, result.Changed)
	assert.Contains(t, result.Note, "not significant")
}

func TestValidate_NoConditionsFails(t *testing.T) {
	svc := newTestService(t, &fakeFinder{})

	lesson, err := svc.Create(CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Validate(lesson.ID)
	assert.True(t, domain.IsValidation(err))
}

func TestValidate_NoBaselineReportsExplicitly(t *testing.T) {
	// A lesson inserted with conditions but no baseline snapshot. The
	// validator must say so rather than silently doing nothing.
	db := setupLessonDB(t)
	repo := NewLessonRepository(db, zerolog.Nop())
	finder := &fakeFinder{window: closedTrades(4, 2)}
	svc := NewService(repo, finder, zerolog.Nop())

	lesson, err := repo.Insert(Lesson{
		Title:      "t",
		Content:    "c",
		Status:     StatusActive,
		LearnedAt:  "2026-01-01",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	result, err := svc.Validate(lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, result.Status)
	assert.False(t, result.Changed)
	assert.Contains(t, result.Note, "No baseline")
}

func TestValidate_ArchivedLessonFails(t *testing.T) {
	svc := newTestService(t, &fakeFinder{})

	lesson, err := svc.Create(CreateInput{
		Title:      "t",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(lesson.ID))

	_, err = svc.Validate(lesson.ID)
	assert.True(t, domain.IsValidation(err))
}

func TestValidate_MissingLesson(t *testing.T) {
	svc := newTestService(t, &fakeFinder{})

	_, err := svc.Validate(9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_ConditionsSetBaselineOnlyOnce(t *testing.T) {
	finder := &fakeFinder{baseline: closedTrades(1, 4)}
	svc := newTestService(t, finder)

	lesson, err := svc.Create(CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Nil(t, lesson.StatsBefore)

	updated, err := svc.Update(lesson.ID, UpdateInput{
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.StatsBefore)
	assert.InDelta(t, 20.0, updated.StatsBefore.WinRate, 0.001)

	// History shifts, conditions change again: baseline stays put.
	finder.baseline = closedTrades(5, 0)
	updated, err = svc.Update(lesson.ID, UpdateInput{
		Conditions: &Conditions{Setup: []string{"reversal"}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.StatsBefore)
	assert.InDelta(t, 20.0, updated.StatsBefore.WinRate, 0.001)
}

func TestUpdate_ArchivedLessonRejected(t *testing.T) {
	svc := newTestService(t, &fakeFinder{})

	lesson, err := svc.Create(CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(lesson.ID))

	title := "new title"
	_, err = svc.Update(lesson.ID, UpdateInput{Title: &title})
	assert.True(t, domain.IsValidation(err))
}

func TestRelevant_OnlyActiveLessonsWithConditions(t *testing.T) {
	finder := &fakeFinder{}
	svc := newTestService(t, finder)

	active, err := svc.Create(CreateInput{
		Title:      "active",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)

	_, err = svc.Create(CreateInput{Title: "no conditions", Content: "c"})
	require.NoError(t, err)

	archived, err := svc.Create(CreateInput{
		Title:      "archived",
		Content:    "c",
		Conditions: &Conditions{Setup: []string{"breakout"}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(archived.ID))

	matches, err := svc.Relevant(Context{Setup: "breakout"}, QueryCap)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, active.ID, matches[0].LessonID)
}
