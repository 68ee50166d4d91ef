package journal

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// setupJournalDB creates an in-memory SQLite database with the journal tables
func setupJournalDB(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	statements := []string{
		`CREATE TABLE daily_outlooks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL UNIQUE,
			bias TEXT,
			key_levels TEXT,
			plan TEXT,
			emotion TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE daily_reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL UNIQUE,
			summary TEXT,
			followed_plan INTEGER,
			mistakes TEXT,
			wins TEXT,
			rating INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return NewRepository(db, zerolog.Nop())
}

func TestUpsertOutlook_InsertThenUpdate(t *testing.T) {
	repo := setupJournalDB(t)

	first, err := repo.UpsertOutlook(Outlook{
		Date: "2026-03-02",
		Bias: "bullish",
		Plan: "buy dips at support",
	})
	require.NoError(t, err)
	assert.Equal(t, "bullish", first.Bias)

	second, err := repo.UpsertOutlook(Outlook{
		Date:    "2026-03-02",
		Bias:    "bearish",
		Plan:    "fade rallies",
		Emotion: "cautious",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "bearish", second.Bias)
	assert.Equal(t, "cautious", second.Emotion)
}

func TestUpsertOutlook_InvalidDate(t *testing.T) {
	repo := setupJournalDB(t)

	_, err := repo.UpsertOutlook(Outlook{Date: "02-03-2026"})
	assert.True(t, domain.IsValidation(err))
}

func TestGetOutlook_Missing(t *testing.T) {
	repo := setupJournalDB(t)

	_, err := repo.GetOutlook("2026-03-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertReview_RoundTrip(t *testing.T) {
	repo := setupJournalDB(t)

	followed := true
	rating := 4
	review, err := repo.UpsertReview(Review{
		Date:         "2026-03-02",
		Summary:      "Two trades, both planned",
		FollowedPlan: &followed,
		Mistakes:     "sized up too early",
		Wins:         "waited for the close",
		Rating:       &rating,
	})
	require.NoError(t, err)

	require.NotNil(t, review.FollowedPlan)
	assert.True(t, *review.FollowedPlan)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 4, *review.Rating)

	got, err := repo.GetReview("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)
	assert.Equal(t, "sized up too early", got.Mistakes)
}

func TestUpsertReview_RatingBounds(t *testing.T) {
	repo := setupJournalDB(t)

	for _, rating := range []int{0, 6} {
		r := rating
		_, err := repo.UpsertReview(Review{Date: "2026-03-02", Rating: &r})
		assert.True(t, domain.IsValidation(err), "rating %d", rating)
	}
}

func TestUpsertReview_NilOptionalsAllowed(t *testing.T) {
	repo := setupJournalDB(t)

	review, err := repo.UpsertReview(Review{Date: "2026-03-02", Summary: "quiet day"})
	require.NoError(t, err)
	assert.Nil(t, review.FollowedPlan)
	assert.Nil(t, review.Rating)
}

func TestRecentDays_MergesOutlooksAndReviews(t *testing.T) {
	repo := setupJournalDB(t)

	_, err := repo.UpsertOutlook(Outlook{Date: "2026-03-02", Bias: "bullish"})
	require.NoError(t, err)
	_, err = repo.UpsertReview(Review{Date: "2026-03-02", Summary: "good day"})
	require.NoError(t, err)
	_, err = repo.UpsertOutlook(Outlook{Date: "2026-03-03", Bias: "neutral"})
	require.NoError(t, err)
	_, err = repo.UpsertReview(Review{Date: "2026-03-01", Summary: "review only"})
	require.NoError(t, err)

	days, err := repo.RecentDays(10)
	require.NoError(t, err)
	require.Len(t, days, 3)

	// Newest first.
	assert.Equal(t, "2026-03-03", days[0].Date)
	assert.NotNil(t, days[0].Outlook)
	assert.Nil(t, days[0].Review)

	assert.Equal(t, "2026-03-02", days[1].Date)
	assert.NotNil(t, days[1].Outlook)
	assert.NotNil(t, days[1].Review)

	assert.Equal(t, "2026-03-01", days[2].Date)
	assert.Nil(t, days[2].Outlook)
	assert.NotNil(t, days[2].Review)
}

func TestRecentDays_Limit(t *testing.T) {
	repo := setupJournalDB(t)

	for _, date := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		_, err := repo.UpsertOutlook(Outlook{Date: date})
		require.NoError(t, err)
	}

	days, err := repo.RecentDays(2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-03-03", days[0].Date)
}
