package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// Repository handles daily outlook and review persistence. Both tables are
// keyed by date; writes are upserts so the same day can be refined all day.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a journal repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "journal").Logger(),
	}
}

// UpsertOutlook creates or updates the outlook for a date
func (r *Repository) UpsertOutlook(o Outlook) (*Outlook, error) {
	if err := validateDate(o.Date); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO daily_outlooks (date, bias, key_levels, plan, emotion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			bias = excluded.bias,
			key_levels = excluded.key_levels,
			plan = excluded.plan,
			emotion = excluded.emotion,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, o.Date, o.Bias, o.KeyLevels, o.Plan, o.Emotion, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert outlook: %w", err)
	}

	return r.GetOutlook(o.Date)
}

// GetOutlook returns the outlook for a date
func (r *Repository) GetOutlook(date string) (*Outlook, error) {
	var o Outlook
	var createdAt, updatedAt int64
	err := r.db.QueryRow(
		"SELECT id, date, bias, key_levels, plan, emotion, created_at, updated_at FROM daily_outlooks WHERE date = ?",
		date,
	).Scan(&o.ID, &o.Date, &o.Bias, &o.KeyLevels, &o.Plan, &o.Emotion, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("outlook for %s", date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outlook: %w", err)
	}
	o.CreatedAt = time.Unix(createdAt, 0).UTC()
	o.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &o, nil
}

// UpsertReview creates or updates the review for a date
func (r *Repository) UpsertReview(rev Review) (*Review, error) {
	if err := validateDate(rev.Date); err != nil {
		return nil, err
	}
	if rev.Rating != nil && (*rev.Rating < 1 || *rev.Rating > 5) {
		return nil, domain.NewValidationError("rating must be between 1 and 5, got %d", *rev.Rating)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO daily_reviews (date, summary, followed_plan, mistakes, wins, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			summary = excluded.summary,
			followed_plan = excluded.followed_plan,
			mistakes = excluded.mistakes,
			wins = excluded.wins,
			rating = excluded.rating,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, rev.Date, rev.Summary, nullBoolPtr(rev.FollowedPlan),
		rev.Mistakes, rev.Wins, nullIntPtr(rev.Rating), now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert review: %w", err)
	}

	return r.GetReview(rev.Date)
}

// GetReview returns the review for a date
func (r *Repository) GetReview(date string) (*Review, error) {
	var rev Review
	var followedPlan, rating sql.NullInt64
	var createdAt, updatedAt int64
	err := r.db.QueryRow(
		"SELECT id, date, summary, followed_plan, mistakes, wins, rating, created_at, updated_at FROM daily_reviews WHERE date = ?",
		date,
	).Scan(&rev.ID, &rev.Date, &rev.Summary, &followedPlan, &rev.Mistakes, &rev.Wins, &rating, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("review for %s", date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if followedPlan.Valid {
		v := followedPlan.Int64 != 0
		rev.FollowedPlan = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		rev.Rating = &v
	}
	rev.CreatedAt = time.Unix(createdAt, 0).UTC()
	rev.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &rev, nil
}

// RecentDays returns the most recent journaled days (dates that have an
// outlook, a review, or both), newest first.
func (r *Repository) RecentDays(limit int) ([]Day, error) {
	if limit <= 0 {
		limit = 14
	}

	query := `
		SELECT date FROM (
			SELECT date FROM daily_outlooks
			UNION
			SELECT date FROM daily_reviews
		) ORDER BY date DESC LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal days: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan journal date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal days: %w", err)
	}

	days := make([]Day, 0, len(dates))
	for _, date := range dates {
		day := Day{Date: date}
		if outlook, err := r.GetOutlook(date); err == nil {
			day.Outlook = outlook
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if review, err := r.GetReview(date); err == nil {
			day.Review = review
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		days = append(days, day)
	}

	return days, nil
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.NewValidationError("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}

func nullBoolPtr(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	v := int64(0)
	if *b {
		v = 1
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
