package lessons

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// Validation policy constants. A lesson needs at least MinValidationTrades
// matching closed trades in its tracking window before the win-rate delta is
// considered; the delta must move at least ValidationDeltaPts percentage
// points to flip the status either way.
const (
	MinValidationTrades = 5
	ValidationDeltaPts  = 10.0
)

// CreateInput carries the fields accepted when creating a lesson
type CreateInput struct {
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Category   string      `json:"category"`
	Conditions *Conditions `json:"conditions"`
	LearnedAt  string      `json:"learned_at"` // YYYY-MM-DD, optional
}

// UpdateInput carries the editable fields of a lesson. Nil pointers leave
// the field untouched.
type UpdateInput struct {
	Title      *string     `json:"title"`
	Content    *string     `json:"content"`
	Category   *string     `json:"category"`
	Conditions *Conditions `json:"conditions"`
	LearnedAt  *string     `json:"learned_at"`
}

// ValidationResult is the outcome of one validator run
type ValidationResult struct {
	LessonID   int64         `json:"lesson_id"`
	Status     LessonStatus  `json:"status"`
	Changed    bool          `json:"changed"`
	Note       string        `json:"note"`
	StatsAfter StatsSnapshot `json:"stats_after"`
}

// Service implements the lesson lifecycle: creation with a baseline
// snapshot, relevance scoring, and validation against realized results.
type Service struct {
	repo   *LessonRepository
	finder TradeFinder
	log    zerolog.Logger
}

// NewService creates a lesson service
func NewService(repo *LessonRepository, finder TradeFinder, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		finder: finder,
		log:    log.With().Str("service", "lessons").Logger(),
	}
}

// Create stores a new lesson. When conditions are given the baseline
// snapshot is computed immediately over all historical matching trades;
// it is never recomputed afterwards.
func (s *Service) Create(input CreateInput) (*Lesson, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.NewValidationError("content is required")
	}

	learnedAt := input.LearnedAt
	if learnedAt == "" {
		learnedAt = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", learnedAt); err != nil {
		return nil, domain.NewValidationError("invalid learned_at %q (expected YYYY-MM-DD)", input.LearnedAt)
	}

	lesson := Lesson{
		Title:     input.Title,
		Content:   input.Content,
		Status:    StatusActive,
		LearnedAt: learnedAt,
	}

	if input.Category != "" {
		cat, err := s.repo.CreateCategory(input.Category)
		if err != nil {
			return nil, err
		}
		lesson.CategoryID = &cat.ID
		lesson.Category = cat.Name
	}

	if !input.Conditions.IsEmpty() {
		lesson.Conditions = input.Conditions
		// Baseline over the full trade history, no since date.
		before, err := ComputeStats(s.finder, input.Conditions, "")
		if err != nil {
			return nil, err
		}
		lesson.StatsBefore = before
		count := before.TotalTrades
		lesson.TradeCountBefore = &count
	}

	return s.repo.Insert(lesson)
}

// Get returns a lesson by id
func (s *Service) Get(id int64) (*Lesson, error) {
	return s.repo.GetByID(id)
}

// List returns lessons, optionally filtered by status
func (s *Service) List(status LessonStatus, limit int) ([]Lesson, error) {
	return s.repo.List(status, limit)
}

// Update edits a lesson. Setting conditions on a lesson that never had a
// baseline computes stats_before at that moment; an existing baseline is
// never overwritten.
func (s *Service) Update(id int64, input UpdateInput) (*Lesson, error) {
	lesson, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lesson.Status == StatusArchived {
		return nil, domain.NewValidationError("lesson %d is archived", id)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, domain.NewValidationError("title cannot be empty")
		}
		lesson.Title = *input.Title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, domain.NewValidationError("content cannot be empty")
		}
		lesson.Content = *input.Content
	}
	if input.Category != nil {
		if *input.Category == "" {
			lesson.CategoryID = nil
			lesson.Category = ""
		} else {
			cat, err := s.repo.CreateCategory(*input.Category)
			if err != nil {
				return nil, err
			}
			lesson.CategoryID = &cat.ID
			lesson.Category = cat.Name
		}
	}
	if input.LearnedAt != nil {
		if _, err := time.Parse("2006-01-02", *input.LearnedAt); err != nil {
			return nil, domain.NewValidationError("invalid learned_at %q (expected YYYY-MM-DD)", *input.LearnedAt)
		}
		lesson.LearnedAt = *input.LearnedAt
	}
	if input.Conditions != nil {
		if input.Conditions.IsEmpty() {
			lesson.Conditions = nil
		} else {
			lesson.Conditions = input.Conditions
			if lesson.StatsBefore == nil {
				before, err := ComputeStats(s.finder, input.Conditions, "")
				if err != nil {
					return nil, err
				}
				lesson.StatsBefore = before
				count := before.TotalTrades
				lesson.TradeCountBefore = &count
			}
		}
	}

	if err := s.repo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Archive soft-deletes a lesson. Archived is terminal.
func (s *Service) Archive(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	return s.repo.SetStatus(id, StatusArchived)
}

// Validate re-checks a lesson's claimed edge against trades closed since its
// learned_at date and transitions the status accordingly:
//
//   - fewer than MinValidationTrades matching trades: status unchanged
//   - win-rate delta >= +ValidationDeltaPts: validated
//   - win-rate delta <= -ValidationDeltaPts: invalidated
//   - otherwise: status unchanged, delta reported as not significant
//
// Lessons without conditions cannot be validated and fail with a
// ValidationError; that is a caller error, not a transient failure.
func (s *Service) Validate(id int64) (*ValidationResult, error) {
	lesson, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lesson.Status == StatusArchived {
		return nil, domain.NewValidationError("lesson %d is archived", id)
	}
	if lesson.Conditions.IsEmpty() {
		return nil, domain.NewValidationError("lesson %d has no conditions", id)
	}

	after, err := ComputeStats(s.finder, lesson.Conditions, lesson.LearnedAt)
	if err != nil {
		return nil, err
	}

	status := lesson.Status
	var note string

	switch {
	case after.TotalTrades < MinValidationTrades:
		note = fmt.Sprintf("Need %d more matching trades to validate.", MinValidationTrades-after.TotalTrades)

	case lesson.StatsBefore != nil:
		delta := after.WinRate - lesson.StatsBefore.WinRate
		switch {
		case delta >= ValidationDeltaPts:
			status = StatusValidated
			note = fmt.Sprintf("Win rate improved %.1f%% → %.1f%% (+%.1f points).",
				lesson.StatsBefore.WinRate, after.WinRate, delta)
		case delta <= -ValidationDeltaPts:
			status = StatusInvalidated
			note = fmt.Sprintf("Win rate declined %.1f%% → %.1f%% (-%.1f points).",
				lesson.StatsBefore.WinRate, after.WinRate, -delta)
		default:
			note = fmt.Sprintf("Win rate change %+.1f points, not significant yet.", delta)
		}

	default:
		// No baseline was ever recorded. Surface that instead of silently
		// doing nothing; the lesson stays in its current state.
		note = "No baseline win rate recorded; cannot evaluate this lesson yet."
	}

	if err := s.repo.UpdateValidation(id, status, after, note); err != nil {
		return nil, err
	}

	changed := status != lesson.Status
	if changed {
		s.log.Info().
			Int64("lesson_id", id).
			Str("from", string(lesson.Status)).
			Str("to", string(status)).
			Msg("Lesson status transitioned")
	}

	return &ValidationResult{
		LessonID:   id,
		Status:     status,
		Changed:    changed,
		Note:       note,
		StatsAfter: *after,
	}, nil
}

// Relevant scores all active lessons with conditions against the context,
// capped at limit results.
func (s *Service) Relevant(ctx Context, limit int) ([]Match, error) {
	candidates, err := s.repo.GetActiveWithConditions()
	if err != nil {
		return nil, err
	}
	return ScoreLessons(ctx, candidates, limit), nil
}

// SuggestForTrade returns the auto-suggestions attached to trade create and
// close responses. Scoring failures only degrade the response, so errors are
// logged rather than propagated.
func (s *Service) SuggestForTrade(t *trades.Trade) []Match {
	matches, err := s.Relevant(ContextFromTrade(t), SuggestionCap)
	if err != nil {
		s.log.Error().Err(err).Int64("trade_id", t.ID).Msg("Failed to score lessons for trade")
		return nil
	}
	return matches
}

// Categories lists all lesson categories
func (s *Service) Categories() ([]Category, error) {
	return s.repo.ListCategories()
}

// Validatable lists the lessons the revalidation sweep should score
func (s *Service) Validatable() ([]Lesson, error) {
	return s.repo.GetValidatableWithConditions()
}
