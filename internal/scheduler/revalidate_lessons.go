package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
)

// LessonValidator defines the lesson operations the revalidation job needs.
// Used by the scheduler to enable testing with mocks.
type LessonValidator interface {
	Validatable() ([]lessons.Lesson, error)
	Validate(id int64) (*lessons.ValidationResult, error)
}

// RevalidateLessonsJob re-scores every lesson that has conditions against the
// trades closed since it was learned. Lessons a trader edited into the
// archive are skipped by the query itself.
type RevalidateLessonsJob struct {
	validator LessonValidator
	log       zerolog.Logger
}

// NewRevalidateLessonsJob creates a new lesson revalidation job
func NewRevalidateLessonsJob(validator LessonValidator, log zerolog.Logger) *RevalidateLessonsJob {
	return &RevalidateLessonsJob{
		validator: validator,
		log:       log.With().Str("job", "revalidate_lessons").Logger(),
	}
}

// Name returns the job name
func (j *RevalidateLessonsJob) Name() string {
	return "revalidate_lessons"
}

// Run executes the revalidation sweep. A lesson that fails to validate does
// not stop the sweep; failures are logged and counted.
func (j *RevalidateLessonsJob) Run() error {
	lessonList, err := j.validator.Validatable()
	if err != nil {
		return fmt.Errorf("failed to list validatable lessons: %w", err)
	}

	changed := 0
	failed := 0
	for i := range lessonList {
		lesson := &lessonList[i]

		result, err := j.validator.Validate(lesson.ID)
		if err != nil {
			// Lessons without usable conditions are expected here, not errors
			if domain.IsValidation(err) {
				j.log.Debug().Int64("lesson_id", lesson.ID).Err(err).Msg("Skipping lesson")
				continue
			}
			failed++
			j.log.Error().Err(err).Int64("lesson_id", lesson.ID).Msg("Failed to revalidate lesson")
			continue
		}

		if result.Changed {
			changed++
			j.log.Info().
				Int64("lesson_id", lesson.ID).
				Str("status", string(result.Status)).
				Str("note", result.Note).
				Msg("Lesson status changed")
		}
	}

	j.log.Info().
		Int("lessons", len(lessonList)).
		Int("changed", changed).
		Int("failed", failed).
		Msg("Lesson revalidation sweep finished")

	if failed > 0 {
		return fmt.Errorf("revalidation sweep had %d failure(s)", failed)
	}
	return nil
}
