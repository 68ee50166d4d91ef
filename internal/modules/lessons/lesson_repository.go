package lessons

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// lessonColumns is the list of lesson columns, prefixed for the category
// join. Column order must match scanLesson.
const lessonColumns = `l.id, l.title, l.content, l.category_id, c.name, l.conditions, l.status, l.learned_at, l.stats_before, l.trade_count_before, l.stats_after, l.trade_count_after, l.validation_note, l.created_at, l.updated_at`

const lessonSelect = `SELECT ` + lessonColumns + ` FROM lessons l LEFT JOIN lesson_categories c ON l.category_id = c.id`

// LessonRepository handles lesson database operations
type LessonRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB, log zerolog.Logger) *LessonRepository {
	return &LessonRepository{
		db:  db,
		log: log.With().Str("repo", "lesson").Logger(),
	}
}

// Insert stores a new lesson and returns it with its assigned id
func (r *LessonRepository) Insert(lesson Lesson) (*Lesson, error) {
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	conditionsJSON, err := marshalNullable(lesson.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize conditions: %w", err)
	}
	beforeJSON, err := marshalNullable(lesson.StatsBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize stats_before: %w", err)
	}

	query := `
		INSERT INTO lessons
		(title, content, category_id, conditions, status, learned_at,
		 stats_before, trade_count_before, validation_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		lesson.Title,
		lesson.Content,
		nullInt64Ptr(lesson.CategoryID),
		conditionsJSON,
		string(lesson.Status),
		lesson.LearnedAt,
		beforeJSON,
		nullIntPtr(lesson.TradeCountBefore),
		nullStr(lesson.ValidationNote),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson id: %w", err)
	}
	lesson.ID = id

	r.log.Info().
		Int64("id", id).
		Str("title", lesson.Title).
		Bool("has_conditions", !lesson.Conditions.IsEmpty()).
		Msg("Lesson created")

	return &lesson, nil
}

// GetByID retrieves a lesson by id
func (r *LessonRepository) GetByID(id int64) (*Lesson, error) {
	row := r.db.QueryRow(lessonSelect+" WHERE l.id = ?", id)
	lesson, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("lesson %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

// List retrieves lessons, newest first. An empty status returns all
// non-archived lessons.
func (r *LessonRepository) List(status LessonStatus, limit int) ([]Lesson, error) {
	if limit <= 0 {
		limit = 100
	}

	query := lessonSelect
	args := []interface{}{}
	if status != "" {
		query += " WHERE l.status = ?"
		args = append(args, string(status))
	} else {
		query += " WHERE l.status != 'archived'"
	}
	query += " ORDER BY l.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// GetActiveWithConditions returns the scorer's candidate set: active lessons
// that declare applicability conditions.
func (r *LessonRepository) GetActiveWithConditions() ([]Lesson, error) {
	query := lessonSelect + " WHERE l.status = 'active' AND l.conditions IS NOT NULL ORDER BY l.id ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// GetValidatableWithConditions returns lessons the re-validation sweep should
// visit: conditions present, and in a state validation may move or confirm.
func (r *LessonRepository) GetValidatableWithConditions() ([]Lesson, error) {
	query := lessonSelect + ` WHERE l.conditions IS NOT NULL
		AND l.status IN ('active', 'validated', 'invalidated') ORDER BY l.id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get validatable lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// Update writes the editable fields of a lesson
func (r *LessonRepository) Update(lesson *Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()

	conditionsJSON, err := marshalNullable(lesson.Conditions)
	if err != nil {
		return fmt.Errorf("failed to serialize conditions: %w", err)
	}
	beforeJSON, err := marshalNullable(lesson.StatsBefore)
	if err != nil {
		return fmt.Errorf("failed to serialize stats_before: %w", err)
	}

	query := `
		UPDATE lessons SET
			title = ?, content = ?, category_id = ?, conditions = ?, status = ?,
			learned_at = ?, stats_before = ?, trade_count_before = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		lesson.Title,
		lesson.Content,
		nullInt64Ptr(lesson.CategoryID),
		conditionsJSON,
		string(lesson.Status),
		lesson.LearnedAt,
		beforeJSON,
		nullIntPtr(lesson.TradeCountBefore),
		lesson.UpdatedAt.Unix(),
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("lesson %d", lesson.ID)
	}

	return nil
}

// UpdateValidation persists the outcome of a validation run: the new
// snapshot, trade count, (possibly unchanged) status and note. This is the
// single atomic write of the validator.
func (r *LessonRepository) UpdateValidation(id int64, status LessonStatus, after *StatsSnapshot, note string) error {
	afterJSON, err := marshalNullable(after)
	if err != nil {
		return fmt.Errorf("failed to serialize stats_after: %w", err)
	}

	var tradeCount interface{}
	if after != nil {
		tradeCount = after.TotalTrades
	}

	query := `
		UPDATE lessons SET
			status = ?, stats_after = ?, trade_count_after = ?, validation_note = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(status),
		afterJSON,
		tradeCount,
		nullStr(note),
		time.Now().UTC().Unix(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to persist validation result: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check validation update: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("lesson %d", id)
	}

	return nil
}

// SetStatus transitions a lesson's status without touching other fields
func (r *LessonRepository) SetStatus(id int64, status LessonStatus) error {
	result, err := r.db.Exec(
		"UPDATE lessons SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set lesson status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("lesson %d", id)
	}

	return nil
}

// CreateCategory inserts a lesson category, returning the existing one if the
// name is already taken.
func (r *LessonRepository) CreateCategory(name string) (*Category, error) {
	existing, err := r.GetCategoryByName(name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(
		"INSERT INTO lesson_categories (name, created_at) VALUES (?, ?)",
		name, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category id: %w", err)
	}

	return &Category{ID: id, Name: name, CreatedAt: now}, nil
}

// GetCategoryByName looks a category up by its unique name
func (r *LessonRepository) GetCategoryByName(name string) (*Category, error) {
	var cat Category
	var createdAt int64
	err := r.db.QueryRow(
		"SELECT id, name, created_at FROM lesson_categories WHERE name = ?", name,
	).Scan(&cat.ID, &cat.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("category %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	cat.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &cat, nil
}

// ListCategories returns all categories ordered by name
func (r *LessonRepository) ListCategories() ([]Category, error) {
	rows, err := r.db.Query("SELECT id, name, created_at FROM lesson_categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		var createdAt int64
		if err := rows.Scan(&cat.ID, &cat.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.CreatedAt = time.Unix(createdAt, 0).UTC()
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Helper functions

func collectLessons(rows *sql.Rows) ([]Lesson, error) {
	var lessonList []Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessonList = append(lessonList, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lessons: %w", err)
	}
	return lessonList, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLesson(s scanner) (Lesson, error) {
	var lesson Lesson
	var categoryID sql.NullInt64
	var categoryName, conditionsJSON, beforeJSON, afterJSON, note sql.NullString
	var countBefore, countAfter sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Content,
		&categoryID,
		&categoryName,
		&conditionsJSON,
		&lesson.Status,
		&lesson.LearnedAt,
		&beforeJSON,
		&countBefore,
		&afterJSON,
		&countAfter,
		&note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return lesson, err
	}

	if categoryID.Valid {
		lesson.CategoryID = &categoryID.Int64
	}
	lesson.Category = categoryName.String
	lesson.ValidationNote = note.String

	if conditionsJSON.Valid {
		var cond Conditions
		if err := json.Unmarshal([]byte(conditionsJSON.String), &cond); err != nil {
			return lesson, fmt.Errorf("corrupt conditions on lesson %d: %w", lesson.ID, err)
		}
		lesson.Conditions = &cond
	}
	if beforeJSON.Valid {
		var snap StatsSnapshot
		if err := json.Unmarshal([]byte(beforeJSON.String), &snap); err != nil {
			return lesson, fmt.Errorf("corrupt stats_before on lesson %d: %w", lesson.ID, err)
		}
		lesson.StatsBefore = &snap
	}
	if afterJSON.Valid {
		var snap StatsSnapshot
		if err := json.Unmarshal([]byte(afterJSON.String), &snap); err != nil {
			return lesson, fmt.Errorf("corrupt stats_after on lesson %d: %w", lesson.ID, err)
		}
		lesson.StatsAfter = &snap
	}
	if countBefore.Valid {
		v := int(countBefore.Int64)
		lesson.TradeCountBefore = &v
	}
	if countAfter.Valid {
		v := int(countAfter.Int64)
		lesson.TradeCountAfter = &v
	}

	lesson.CreatedAt = time.Unix(createdAt, 0).UTC()
	lesson.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return lesson, nil
}

// marshalNullable serializes v to a JSON column value, writing NULL for nil
func marshalNullable(v interface{}) (sql.NullString, error) {
	switch val := v.(type) {
	case *Conditions:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *StatsSnapshot:
		if val == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
