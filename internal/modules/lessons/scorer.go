package lessons

import (
	"sort"

	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// Relevance caps for the two scorer call sites. Same algorithm, different
// truncation: auto-suggestions attached to a trade response use the smaller
// cap, explicit relevance queries the larger.
const (
	SuggestionCap = 3
	QueryCap      = 5
)

// attributeWeights is the single source of truth for per-attribute scoring.
// Setup and trigger identify the play itself; session, emotion and location
// are circumstances, weighted lower.
var attributeWeights = map[string]int{
	"setup":    3,
	"trigger":  3,
	"session":  2,
	"emotion":  2,
	"location": 2,
}

// scoredAttributes fixes the evaluation order, which also determines the
// order of the matched_on list in results.
var scoredAttributes = []string{"setup", "trigger", "session", "emotion", "location"}

// Context is the set of trade attributes a lesson is scored against.
// Empty fields never match.
type Context struct {
	Setup    string `json:"setup,omitempty"`
	Session  string `json:"session,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
	Location string `json:"location,omitempty"`
}

// ContextFromTrade builds a scoring context from a trade's attributes
func ContextFromTrade(t *trades.Trade) Context {
	return Context{
		Setup:    t.Setup,
		Session:  t.Session,
		Trigger:  t.EntryTrigger,
		Emotion:  t.InitialEmotion,
		Location: t.Location,
	}
}

func (c Context) attribute(name string) string {
	switch name {
	case "setup":
		return c.Setup
	case "trigger":
		return c.Trigger
	case "session":
		return c.Session
	case "emotion":
		return c.Emotion
	case "location":
		return c.Location
	}
	return ""
}

func (c *Conditions) attribute(name string) []string {
	switch name {
	case "setup":
		return c.Setup
	case "trigger":
		return c.Trigger
	case "session":
		return c.Session
	case "emotion":
		return c.Emotion
	case "location":
		return c.Location
	}
	return nil
}

// Match is one scored lesson in a relevance result
type Match struct {
	LessonID       int64    `json:"lesson_id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Category       string   `json:"category,omitempty"`
	RelevanceScore int      `json:"relevance_score"`
	MatchedOn      []string `json:"matched_on"`
}

// ScoreLessons ranks candidate lessons by relevance to the context.
// Candidates are expected to be active lessons with non-empty conditions;
// anything else simply scores zero and is excluded. Lessons scoring zero
// never appear in the output. Ties keep input order (stable sort). The
// result is truncated to limit entries. Pure function, no side effects.
func ScoreLessons(ctx Context, candidates []Lesson, limit int) []Match {
	matches := make([]Match, 0, len(candidates))

	for i := range candidates {
		lesson := &candidates[i]
		if lesson.Conditions.IsEmpty() {
			continue
		}

		score := 0
		var matchedOn []string
		for _, attr := range scoredAttributes {
			value := ctx.attribute(attr)
			allowed := lesson.Conditions.attribute(attr)
			if value == "" || len(allowed) == 0 {
				continue
			}
			if containsString(allowed, value) {
				score += attributeWeights[attr]
				matchedOn = append(matchedOn, attr)
			}
		}

		if score == 0 {
			continue
		}

		matches = append(matches, Match{
			LessonID:       lesson.ID,
			Title:          lesson.Title,
			Content:        lesson.Content,
			Category:       lesson.Category,
			RelevanceScore: score,
			MatchedOn:      matchedOn,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
