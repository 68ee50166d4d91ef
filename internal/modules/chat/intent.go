// Package chat maps natural-language utterances to journal operations,
// using regex-based intent parsing with an optional LLM fallback.
package chat

import (
	"regexp"
	"strings"
)

// IntentKind identifies the operation an utterance maps to
type IntentKind string

const (
	IntentLogTrade    IntentKind = "log_trade"
	IntentCloseTrade  IntentKind = "close_trade"
	IntentShowTrades  IntentKind = "show_trades"
	IntentAddLesson   IntentKind = "add_lesson"
	IntentShowLessons IntentKind = "show_lessons"
	IntentOutlook     IntentKind = "daily_outlook"
	IntentReview      IntentKind = "daily_review"
	IntentStats       IntentKind = "show_stats"
	IntentUnknown     IntentKind = "unknown"
)

// Intent is a parsed utterance: the operation plus captured slots
type Intent struct {
	Kind  IntentKind        `json:"intent"`
	Slots map[string]string `json:"slots,omitempty"`
}

// Patterns are tried in order; the first match wins. Slot names follow the
// named capture groups.
var intentPatterns = []struct {
	kind IntentKind
	re   *regexp.Regexp
}{
	{IntentCloseTrade, regexp.MustCompile(`(?i)^close[d]?\s+(?:trade\s+)?#?(?P<id>\d+)(?:\s+(?:for|at)\s+(?P<pnl>[+-]?\d+(?:\.\d+)?))?`)},
	{IntentLogTrade, regexp.MustCompile(`(?i)^(?:log|record|open|enter(?:ed)?)\s+(?:a\s+)?(?P<direction>long|short)?\s*(?:trade\s+)?(?:on\s+)?(?P<symbol>[A-Z0-9]{2,12}(?:/[A-Z]{3,4})?)\b(?:.*\bsetup\s+(?P<setup>[\w\s-]+?))?(?:\s+feeling\s+(?P<emotion>\w+))?$`)},
	{IntentShowTrades, regexp.MustCompile(`(?i)^(?:show|list|what are)\b.*\b(?:trades|positions)\b`)},
	{IntentAddLesson, regexp.MustCompile(`(?i)^(?:add\s+|new\s+)?lesson[:\s]+(?P<content>.+)$`)},
	{IntentShowLessons, regexp.MustCompile(`(?i)^(?:show|list|what)\b.*\blessons\b`)},
	{IntentOutlook, regexp.MustCompile(`(?i)^(?:today'?s\s+)?outlook[:\s]+(?P<text>.+)$`)},
	{IntentReview, regexp.MustCompile(`(?i)^(?:daily\s+)?review[:\s]+(?P<text>.+)$`)},
	{IntentStats, regexp.MustCompile(`(?i)\b(?:stats|statistics|performance|win rate)\b|^how am i doing`)},
}

// ParseIntent maps an utterance to an intent via the regex table.
// Returns IntentUnknown when nothing matches; callers may then fall back to
// the LLM parser.
func ParseIntent(message string) Intent {
	message = strings.TrimSpace(message)

	for _, p := range intentPatterns {
		m := p.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}

		slots := make(map[string]string)
		for i, name := range p.re.SubexpNames() {
			if name == "" || i >= len(m) || m[i] == "" {
				continue
			}
			slots[name] = strings.TrimSpace(m[i])
		}

		return Intent{Kind: p.kind, Slots: slots}
	}

	return Intent{Kind: IntentUnknown}
}
