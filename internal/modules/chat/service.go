package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/analytics"
	"github.com/journalkeeper/tradejournal/internal/modules/journal"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// Reply is the chat response for one utterance
type Reply struct {
	MessageID string      `json:"message_id"`
	Intent    IntentKind  `json:"intent"`
	Reply     string      `json:"reply"`
	Data      interface{} `json:"data,omitempty"`
}

// Service parses utterances and dispatches them to the journal modules
type Service struct {
	trades    *trades.Service
	lessons   *lessons.Service
	journal   *journal.Repository
	analytics *analytics.Service
	llm       *LLMClient
	log       zerolog.Logger
}

// NewService creates a chat service
func NewService(
	tradeService *trades.Service,
	lessonService *lessons.Service,
	journalRepo *journal.Repository,
	analyticsService *analytics.Service,
	llm *LLMClient,
	log zerolog.Logger,
) *Service {
	return &Service{
		trades:    tradeService,
		lessons:   lessonService,
		journal:   journalRepo,
		analytics: analyticsService,
		llm:       llm,
		log:       log.With().Str("service", "chat").Logger(),
	}
}

// Handle parses one utterance and executes the matching operation.
// Regex parsing runs first; the LLM fallback only sees messages the regex
// table could not classify.
func (s *Service) Handle(ctx context.Context, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("message is required")
	}

	intent := ParseIntent(message)
	if intent.Kind == IntentUnknown && s.llm.Enabled() {
		parsed, err := s.llm.ParseIntent(ctx, message)
		if err != nil {
			s.log.Warn().Err(err).Msg("LLM intent fallback failed")
		} else {
			intent = *parsed
		}
	}

	reply, err := s.dispatch(intent)
	if err != nil {
		return nil, err
	}

	reply.MessageID = uuid.New().String()
	reply.Intent = intent.Kind
	return reply, nil
}

func (s *Service) dispatch(intent Intent) (*Reply, error) {
	switch intent.Kind {
	case IntentLogTrade:
		return s.logTrade(intent.Slots)
	case IntentCloseTrade:
		return s.closeTrade(intent.Slots)
	case IntentShowTrades:
		return s.showTrades()
	case IntentAddLesson:
		return s.addLesson(intent.Slots)
	case IntentShowLessons:
		return s.showLessons()
	case IntentOutlook:
		return s.saveOutlook(intent.Slots)
	case IntentReview:
		return s.saveReview(intent.Slots)
	case IntentStats:
		return s.showStats()
	default:
		return &Reply{
			Reply: "I didn't catch that. Try \"log long BTCUSD\", \"close trade 3 for 120\", " +
				"\"lesson: don't chase breakouts\", \"outlook: ...\", \"review: ...\" or \"show stats\".",
		}, nil
	}
}

func (s *Service) logTrade(slots map[string]string) (*Reply, error) {
	symbol := slots["symbol"]
	if symbol == "" {
		return nil, domain.NewValidationError("could not determine the trade symbol")
	}

	input := trades.CreateInput{
		Symbol:         strings.ToUpper(symbol),
		Direction:      trades.Direction(strings.ToLower(slots["direction"])),
		Setup:          slots["setup"],
		InitialEmotion: slots["emotion"],
	}

	trade, err := s.trades.Create(input)
	if err != nil {
		return nil, err
	}

	suggestions := s.lessons.SuggestForTrade(trade)

	reply := fmt.Sprintf("Logged %s %s (#%d), %s session.",
		trade.Direction, trade.Symbol, trade.ID, trade.Session)
	if len(suggestions) > 0 {
		reply += fmt.Sprintf(" %d lesson(s) look relevant, starting with: %s",
			len(suggestions), suggestions[0].Title)
	}

	return &Reply{
		Reply: reply,
		Data: map[string]interface{}{
			"trade":            trade,
			"relevant_lessons": suggestions,
		},
	}, nil
}

func (s *Service) closeTrade(slots map[string]string) (*Reply, error) {
	idStr := slots["id"]
	if idStr == "" {
		return nil, domain.NewValidationError("could not determine which trade to close")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("invalid trade id %q", idStr)
	}

	input := trades.CloseInput{}
	if pnlStr := slots["pnl"]; pnlStr != "" {
		pnl, err := strconv.ParseFloat(pnlStr, 64)
		if err != nil {
			return nil, domain.NewValidationError("invalid pnl %q", pnlStr)
		}
		input.PnL = &pnl
	}

	trade, err := s.trades.Close(id, input)
	if err != nil {
		return nil, err
	}

	suggestions := s.lessons.SuggestForTrade(trade)

	reply := fmt.Sprintf("Closed %s #%d", trade.Symbol, trade.ID)
	if trade.Outcome != "" {
		reply += fmt.Sprintf(" as a %s (%+.2f)", trade.Outcome, trade.PnLValue())
	}
	reply += "."

	return &Reply{
		Reply: reply,
		Data: map[string]interface{}{
			"trade":            trade,
			"relevant_lessons": suggestions,
		},
	}, nil
}

func (s *Service) showTrades() (*Reply, error) {
	tradeList, err := s.trades.List("", 10)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Reply: fmt.Sprintf("Here are your last %d trades.", len(tradeList)),
		Data:  map[string]interface{}{"trades": tradeList},
	}, nil
}

// truncateTitle shortens long lesson content into a title, counting runes
// so a multi-byte character at the cut never produces invalid UTF-8.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func (s *Service) addLesson(slots map[string]string) (*Reply, error) {
	content := slots["content"]
	if content == "" {
		return nil, domain.NewValidationError("lesson content is required")
	}

	title := truncateTitle(content, 60)

	lesson, err := s.lessons.Create(lessons.CreateInput{Title: title, Content: content})
	if err != nil {
		return nil, err
	}

	return &Reply{
		Reply: fmt.Sprintf("Saved lesson #%d. Add conditions to it if you want it validated against future trades.", lesson.ID),
		Data:  map[string]interface{}{"lesson": lesson},
	}, nil
}

func (s *Service) showLessons() (*Reply, error) {
	lessonList, err := s.lessons.List("", 10)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Reply: fmt.Sprintf("You have %d lesson(s) on file.", len(lessonList)),
		Data:  map[string]interface{}{"lessons": lessonList},
	}, nil
}

func (s *Service) saveOutlook(slots map[string]string) (*Reply, error) {
	text := slots["text"]
	if text == "" {
		return nil, domain.NewValidationError("outlook text is required")
	}

	outlook, err := s.journal.UpsertOutlook(journal.Outlook{
		Date: time.Now().UTC().Format("2006-01-02"),
		Plan: text,
	})
	if err != nil {
		return nil, err
	}

	return &Reply{
		Reply: fmt.Sprintf("Outlook saved for %s.", outlook.Date),
		Data:  map[string]interface{}{"outlook": outlook},
	}, nil
}

func (s *Service) saveReview(slots map[string]string) (*Reply, error) {
	text := slots["text"]
	if text == "" {
		return nil, domain.NewValidationError("review text is required")
	}

	review, err := s.journal.UpsertReview(journal.Review{
		Date:    time.Now().UTC().Format("2006-01-02"),
		Summary: text,
	})
	if err != nil {
		return nil, err
	}

	return &Reply{
		Reply: fmt.Sprintf("Review saved for %s.", review.Date),
		Data:  map[string]interface{}{"review": review},
	}, nil
}

func (s *Service) showStats() (*Reply, error) {
	summary, err := s.analytics.Summarize()
	if err != nil {
		return nil, err
	}

	reply := "No closed trades yet."
	if summary.TotalTrades > 0 {
		reply = fmt.Sprintf("%d closed trades, %.1f%% win rate, %+.2f total PnL.",
			summary.TotalTrades, summary.WinRate, summary.TotalPnL)
	}

	return &Reply{
		Reply: reply,
		Data:  map[string]interface{}{"summary": summary},
	}, nil
}
