package trades

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
)

// CreateInput carries the fields accepted when logging a new trade
type CreateInput struct {
	Symbol         string    `json:"symbol"`
	Direction      Direction `json:"direction"`
	Setup          string    `json:"setup"`
	Session        string    `json:"session"`
	EntryTrigger   string    `json:"entry_trigger"`
	Location       string    `json:"location"`
	InitialEmotion string    `json:"initial_emotion"`
	EntryPrice     *float64  `json:"entry_price"`
	Quantity       *float64  `json:"quantity"`
	Notes          string    `json:"notes"`
	OpenedAt       string    `json:"opened_at"` // RFC3339, optional
}

// CloseInput carries the fields accepted when closing a trade
type CloseInput struct {
	ExitPrice *float64 `json:"exit_price"`
	PnL       *float64 `json:"pnl"`
	Outcome   Outcome  `json:"outcome"`
	Notes     string   `json:"notes"`
	ClosedAt  string   `json:"closed_at"` // RFC3339, optional
}

// Service implements trade journal operations on top of the repository
type Service struct {
	repo *TradeRepository
	log  zerolog.Logger
}

// NewService creates a trade service
func NewService(repo *TradeRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "trades").Logger(),
	}
}

// FindClosed returns closed trades matching the filter
func (s *Service) FindClosed(filter ClosedTradeFilter) ([]Trade, error) {
	return s.repo.FindClosed(filter)
}

// Create logs a new open trade. The session is classified from the opening
// time when the caller does not provide one.
func (s *Service) Create(input CreateInput) (*Trade, error) {
	if input.Symbol == "" {
		return nil, domain.NewValidationError("symbol is required")
	}

	openedAt := time.Now().UTC()
	if input.OpenedAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.OpenedAt)
		if err != nil {
			return nil, domain.NewValidationError("invalid opened_at %q (expected RFC3339)", input.OpenedAt)
		}
		openedAt = parsed.UTC()
	}

	direction := input.Direction
	if direction == "" {
		direction = DirectionLong
	}

	session := input.Session
	if session == "" {
		session = ClassifySession(openedAt)
	}

	trade := Trade{
		Symbol:         input.Symbol,
		Direction:      direction,
		Setup:          input.Setup,
		Session:        session,
		EntryTrigger:   input.EntryTrigger,
		Location:       input.Location,
		InitialEmotion: input.InitialEmotion,
		EntryPrice:     input.EntryPrice,
		Quantity:       input.Quantity,
		Notes:          input.Notes,
		Status:         TradeStatusOpen,
		OpenedAt:       openedAt,
	}

	return s.repo.Create(trade)
}

// Close marks a trade closed, deriving pnl and outcome where possible.
// Closing an already-closed trade overwrites the exit fields.
func (s *Service) Close(id int64, input CloseInput) (*Trade, error) {
	trade, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	closedAt := time.Now().UTC()
	if input.ClosedAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.ClosedAt)
		if err != nil {
			return nil, domain.NewValidationError("invalid closed_at %q (expected RFC3339)", input.ClosedAt)
		}
		closedAt = parsed.UTC()
	}

	if input.ExitPrice != nil {
		trade.ExitPrice = input.ExitPrice
	}

	pnl := input.PnL
	if pnl == nil && trade.EntryPrice != nil && trade.ExitPrice != nil && trade.Quantity != nil {
		diff := (*trade.ExitPrice - *trade.EntryPrice) * *trade.Quantity
		if trade.Direction == DirectionShort {
			diff = -diff
		}
		pnl = &diff
	}
	if pnl != nil {
		trade.PnL = pnl
	}

	outcome := input.Outcome
	if outcome == "" && trade.PnL != nil {
		outcome = DeriveOutcome(*trade.PnL)
	}
	if outcome != "" {
		trade.Outcome = outcome
	}

	if input.Notes != "" {
		trade.Notes = input.Notes
	}

	trade.Status = TradeStatusClosed
	trade.ClosedAt = &closedAt

	if err := s.repo.Update(trade); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", trade.ID).
		Str("outcome", string(trade.Outcome)).
		Float64("pnl", trade.PnLValue()).
		Msg("Trade closed")

	return trade, nil
}

// Get returns a trade by id
func (s *Service) Get(id int64) (*Trade, error) {
	return s.repo.GetByID(id)
}

// List returns trades, optionally filtered by status
func (s *Service) List(status TradeStatus, limit int) ([]Trade, error) {
	return s.repo.List(status, limit)
}

// Delete removes a trade
func (s *Service) Delete(id int64) error {
	return s.repo.Delete(id)
}
