// Package handlers provides HTTP handlers for the trade log.
package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
)

// TradeHandlers contains HTTP handlers for the trades API
type TradeHandlers struct {
	service *trades.Service
	lessons *lessons.Service
	log     zerolog.Logger
}

// NewTradeHandlers creates a new trade handlers instance
func NewTradeHandlers(service *trades.Service, lessonService *lessons.Service, log zerolog.Logger) *TradeHandlers {
	return &TradeHandlers{
		service: service,
		lessons: lessonService,
		log:     log.With().Str("handler", "trades").Logger(),
	}
}

// tradeResponse pairs a trade with the lessons that match its attributes
type tradeResponse struct {
	Trade           *trades.Trade   `json:"trade"`
	RelevantLessons []lessons.Match `json:"relevant_lessons"`
}

// HandleCreateTrade handles POST /api/trades
func (h *TradeHandlers) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var input trades.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	trade, err := h.service.Create(input)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusCreated, tradeResponse{
		Trade:           trade,
		RelevantLessons: h.lessons.SuggestForTrade(trade),
	})
}

// HandleListTrades handles GET /api/trades
func (h *TradeHandlers) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	status := trades.TradeStatus(r.URL.Query().Get("status"))
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			domain.WriteError(w, domain.NewValidationError("invalid limit %q", raw))
			return
		}
		limit = n
	}

	tradeList, err := h.service.List(status, limit)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"trades": tradeList})
}

// HandleGetTrade handles GET /api/trades/{id}
func (h *TradeHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	trade, err := h.service.Get(id)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, trade)
}

// HandleCloseTrade handles POST /api/trades/{id}/close
func (h *TradeHandlers) HandleCloseTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	var input trades.CloseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	trade, err := h.service.Close(id, input)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, tradeResponse{
		Trade:           trade,
		RelevantLessons: h.lessons.SuggestForTrade(trade),
	})
}

// HandleDeleteTrade handles DELETE /api/trades/{id}
func (h *TradeHandlers) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	if err := h.service.Delete(id); err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// HandleExportTrades handles GET /api/trades/export. The format query
// parameter selects csv (default) or json.
func (h *TradeHandlers) HandleExportTrades(w http.ResponseWriter, r *http.Request) {
	tradeList, err := h.service.List("", 0)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	filename := fmt.Sprintf("trades-%s", time.Now().UTC().Format("2006-01-02"))

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".json"))
		domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"trades": tradeList})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"id", "symbol", "direction", "setup", "session", "entry_trigger", "location",
		"initial_emotion", "entry_price", "exit_price", "quantity", "pnl", "outcome",
		"status", "opened_at", "closed_at", "notes",
	})
	for i := range tradeList {
		t := &tradeList[i]
		closedAt := ""
		if t.ClosedAt != nil {
			closedAt = t.ClosedAt.UTC().Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Symbol,
			string(t.Direction),
			t.Setup,
			t.Session,
			t.EntryTrigger,
			t.Location,
			t.InitialEmotion,
			formatFloatPtr(t.EntryPrice),
			formatFloatPtr(t.ExitPrice),
			formatFloatPtr(t.Quantity),
			formatFloatPtr(t.PnL),
			string(t.Outcome),
			string(t.Status),
			t.OpenedAt.UTC().Format(time.RFC3339),
			closedAt,
			t.Notes,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV export")
	}
}

func tradeID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid trade id %q", raw)
	}
	return id, nil
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
