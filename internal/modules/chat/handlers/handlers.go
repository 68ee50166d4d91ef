// Package handlers provides HTTP and websocket handlers for the chat
// interface.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/chat"
	"github.com/journalkeeper/tradejournal/internal/modules/vision"
)

// 5 MB per screenshot upload
const maxScreenshotBytes = 5 << 20

// ChatHandlers contains HTTP handlers for the chat API
type ChatHandlers struct {
	service *chat.Service
	vision  *vision.Client
	log     zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance
func NewChatHandlers(service *chat.Service, visionClient *vision.Client, log zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		service: service,
		vision:  visionClient,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// HandleMessage handles POST /api/chat
func (h *ChatHandlers) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	reply, err := h.service.Handle(r.Context(), req.Message)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, reply)
}

// HandleWebSocket handles GET /api/chat/ws. Each text frame is one utterance
// and each reply frame is a JSON encoded chat reply.
func (h *ChatHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // same-origin single user app
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := r.Context()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.log.Debug().Err(err).Msg("Websocket read ended")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		reply, err := h.service.Handle(ctx, string(data))
		if err != nil {
			reply = &chat.Reply{Reply: errorReplyText(err)}
		}

		payload, err := json.Marshal(reply)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode chat reply")
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}
}

// HandleScreenshot handles POST /api/chat/screenshot. The request body is the
// raw image; trade fields extracted from it come back for confirmation.
func (h *ChatHandlers) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	if !h.vision.Enabled() {
		domain.WriteErrorMessage(w, http.StatusServiceUnavailable, "vision_unavailable",
			"screenshot extraction requires an LLM API key")
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxScreenshotBytes+1))
	if err != nil {
		domain.WriteError(w, err)
		return
	}
	if len(image) == 0 {
		domain.WriteError(w, domain.NewValidationError("screenshot body is empty"))
		return
	}
	if len(image) > maxScreenshotBytes {
		domain.WriteError(w, domain.NewValidationError("screenshot exceeds %d bytes", maxScreenshotBytes))
		return
	}

	extraction, err := h.vision.Extract(r.Context(), image, r.Header.Get("Content-Type"))
	if err != nil {
		h.log.Error().Err(err).Msg("Screenshot extraction failed")
		domain.WriteErrorMessage(w, http.StatusBadGateway, "vision_error", err.Error())
		return
	}

	domain.WriteJSON(w, http.StatusOK, extraction)
}

func errorReplyText(err error) string {
	if domain.IsValidation(err) {
		return err.Error()
	}
	return "Something went wrong handling that message."
}
