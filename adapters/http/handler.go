package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/domain"
	"github.com/chatrelay/chatrelay/usecase"
	"github.com/chatrelay/chatrelay/utils/log"
)

type ChatHandler struct {
	relay *usecase.RelayService
}

type ReplyResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewChatHandler(relay *usecase.RelayService) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Chat handles POST /api/chat. The body is decoded generically so
// validation can report which rule a malformed request broke instead
// of a single bind error.
func (h *ChatHandler) Chat(c echo.Context) error {
	ctx := context.WithValue(c.Request().Context(), log.RequestIDKey, uuid.NewString())

	var payload map[string]any
	if err := c.Bind(&payload); err != nil {
		// No message could be extracted from an unparseable body.
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: domain.ErrMessageRequired.Error()})
	}

	req, err := usecase.ParseRelayRequest(payload)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			log.WithCtx(ctx).Debug("rejected chat request", zap.String("reason", verr.Reason))
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Reason})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	log.WithCtx(ctx).Info("relaying chat request",
		zap.Int("history_len", len(req.History)),
		zap.Bool("system_prompt", req.SystemPrompt != ""))

	reply, err := h.relay.Reply(ctx, req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, ReplyResponse{Reply: reply})
}

// Health check endpoint
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "chat-relay",
	})
}
