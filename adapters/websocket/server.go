package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chatrelay/chatrelay/domain"
	"github.com/chatrelay/chatrelay/usecase"
)

// Server exposes the relay over a WebSocket connection. Each text
// frame carries the same JSON body as POST /api/chat and gets exactly
// one response frame, {"reply":...} or {"error":...}. The connection
// itself holds no conversation state; history travels in every frame.
type Server struct {
	upgrader websocket.Upgrader
	relay    *usecase.RelayService
	hub      *Hub
}

type replyFrame struct {
	Reply string `json:"reply"`
}

type errorFrame struct {
	Error string `json:"error"`
}

func NewServer(relay *usecase.RelayService) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		relay:    relay,
		hub:      NewHub(),
	}
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Shutdown notifies connected clients that the server is going away,
// then drains and stops the hub. Blocks until every client is closed.
func (s *Server) Shutdown() {
	s.hub.Broadcast(encodeFrame(errorFrame{Error: "Server is shutting down"}))
	s.hub.Shutdown()
}

// Handler upgrades the request and serves relay frames until the peer
// goes away.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, uuid.NewString(), s.handleFrame)
	s.hub.Register(client)
	client.Run()

	defer s.hub.Unregister(client)

	<-client.Context().Done()

	return nil
}

// handleFrame runs one request/response exchange. Validation failures
// and provider failures both come back as error frames; the connection
// stays usable either way.
func (s *Server) handleFrame(ctx context.Context, frame []byte) []byte {
	var payload map[string]any
	if err := json.Unmarshal(frame, &payload); err != nil {
		return encodeFrame(errorFrame{Error: domain.ErrMessageRequired.Error()})
	}

	req, err := usecase.ParseRelayRequest(payload)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return encodeFrame(errorFrame{Error: verr.Reason})
		}
		return encodeFrame(errorFrame{Error: err.Error()})
	}

	reply, err := s.relay.Reply(ctx, req)
	if err != nil {
		return encodeFrame(errorFrame{Error: err.Error()})
	}

	return encodeFrame(replyFrame{Reply: reply})
}

func encodeFrame(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return data
}
