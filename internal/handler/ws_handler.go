package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/middleware"
	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
	"github.com/exitprep/exitprep-backend/internal/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the router level; the upgrade itself accepts any
	// origin the router let through.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler streams attempt timer state over a WebSocket.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
	}
}

// Stream godoc
// GET /ws/v1/attempts/:id/stream?token=...
// Pushes {time_remaining, is_running, is_submitted} once per second, and a
// final submitted event when the attempt reaches its terminal state.
func (h *WSHandler) Stream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.Get(id, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotOwned) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Discard client frames; the stream is one-way. Reading also surfaces
	// the close frame so the loop below can stop.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			state := attempt.Snapshot()
			event := websocket.EventTick
			if state.IsSubmitted {
				event = websocket.EventSubmitted
			}
			msg := websocket.TickResponse{
				Event:         event,
				TimeRemaining: state.TimeRemaining,
				IsRunning:     state.IsRunning,
				IsSubmitted:   state.IsSubmitted,
			}
			if err := websocket.WriteTyped(conn, msg); err != nil {
				return
			}
			if state.IsSubmitted {
				return
			}
		}
	}
}
