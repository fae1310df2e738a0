package webpanel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
	"github.com/eternisai/push-panel/internal/panel"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const pingPeriod = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests from the page served by this listener, or from
// clients that send no Origin at all.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "http://"+r.Host
}

// Loop runs functions on the UI thread.
type Loop interface {
	Do(ctx context.Context, fn func()) error
}

// Controller is the subset of *panel.Controller the handlers drive.
type Controller interface {
	Toggle()
	Send(in panel.SendInput) error
	State() panel.WindowState
}

// Handler serves the panel page and its API.
type Handler struct {
	loop       Loop
	controller Controller
	surface    *Surface
	hub        *Hub
	logger     *logger.Logger
}

// NewHandler creates a handler. All controller calls go through loop.
func NewHandler(loop Loop, controller Controller, surface *Surface, hub *Hub, logger *logger.Logger) *Handler {
	return &Handler{
		loop:       loop,
		controller: controller,
		surface:    surface,
		hub:        hub,
		logger:     logger,
	}
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// State handles GET /api/state
func (h *Handler) State(c *gin.Context) {
	resp, err := h.state(c.Request.Context())
	if err != nil {
		apperrors.AbortWithInternal(c, "panel unavailable", map[string]interface{}{"reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Toggle handles POST /api/toggle
func (h *Handler) Toggle(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("webpanel_handler")

	if err := h.loop.Do(c.Request.Context(), h.controller.Toggle); err != nil {
		log.Error("toggle failed",
			slog.String("error", err.Error()))
		apperrors.AbortWithInternal(c, "panel unavailable", map[string]interface{}{"reason": err.Error()})
		return
	}

	h.State(c)
}

// Send handles POST /api/send
func (h *Handler) Send(c *gin.Context) {
	ctx := logger.WithRequestID(c.Request.Context(), logger.GenerateRequestID())
	log := h.logger.WithContext(ctx).WithComponent("webpanel_handler")

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request body",
			slog.String("error", err.Error()))
		apperrors.AbortWithBadRequest(c, "invalid request body", map[string]interface{}{"reason": err.Error()})
		return
	}

	var sendErr error
	if err := h.loop.Do(ctx, func() {
		sendErr = h.controller.Send(panel.SendInput{
			Token:    req.Token,
			Body:     req.Body,
			Remember: req.Remember,
		})
	}); err != nil {
		log.Error("send failed",
			slog.String("error", err.Error()))
		apperrors.AbortWithInternal(c, "panel unavailable", map[string]interface{}{"reason": err.Error()})
		return
	}

	var validationErr *apperrors.InputValidationError
	switch {
	case sendErr == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": panel.SendPending.String()})
	case errors.As(sendErr, &validationErr):
		apperrors.AbortWithBadRequest(c, panel.InputErrorMessage, map[string]interface{}{"fields": validationErr.Fields})
	case errors.Is(sendErr, panel.ErrSendInProgress), errors.Is(sendErr, panel.ErrPanelNotVisible):
		apperrors.AbortWithConflict(c, sendErr.Error(), nil)
	default:
		log.Error("send failed",
			slog.String("error", sendErr.Error()))
		apperrors.AbortWithInternal(c, sendErr.Error(), nil)
	}
}

// WebSocket handles GET /ws
func (h *Handler) WebSocket(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("webpanel_websocket")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	cl := h.hub.register(conn)
	defer h.hub.unregister(conn)

	snap := h.surface.Snapshot()
	if err := cl.writeJSON(WebSocketMessage{Type: WSMessageTypeSnapshot, Snapshot: &snap}); err != nil {
		log.Error("failed to send initial snapshot",
			slog.String("error", err.Error()))
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Debug("connection closed by client",
					slog.String("error", err.Error()))
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := cl.write(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to send ping",
					slog.String("error", err.Error()))
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) state(ctx context.Context) (StateResponse, error) {
	var state panel.WindowState
	if err := h.loop.Do(ctx, func() { state = h.controller.State() }); err != nil {
		return StateResponse{}, err
	}
	return StateResponse{State: state.String(), Snapshot: h.surface.Snapshot()}, nil
}
