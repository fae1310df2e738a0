package webpanel

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed index.html
var indexHTML []byte

// NewRouter wires the panel routes. gatherer backs /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/", h.Index)
	router.GET("/healthz", h.Healthz)
	router.GET("/ws", h.WebSocket)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(requireSameOrigin(log), requireJSONBody())
	{
		api.GET("/state", h.State)
		api.POST("/toggle", h.Toggle)
		api.POST("/send", h.Send)
	}

	return router
}

// requireSameOrigin rejects API calls made by pages from another origin.
func requireSameOrigin(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sameOrigin(c.Request) {
			log.WithComponent("http").Warn("rejected cross-origin request",
				slog.String("origin", c.GetHeader("Origin")),
				slog.String("path", c.Request.URL.Path))
			apperrors.AbortWithForbidden(c, "cross-origin request rejected", nil)
			return
		}
		c.Next()
	}
}

// requireJSONBody makes state-changing calls carry a JSON content type. A
// browser cannot send that cross-origin without a preflight.
func requireJSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.ContentType() != gin.MIMEJSON {
			apperrors.AbortWithUnsupportedMediaType(c, "content type must be application/json",
				map[string]interface{}{"content_type": c.ContentType()})
			return
		}
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Websocket and metrics scrapes are noise at info level.
		level := slog.LevelInfo
		if c.FullPath() == "/ws" || c.FullPath() == "/metrics" || c.FullPath() == "/api/state" {
			level = slog.LevelDebug
		}
		log.WithComponent("http").Log(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

// Server is the loopback HTTP listener for the panel page.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   *logger.Logger
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler, logger *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Listen binds the address so URL is known before Serve.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.listener = ln
	return nil
}

// URL is the page address. Valid after Listen.
func (s *Server) URL() string {
	if s.listener == nil {
		return "http://" + s.srv.Addr + "/"
	}
	return "http://" + s.listener.Addr().String() + "/"
}

// Serve blocks until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.WithComponent("http").Info("panel page available",
		slog.String("url", s.URL()))

	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
