package notifications

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eternisai/push-panel/internal/logger"
)

// LoggingTransport wraps http.RoundTripper to log requests and responses for
// a single host. Other traffic passes through untouched.
type LoggingTransport struct {
	Transport http.RoundTripper
	Host      string
	Logger    *logger.Logger
}

// NewLoggingTransport creates a logging transport for host on top of
// http.DefaultTransport.
func NewLoggingTransport(host string, log *logger.Logger) *LoggingTransport {
	return &LoggingTransport{
		Transport: http.DefaultTransport,
		Host:      host,
		Logger:    log,
	}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.Host {
		return t.Transport.RoundTrip(req)
	}

	log := t.Logger.WithContext(req.Context()).WithComponent("fcm-transport")

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	}
	for name, values := range req.Header {
		for _, value := range values {
			attrs = append(attrs, slog.String("header."+strings.ToLower(name), redactHeader(name, value)))
		}
	}
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			bodyBytes, _ := io.ReadAll(body)
			body.Close()
			attrs = append(attrs, slog.String("body", string(bodyBytes)))
		}
	}
	log.Debug("fcm request", attrs...)

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		log.Debug("fcm response",
			slog.String("error", err.Error()))
		return resp, err
	}

	if resp.Body != nil {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		// Restore body for caller
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		log.Debug("fcm response",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(bodyBytes)))
	}

	return resp, nil
}

// redactHeader keeps only the ends of bearer credentials.
func redactHeader(name, value string) string {
	if !strings.EqualFold(name, "Authorization") {
		return value
	}
	if len(value) > 50 {
		return value[:30] + "..." + value[len(value)-8:]
	}
	return "Bearer [redacted]"
}
