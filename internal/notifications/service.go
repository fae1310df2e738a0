package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
)

// Dispatcher validates operator input, builds the message and hands it to a
// Sender. It never retries.
type Dispatcher struct {
	sender  Sender
	metrics *Metrics
	logger  *logger.Logger
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(sender Sender, metrics *Metrics, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		metrics: metrics,
		logger:  logger,
	}
}

// Send delivers body to the device identified by token. Token and body are
// trimmed; if either is then empty an *errors.InputValidationError is returned
// and nothing is sent. The returned error is non-nil iff the result is a
// failure, and is always result.Err.
func (d *Dispatcher) Send(ctx context.Context, token, body string) (DeliveryResult, error) {
	req := NotificationRequest{
		DeviceToken: strings.TrimSpace(token),
		Body:        strings.TrimSpace(body),
	}

	ctx = logger.WithRequestID(ctx, logger.GenerateRequestID())
	ctx = logger.WithOperation(ctx, "send_notification")
	log := d.logger.WithContext(ctx).WithComponent("push-notifications")

	if err := Validate(req); err != nil {
		d.observe("invalid_input", 0)
		log.Warn("refusing to send notification",
			slog.String("error", err.Error()))
		return DeliveryResult{Payload: err.Error(), Err: err}, err
	}

	msg := BuildMessage(req.DeviceToken, req.Body)

	log.Info("sending push notification",
		slog.String("sender", d.sender.Name()),
		slog.String("token_prefix", tokenPrefix(req.DeviceToken)),
		slog.Int("body_length", len(req.Body)),
		slog.Int64("ttl_seconds", ttlSeconds(msg)))

	if d.metrics != nil {
		d.metrics.InFlight.Inc()
		defer d.metrics.InFlight.Dec()
	}

	start := time.Now()
	result := d.sender.Send(ctx, msg)
	duration := time.Since(start)

	if result.Success {
		d.observe("success", duration)
		log.Info("notification sent",
			slog.Int("status", result.StatusCode),
			slog.String("response", result.PayloadText()),
			slog.Duration("duration", duration))
		return result, nil
	}

	outcome := "rejected"
	var authErr *apperrors.AuthError
	if errors.As(result.Err, &authErr) {
		outcome = "auth_error"
	}
	d.observe(outcome, duration)

	log.Error("notification failed",
		slog.Int("status", result.StatusCode),
		slog.String("response", result.PayloadText()),
		slog.String("error", errString(result.Err)),
		slog.Duration("duration", duration))

	if result.Err == nil {
		result.Err = &apperrors.DeliveryError{StatusCode: result.StatusCode, Body: result.PayloadText()}
	}
	return result, result.Err
}

// Validate reports an *errors.InputValidationError naming each empty field.
func Validate(req NotificationRequest) error {
	var empty []string
	if strings.TrimSpace(req.DeviceToken) == "" {
		empty = append(empty, "token")
	}
	if strings.TrimSpace(req.Body) == "" {
		empty = append(empty, "body")
	}
	if len(empty) > 0 {
		return apperrors.NewInputValidationError(empty...)
	}
	return nil
}

func (d *Dispatcher) observe(outcome string, duration time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.Deliveries.WithLabelValues(d.sender.Name(), outcome).Inc()
	if duration > 0 {
		d.metrics.DeliveryDuration.WithLabelValues(d.sender.Name()).Observe(duration.Seconds())
	}
}

func tokenPrefix(token string) string {
	return token[:min(10, len(token))] + "..."
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
