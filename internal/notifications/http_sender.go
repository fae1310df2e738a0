package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/messaging"
	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
)

// DefaultEndpoint is the FCM HTTP v1 API base.
const DefaultEndpoint = "https://fcm.googleapis.com"

// HTTPSender posts messages to the FCM HTTP v1 endpoint with a bearer token
// from a TokenSource.
type HTTPSender struct {
	endpoint  string
	projectID string
	tokens    TokenSource
	client    *http.Client
	logger    *logger.Logger
}

// NewHTTPSender creates a sender for projectID. An empty endpoint means
// DefaultEndpoint; a nil client means http.DefaultClient.
func NewHTTPSender(endpoint, projectID string, tokens TokenSource, client *http.Client, log *logger.Logger) *HTTPSender {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPSender{
		endpoint:  strings.TrimRight(endpoint, "/"),
		projectID: projectID,
		tokens:    tokens,
		client:    client,
		logger:    log,
	}
}

// Name implements Sender.
func (s *HTTPSender) Name() string { return "http" }

// URL is the messages:send URL for the configured project.
func (s *HTTPSender) URL() string {
	return fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
}

// Send implements Sender. A 200 response is success with the decoded JSON as
// payload; anything else is failure with the raw body as payload.
func (s *HTTPSender) Send(ctx context.Context, msg *messaging.Message) DeliveryResult {
	log := s.logger.WithContext(ctx).WithComponent("fcm-http")

	tok, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return DeliveryResult{Payload: err.Error(), Err: err}
	}

	body, err := json.Marshal(sendRequest{Message: msg})
	if err != nil {
		err = &apperrors.DeliveryError{Err: fmt.Errorf("encoding message: %w", err)}
		return DeliveryResult{Payload: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL(), bytes.NewReader(body))
	if err != nil {
		err = &apperrors.DeliveryError{Err: fmt.Errorf("creating request: %w", err)}
		return DeliveryResult{Payload: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		err = &apperrors.DeliveryError{Err: err}
		return DeliveryResult{Payload: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &apperrors.DeliveryError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
		return DeliveryResult{StatusCode: resp.StatusCode, Payload: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			// The cached token was rejected; the operator's retry gets a fresh one.
			s.tokens.Invalidate()
		}
		log.Debug("reproduce with",
			slog.String("curl", GenerateDebugCurl(s.URL(), msg)))

		return DeliveryResult{
			StatusCode: resp.StatusCode,
			Payload:    string(raw),
			Err:        &apperrors.DeliveryError{StatusCode: resp.StatusCode, Body: string(raw)},
		}
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Warn("success response is not JSON",
			slog.String("error", err.Error()))
		payload = string(raw)
	}

	return DeliveryResult{
		Success:    true,
		StatusCode: resp.StatusCode,
		Payload:    payload,
	}
}
