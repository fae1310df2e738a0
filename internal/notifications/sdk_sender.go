package notifications

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	apperrors "github.com/eternisai/push-panel/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// SDKSender delivers through the firebase Admin SDK messaging client.
type SDKSender struct {
	client MessagingClient
}

// messagingScope is the narrowest scope the Admin SDK needs for sends.
const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// NewSDKSender initializes a firebase app from the service-account document
// and returns a sender backed by its messaging client. A non-nil base
// transport (the logging transport) is placed under the SDK's authenticated
// client.
func NewSDKSender(ctx context.Context, projectID string, credJSON []byte, base http.RoundTripper) (*SDKSender, error) {
	opts := []option.ClientOption{option.WithCredentialsJSON(credJSON)}
	if base != nil {
		creds, err := google.CredentialsFromJSON(ctx, credJSON, messagingScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		baseCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})
		opts = []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(baseCtx, creds.TokenSource))}
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Messaging client: %w", err)
	}

	return NewSDKSenderWithClient(client), nil
}

// NewSDKSenderWithClient wraps an existing messaging client.
func NewSDKSenderWithClient(client MessagingClient) *SDKSender {
	return &SDKSender{client: client}
}

// Name implements Sender.
func (s *SDKSender) Name() string { return "sdk" }

// Send implements Sender. The SDK only reports the message name on success.
func (s *SDKSender) Send(ctx context.Context, msg *messaging.Message) DeliveryResult {
	name, err := s.client.Send(ctx, msg)
	if err != nil {
		err = &apperrors.DeliveryError{Err: err}
		return DeliveryResult{Payload: err.Error(), Err: err}
	}

	return DeliveryResult{
		Success:    true,
		StatusCode: http.StatusOK,
		Payload:    map[string]any{"name": name},
	}
}
