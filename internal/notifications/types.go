package notifications

import (
	"context"
	"encoding/json"
	"time"

	"firebase.google.com/go/v4/messaging"
	"golang.org/x/oauth2"
)

const (
	// NotificationTitle is shown on the device; the body carries the text to copy.
	NotificationTitle = "Press button to copy"
	// MessageTTL bounds how long FCM holds the message for an offline device.
	MessageTTL = 4500 * time.Second
)

// NotificationRequest is one operator send: a device token and a body, both
// non-empty after trimming.
type NotificationRequest struct {
	DeviceToken string
	Body        string
}

// DeliveryResult is the outcome of a single send. Payload is the parsed JSON
// response on success and the raw response text, or the error text when no
// response was received, on failure. Err is nil iff Success.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Payload    any
	Err        error
}

// PayloadText renders Payload for dialogs and logs.
func (r DeliveryResult) PayloadText() string {
	switch p := r.Payload.(type) {
	case nil:
		return ""
	case string:
		return p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Sender performs the wire call for an already-validated message.
type Sender interface {
	Send(ctx context.Context, msg *messaging.Message) DeliveryResult
	Name() string
}

// TokenSource supplies bearer tokens for the messaging API.
type TokenSource interface {
	AccessToken(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// MessagingClient is the part of the firebase Admin SDK messaging client the
// SDK sender uses.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}
