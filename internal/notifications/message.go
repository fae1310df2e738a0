package notifications

import (
	"time"

	"firebase.google.com/go/v4/messaging"
)

// BuildMessage creates the fixed-shape FCM message for a device token and body.
// It is a data-only message: the receiving app reads title and body from the
// data map and renders the notification itself, so no notification block is
// set. The copy flag tells it to offer the body for the clipboard.
func BuildMessage(token, body string) *messaging.Message {
	ttl := MessageTTL

	return &messaging.Message{
		Token: token,
		Data: map[string]string{
			"title": NotificationTitle,
			"body":  body,
			"copy":  "true",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
		},
	}
}

// sendRequest is the body of POST /v1/projects/{id}/messages:send.
type sendRequest struct {
	Message *messaging.Message `json:"message"`
}

func ttlSeconds(msg *messaging.Message) int64 {
	if msg.Android == nil || msg.Android.TTL == nil {
		return 0
	}
	return int64(*msg.Android.TTL / time.Second)
}
