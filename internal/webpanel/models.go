package webpanel

import "github.com/eternisai/push-panel/internal/panel"

// Message types pushed over the websocket.
const (
	WSMessageTypeSnapshot = "snapshot"
	WSMessageTypeDialog   = "dialog"
)

// Dialog kinds.
const (
	DialogWarning = "warning"
	DialogError   = "error"
)

// Snapshot is everything the page needs to draw the panel.
type Snapshot struct {
	Visible   bool       `json:"visible"`
	Geometry  panel.Rect `json:"geometry"`
	Screen    panel.Size `json:"screen"`
	Token     string     `json:"token"`
	Remember  bool       `json:"remember"`
	SendState string     `json:"send_state"`
	SendColor string     `json:"send_color,omitempty"`
	Version   uint64     `json:"version"`
}

// Dialog is a modal message for the operator.
type Dialog struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// WebSocketMessage is the envelope for everything sent to the page.
type WebSocketMessage struct {
	Type     string    `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Dialog   *Dialog   `json:"dialog,omitempty"`
}

// SendRequest is the body of POST /api/send.
type SendRequest struct {
	Token    string `json:"token"`
	Body     string `json:"body"`
	Remember bool   `json:"remember"`
}

// StateResponse is returned by GET /api/state and POST /api/toggle.
type StateResponse struct {
	State    string   `json:"state"`
	Snapshot Snapshot `json:"snapshot"`
}
