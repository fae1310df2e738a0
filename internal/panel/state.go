package panel

// WindowState is the presentation state of the panel.
type WindowState int

const (
	Hidden WindowState = iota
	AnimatingIn
	Visible
	AnimatingOut
)

func (s WindowState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case AnimatingIn:
		return "animating_in"
	case Visible:
		return "visible"
	case AnimatingOut:
		return "animating_out"
	default:
		return "unknown"
	}
}

// SendState is what the send affordance shows.
type SendState int

const (
	SendIdle SendState = iota
	SendPending
	SendSucceeded
	SendFailed
)

func (s SendState) String() string {
	switch s {
	case SendIdle:
		return "neutral"
	case SendPending:
		return "sending"
	case SendSucceeded:
		return "success"
	case SendFailed:
		return "failure"
	default:
		return "unknown"
	}
}

// Color is the affordance background for the state, empty for the default
// look.
func (s SendState) Color() string {
	switch s {
	case SendSucceeded:
		return "#28A745"
	case SendFailed:
		return "#DC3545"
	default:
		return ""
	}
}
