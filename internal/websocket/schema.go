package websocket

// Event identifies a server → client message on the attempt stream.
type Event string

const (
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
)

// TickResponse is pushed once per second while an attempt is live, and once
// more with EventSubmitted when it reaches its terminal state.
type TickResponse struct {
	Event         Event `json:"event"`
	TimeRemaining int   `json:"time_remaining"`
	IsRunning     bool  `json:"is_running"`
	IsSubmitted   bool  `json:"is_submitted"`
}

// ErrorResponse reports a stream-level failure before the connection closes.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
