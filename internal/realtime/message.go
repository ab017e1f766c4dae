package realtime

type SSEEvent string

const (
	// SSEEventMeetingState carries a full meeting snapshot. Both the broadcast
	// tick and edge-triggered pushes use it, so the dashboard treats every
	// message the same way.
	SSEEventMeetingState SSEEvent = "MeetingState"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
