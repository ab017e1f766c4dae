package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/realtime"
	"github.com/yungbote/timeless-backend/internal/types"
)

// MeetingNotifier is the edge-triggered half of the broadcaster: every
// state-changing operation pushes the fresh snapshot through it immediately
// instead of waiting for the next tick.
type MeetingNotifier interface {
	MeetingState(meetingID uuid.UUID, snap types.Snapshot)
}

type meetingNotifier struct {
	emit SSEEmitter
}

func NewMeetingNotifier(emit SSEEmitter) MeetingNotifier {
	return &meetingNotifier{emit: emit}
}

func (n *meetingNotifier) MeetingState(meetingID uuid.UUID, snap types.Snapshot) {
	if n == nil || n.emit == nil || meetingID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: meetingID.String(),
		Event:   realtime.SSEEventMeetingState,
		Data:    snap,
	})
}
