package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/realtime"
	"github.com/yungbote/timeless-backend/internal/services"
)

type SSEHandler struct {
	log            *logger.Logger
	hub            *realtime.SSEHub
	meetingService services.MeetingService
}

func NewSSEHandler(log *logger.Logger, hub *realtime.SSEHub, msvc services.MeetingService) *SSEHandler {
	return &SSEHandler{
		log:            log.With("handler", "SSEHandler"),
		hub:            hub,
		meetingService: msvc,
	}
}

// GET /sse?meeting_id=
// Streams meeting snapshots. Without an explicit meeting_id the stream
// follows the most recently created meeting, which is how the dashboard's
// single global stream behaves.
func (h *SSEHandler) Stream(c *gin.Context) {
	var meetingID uuid.UUID
	if raw := c.Query("meeting_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil || !h.meetingService.Exists(id) {
			RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
			return
		}
		meetingID = id
	} else {
		id, ok := h.meetingService.DefaultMeeting()
		if !ok {
			RespondError(c, http.StatusNotFound, "not_found", errors.New("no active meeting"))
			return
		}
		meetingID = id
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, meetingID.String())
	defer h.hub.CloseClient(client)

	// Full snapshot before the event loop so a new subscriber never shows a
	// stale view for a whole tick.
	if snap, err := h.meetingService.Snapshot(meetingID); err == nil {
		h.hub.Send(client, realtime.SSEMessage{
			Channel: meetingID.String(),
			Event:   realtime.SSEEventMeetingState,
			Data:    snap,
		})
	}

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
