package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/services"
)

type MeetingHandler struct {
	log            *logger.Logger
	meetingService services.MeetingService
}

func NewMeetingHandler(log *logger.Logger, msvc services.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		log:            log.With("handler", "MeetingHandler"),
		meetingService: msvc,
	}
}

type transcriptionRequest struct {
	Transcription string `json:"transcription"`
}

// POST /meeting
// Creates a meeting, mirrored with the requirements collaborator.
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	id, err := h.meetingService.CreateMeeting(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meeting_id": id.String()})
}

// POST /meeting/:meetingId/transcription
// Acknowledges synchronously; the cascade runs in the background.
func (h *MeetingHandler) ReceiveTranscription(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
		return
	}

	var req transcriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", errors.New("no transcription provided"))
		return
	}

	if err := h.meetingService.Ingest(c.Request.Context(), meetingID, req.Transcription); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "OK", "message": "Transcription stored."})
}

// GET /meeting/:meetingId/transcription
// Full transcript so far.
func (h *MeetingHandler) GetTranscription(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
		return
	}
	texts, err := h.meetingService.Transcript(meetingID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
		return
	}
	RespondOK(c, gin.H{"transcriptions": texts})
}

// GET /meeting/:meetingId
// Point-in-time snapshot, the dashboard's initial fetch.
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
		return
	}
	snap, err := h.meetingService.Snapshot(meetingID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("meeting id not found"))
		return
	}
	RespondOK(c, snap)
}
