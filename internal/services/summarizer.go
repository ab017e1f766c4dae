package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/llm"
	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/store"
)

const summarySystemPrompt = "You are a meeting assistant for a software project. " +
	"Given the full transcript of the discussion so far, write a concise running summary " +
	"of what has been discussed and decided. Return only the summary text, no commentary."

// NotebookSummarizer recomputes the running summary once the backlog of
// unsummarized transcriptions reaches the configured interval.
type NotebookSummarizer interface {
	MaybeSummarize(ctx context.Context, meetingID uuid.UUID) (updated bool)
}

type notebookSummarizer struct {
	log      *logger.Logger
	store    *store.MeetingStore
	llm      llm.Client
	interval int
}

func NewNotebookSummarizer(log *logger.Logger, st *store.MeetingStore, client llm.Client, interval int) NotebookSummarizer {
	if interval <= 0 {
		interval = 5
	}
	return &notebookSummarizer{
		log:      log.With("service", "NotebookSummarizer"),
		store:    st,
		llm:      client,
		interval: interval,
	}
}

// MaybeSummarize is called from the ingestion cascade, never from the request
// path. A failed attempt leaves the backlog counter alone so the next
// ingestion retries over the same accumulated backlog; there is no immediate
// retry loop here.
func (s *notebookSummarizer) MaybeSummarize(ctx context.Context, meetingID uuid.UUID) bool {
	texts, pending, err := s.store.TranscriptCopy(meetingID)
	if err != nil {
		s.log.Warn("Transcript copy failed", "meetingID", meetingID, "error", err)
		return false
	}
	if pending < s.interval {
		return false
	}

	userPrompt := "Meeting transcript:\n" + strings.Join(texts, "\n")
	summary, err := s.llm.Complete(ctx, summarySystemPrompt, userPrompt)
	if err != nil {
		s.log.Warn("Summarization failed; keeping stale summary", "meetingID", meetingID, "pending", pending, "error", err)
		return false
	}

	// Consume only the entries the summary actually saw; anything ingested
	// while the model ran stays pending.
	if err := s.store.SetSummary(meetingID, summary, pending); err != nil {
		s.log.Warn("Storing summary failed", "meetingID", meetingID, "error", err)
		return false
	}
	s.log.Info("Notebook summary updated", "meetingID", meetingID, "consumed", pending)
	return true
}
