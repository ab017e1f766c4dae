package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/clients/codegen"
	"github.com/yungbote/timeless-backend/internal/clients/requirements"
	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/platform/apierr"
	"github.com/yungbote/timeless-backend/internal/store"
	"github.com/yungbote/timeless-backend/internal/types"
)

// MeetingService owns the ingestion cascade: append, forward, summarize,
// classify, trigger code generation, broadcast. Only InvalidInput and
// NotFound ever reach the caller; every collaborator failure degrades in the
// background.
type MeetingService interface {
	CreateMeeting(ctx context.Context) (uuid.UUID, error)
	Ingest(ctx context.Context, meetingID uuid.UUID, text string) error
	Snapshot(meetingID uuid.UUID) (types.Snapshot, error)
	Transcript(meetingID uuid.UUID) ([]string, error)
	DefaultMeeting() (uuid.UUID, bool)
	Exists(meetingID uuid.UUID) bool
}

type MeetingServiceConfig struct {
	RegistrationRetryInterval time.Duration
	CodegenTimeout            time.Duration
}

type meetingService struct {
	log        *logger.Logger
	store      *store.MeetingStore
	summarizer NotebookSummarizer
	classifier PhaseClassifier
	reqClient  requirements.Client
	cgClient   codegen.Client
	notifier   MeetingNotifier
	cfg        MeetingServiceConfig
}

func NewMeetingService(
	log *logger.Logger,
	st *store.MeetingStore,
	summarizer NotebookSummarizer,
	classifier PhaseClassifier,
	reqClient requirements.Client,
	cgClient codegen.Client,
	notifier MeetingNotifier,
	cfg MeetingServiceConfig,
) MeetingService {
	if cfg.RegistrationRetryInterval <= 0 {
		cfg.RegistrationRetryInterval = 5 * time.Second
	}
	if cfg.CodegenTimeout <= 0 {
		cfg.CodegenTimeout = 5 * time.Minute
	}
	return &meetingService{
		log:        log.With("service", "MeetingService"),
		store:      st,
		summarizer: summarizer,
		classifier: classifier,
		reqClient:  reqClient,
		cgClient:   cgClient,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// CreateMeeting mirrors session creation with the requirements collaborator
// so the same id resolves on both sides. When the collaborator is down the
// meeting still starts, under a locally generated id, and a fixed-interval
// loop keeps retrying registration until it lands. That loop is the only
// automatic retry in the system.
func (s *meetingService) CreateMeeting(ctx context.Context) (uuid.UUID, error) {
	id, err := s.reqClient.CreateMeeting(ctx)
	registered := err == nil
	if err != nil {
		id = uuid.New()
		s.log.Warn("Requirements collaborator unreachable at meeting creation; registering in background",
			"meetingID", id, "error", err)
	}
	if err := s.store.Create(id, registered); err != nil {
		return uuid.Nil, err
	}
	if !registered {
		go s.registerLoop(id)
	}
	return id, nil
}

func (s *meetingService) registerLoop(meetingID uuid.UUID) {
	ticker := time.NewTicker(s.cfg.RegistrationRetryInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RegistrationRetryInterval)
		err := s.reqClient.RegisterMeeting(ctx, meetingID)
		cancel()
		if err != nil {
			s.log.Warn("Meeting registration retry failed", "meetingID", meetingID, "error", err)
			continue
		}
		if err := s.store.MarkRegistered(meetingID); err != nil {
			s.log.Warn("Marking meeting registered failed", "meetingID", meetingID, "error", err)
			return
		}
		s.log.Info("Meeting registered with requirements collaborator", "meetingID", meetingID)
		return
	}
}

// Ingest validates and appends synchronously, then hands the rest of the
// cascade to a goroutine. The ack never waits on an outbound call.
func (s *meetingService) Ingest(ctx context.Context, meetingID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apierr.New(http.StatusBadRequest, "invalid_input", errors.New("no transcription provided"))
	}
	if !s.store.Exists(meetingID) {
		return apierr.New(http.StatusNotFound, "not_found", errors.New("meeting id not found"))
	}

	entry, err := s.store.Append(meetingID, text)
	if err != nil {
		return apierr.New(http.StatusNotFound, "not_found", err)
	}
	s.log.Debug("Transcription ingested", "meetingID", meetingID, "seq", entry.Seq)

	go s.runCascade(meetingID, text)
	return nil
}

// runCascade executes the follow-up work for one ingestion. Order matters:
// forwarding feeds the collaborator before requirements are refreshed, and
// the phase is evaluated after a summary update if one occurred.
func (s *meetingService) runCascade(meetingID uuid.UUID, text string) {
	ctx := context.Background()

	s.forwardTranscription(ctx, meetingID, text)
	s.summarizer.MaybeSummarize(ctx, meetingID)
	s.refreshRequirements(ctx, meetingID)
	s.classifier.Evaluate(ctx, meetingID)
	s.maybeStartCodeGen(meetingID)
	s.pushState(meetingID)
}

func (s *meetingService) forwardTranscription(ctx context.Context, meetingID uuid.UUID, text string) {
	registered, err := s.store.IsRegistered(meetingID)
	if err != nil || !registered {
		s.log.Debug("Skipping transcription forward; meeting not registered yet", "meetingID", meetingID)
		return
	}
	if err := s.reqClient.ForwardTranscription(ctx, meetingID, text); err != nil {
		// Best effort: never retried, never blocks ingestion.
		s.log.Warn("Transcription forward failed; skipping", "meetingID", meetingID, "error", err)
	}
}

func (s *meetingService) refreshRequirements(ctx context.Context, meetingID uuid.UUID) {
	registered, err := s.store.IsRegistered(meetingID)
	if err != nil || !registered {
		return
	}
	text, err := s.reqClient.FetchRequirements(ctx, meetingID)
	if err != nil {
		s.log.Warn("Requirements refresh failed; keeping cached value", "meetingID", meetingID, "error", err)
		return
	}
	if err := s.store.SetRequirements(meetingID, text); err != nil {
		s.log.Warn("Requirements cache update failed", "meetingID", meetingID, "error", err)
	}
}

// maybeStartCodeGen re-evaluates readiness on every cascade. The store's CAS
// guarantees at most one invocation in flight; a rejected attempt is a no-op
// and the next cascade re-evaluates.
func (s *meetingService) maybeStartCodeGen(meetingID uuid.UUID) {
	reqText, started, err := s.store.BeginCodeGen(meetingID)
	if err != nil || !started {
		return
	}
	s.log.Info("Code generation started", "meetingID", meetingID)
	s.pushState(meetingID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CodegenTimeout)
		defer cancel()

		url, genErr := s.cgClient.Generate(ctx, reqText)
		if genErr != nil {
			s.log.Warn("Code generation failed; deployment url unchanged", "meetingID", meetingID, "error", genErr)
		} else {
			s.log.Info("Code generation succeeded", "meetingID", meetingID, "deploymentURL", url)
		}
		if err := s.store.FinishCodeGen(meetingID, url, genErr == nil); err != nil {
			s.log.Warn("Finishing code generation failed", "meetingID", meetingID, "error", err)
			return
		}
		s.pushState(meetingID)
	}()
}

func (s *meetingService) pushState(meetingID uuid.UUID) {
	snap, err := s.store.Snapshot(meetingID)
	if err != nil {
		s.log.Warn("Snapshot for push failed", "meetingID", meetingID, "error", err)
		return
	}
	s.notifier.MeetingState(meetingID, snap)
}

func (s *meetingService) Snapshot(meetingID uuid.UUID) (types.Snapshot, error) {
	return s.store.Snapshot(meetingID)
}

func (s *meetingService) Transcript(meetingID uuid.UUID) ([]string, error) {
	texts, _, err := s.store.TranscriptCopy(meetingID)
	return texts, err
}

func (s *meetingService) DefaultMeeting() (uuid.UUID, bool) {
	return s.store.Latest()
}

func (s *meetingService) Exists(meetingID uuid.UUID) bool {
	return s.store.Exists(meetingID)
}
