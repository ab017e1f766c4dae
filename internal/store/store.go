package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/types"
)

// MeetingStore is the only place meeting state changes. The registry map is
// guarded by mu; every record carries its own mutex so mutations for one
// meeting never interleave partially, and meetings do not contend with each
// other.
type MeetingStore struct {
	mu       sync.RWMutex
	log      *logger.Logger
	meetings map[uuid.UUID]*meetingRecord
	latest   uuid.UUID
}

type meetingRecord struct {
	mu      sync.Mutex
	meeting types.Meeting
}

func NewMeetingStore(log *logger.Logger) *MeetingStore {
	return &MeetingStore{
		log:      log.With("component", "MeetingStore"),
		meetings: make(map[uuid.UUID]*meetingRecord),
	}
}

// Create registers a new meeting record. Ids come from the requirements
// collaborator when it is reachable, otherwise they are generated locally and
// registered later; either way they are uuid4 and never reused.
func (s *MeetingStore) Create(id uuid.UUID, registered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.meetings[id]; exists {
		return fmt.Errorf("meeting %s already exists", id)
	}
	s.meetings[id] = &meetingRecord{
		meeting: types.Meeting{
			ID:           id,
			CurrentPhase: types.PhaseConceptualization,
			Registered:   registered,
			CreatedAt:    time.Now(),
		},
	}
	s.latest = id
	s.log.Info("Meeting created", "meetingID", id, "registered", registered)
	return nil
}

func (s *MeetingStore) get(id uuid.UUID) (*meetingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.meetings[id]
	return rec, ok
}

func (s *MeetingStore) Exists(id uuid.UUID) bool {
	_, ok := s.get(id)
	return ok
}

// Latest returns the most recently created meeting id. The dashboard's
// default stream follows this meeting when no explicit id is requested.
func (s *MeetingStore) Latest() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == uuid.Nil {
		return uuid.Nil, false
	}
	return s.latest, true
}

func (s *MeetingStore) List() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.meetings))
	for id := range s.meetings {
		ids = append(ids, id)
	}
	return ids
}

// Append adds a transcription entry with the next sequence number and bumps
// the pending-since-summary counter. Returns the appended entry.
func (s *MeetingStore) Append(id uuid.UUID, text string) (types.TranscriptionEntry, error) {
	rec, ok := s.get(id)
	if !ok {
		return types.TranscriptionEntry{}, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	entry := types.TranscriptionEntry{
		Seq:        int64(len(rec.meeting.Transcript)) + 1,
		Text:       text,
		ReceivedAt: time.Now(),
	}
	rec.meeting.Transcript = append(rec.meeting.Transcript, entry)
	rec.meeting.PendingSinceSummary++
	return entry, nil
}

// TranscriptCopy returns the transcript texts and the current pending counter
// as of the call. Used by the summarizer to decide and to build its input.
func (s *MeetingStore) TranscriptCopy(id uuid.UUID) ([]string, int, error) {
	rec, ok := s.get(id)
	if !ok {
		return nil, 0, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	texts := make([]string, len(rec.meeting.Transcript))
	for i, e := range rec.meeting.Transcript {
		texts[i] = e.Text
	}
	return texts, rec.meeting.PendingSinceSummary, nil
}

// SetSummary replaces the notebook summary and consumes the given number of
// pending transcriptions. Only successful summarizations call this; a failed
// attempt leaves the counter so the next ingestion retries the same backlog.
// Entries ingested while the summarization ran stay pending.
func (s *MeetingStore) SetSummary(id uuid.UUID, summary string, consumed int) error {
	rec, ok := s.get(id)
	if !ok {
		return fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.meeting.NotebookSummary = summary
	rec.meeting.PendingSinceSummary -= consumed
	if rec.meeting.PendingSinceSummary < 0 {
		rec.meeting.PendingSinceSummary = 0
	}
	return nil
}

// UpdatePhase adopts the classifier's phase verbatim and reports whether it
// differs from the previous one.
func (s *MeetingStore) UpdatePhase(id uuid.UUID, phase types.Phase) (changed bool, err error) {
	rec, ok := s.get(id)
	if !ok {
		return false, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.meeting.CurrentPhase == phase {
		return false, nil
	}
	rec.meeting.CurrentPhase = phase
	return true, nil
}

func (s *MeetingStore) SetRequirements(id uuid.UUID, text string) error {
	rec, ok := s.get(id)
	if !ok {
		return fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.meeting.RequirementsText = text
	return nil
}

func (s *MeetingStore) Requirements(id uuid.UUID) (string, error) {
	rec, ok := s.get(id)
	if !ok {
		return "", fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.meeting.RequirementsText, nil
}

func (s *MeetingStore) MarkRegistered(id uuid.UUID) error {
	rec, ok := s.get(id)
	if !ok {
		return fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.meeting.Registered = true
	return nil
}

func (s *MeetingStore) IsRegistered(id uuid.UUID) (bool, error) {
	rec, ok := s.get(id)
	if !ok {
		return false, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.meeting.Registered, nil
}

// BeginCodeGen flips the running flag if, and only if, the meeting is in a
// phase that requires generated output, requirement text is cached and no
// invocation is already in flight. At most one invocation per meeting runs at
// any time; a rejected attempt is a no-op, never queued.
func (s *MeetingStore) BeginCodeGen(id uuid.UUID) (requirements string, started bool, err error) {
	rec, ok := s.get(id)
	if !ok {
		return "", false, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	m := &rec.meeting
	if m.CodeGenerationRunning || m.RequirementsText == "" || !m.CurrentPhase.RequiresCodeGeneration() {
		return "", false, nil
	}
	m.CodeGenerationRunning = true
	return m.RequirementsText, true, nil
}

// FinishCodeGen clears the running flag. The deployment url is set only on
// success; a failed attempt keeps the previous value.
func (s *MeetingStore) FinishCodeGen(id uuid.UUID, deploymentURL string, ok bool) error {
	rec, found := s.get(id)
	if !found {
		return fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.meeting.CodeGenerationRunning = false
	if ok {
		rec.meeting.DeploymentURL = deploymentURL
	}
	return nil
}

// Snapshot copies the broadcast-relevant fields under the record lock so the
// result is internally consistent at the instant it was captured.
func (s *MeetingStore) Snapshot(id uuid.UUID) (types.Snapshot, error) {
	rec, ok := s.get(id)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("meeting %s not found", id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	m := &rec.meeting
	texts := make([]string, len(m.Transcript))
	for i, e := range m.Transcript {
		texts[i] = e.Text
	}
	snap := types.Snapshot{
		MeetingID:             m.ID.String(),
		Transcriptions:        texts,
		NotebookSummary:       m.NotebookSummary,
		CurrentState:          string(m.CurrentPhase),
		CodeGenerationRunning: m.CodeGenerationRunning,
		Requirements:          m.RequirementsText,
	}
	if m.DeploymentURL != "" {
		url := m.DeploymentURL
		snap.DeploymentURL = &url
	}
	return snap, nil
}
