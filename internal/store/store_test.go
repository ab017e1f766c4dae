package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/types"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func newStoreWithMeeting(t *testing.T) (*MeetingStore, uuid.UUID) {
	t.Helper()
	st := NewMeetingStore(mustTestLogger(t))
	id := uuid.New()
	if err := st.Create(id, true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return st, id
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	st, id := newStoreWithMeeting(t)
	if err := st.Create(id, true); err == nil {
		t.Fatalf("Create: expected error for duplicate id")
	}
}

func TestAppendAssignsIncreasingSequenceNumbers(t *testing.T) {
	st, id := newStoreWithMeeting(t)

	for i := 1; i <= 3; i++ {
		entry, err := st.Append(id, "line")
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if entry.Seq != int64(i) {
			t.Fatalf("seq: want=%d got=%d", i, entry.Seq)
		}
	}

	texts, pending, err := st.TranscriptCopy(id)
	if err != nil {
		t.Fatalf("TranscriptCopy: %v", err)
	}
	if len(texts) != 3 {
		t.Fatalf("transcript length: want=3 got=%d", len(texts))
	}
	if pending != 3 {
		t.Fatalf("pending counter: want=3 got=%d", pending)
	}
}

func TestAppendUnknownMeeting(t *testing.T) {
	st := NewMeetingStore(mustTestLogger(t))
	if _, err := st.Append(uuid.New(), "line"); err == nil {
		t.Fatalf("Append: expected error for unknown meeting")
	}
}

func TestSetSummaryConsumesOnlySeenEntries(t *testing.T) {
	st, id := newStoreWithMeeting(t)

	for i := 0; i < 5; i++ {
		if _, err := st.Append(id, "line"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	// Two more arrive while the summarizer is running over the first five.
	if _, err := st.Append(id, "late"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := st.Append(id, "late"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := st.SetSummary(id, "summary", 5); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	_, pending, err := st.TranscriptCopy(id)
	if err != nil {
		t.Fatalf("TranscriptCopy: %v", err)
	}
	if pending != 2 {
		t.Fatalf("pending after summary: want=2 got=%d", pending)
	}

	snap, err := st.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.NotebookSummary != "summary" {
		t.Fatalf("summary: want=%q got=%q", "summary", snap.NotebookSummary)
	}
}

func TestSetSummaryCounterNeverGoesNegative(t *testing.T) {
	st, id := newStoreWithMeeting(t)
	if _, err := st.Append(id, "line"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.SetSummary(id, "summary", 10); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	_, pending, err := st.TranscriptCopy(id)
	if err != nil {
		t.Fatalf("TranscriptCopy: %v", err)
	}
	if pending != 0 {
		t.Fatalf("pending: want=0 got=%d", pending)
	}
}

func TestUpdatePhaseReportsChange(t *testing.T) {
	st, id := newStoreWithMeeting(t)

	changed, err := st.UpdatePhase(id, types.PhaseConceptualization)
	if err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	if changed {
		t.Fatalf("UpdatePhase: same phase reported as change")
	}

	changed, err = st.UpdatePhase(id, types.PhaseDesign)
	if err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	if !changed {
		t.Fatalf("UpdatePhase: new phase not reported as change")
	}

	snap, err := st.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.CurrentState != string(types.PhaseDesign) {
		t.Fatalf("phase: want=%q got=%q", types.PhaseDesign, snap.CurrentState)
	}
}

func TestBeginCodeGenRequiresReadiness(t *testing.T) {
	st, id := newStoreWithMeeting(t)

	// No requirements, wrong phase.
	if _, started, _ := st.BeginCodeGen(id); started {
		t.Fatalf("BeginCodeGen: started without readiness")
	}

	if err := st.SetRequirements(id, "- must do things"); err != nil {
		t.Fatalf("SetRequirements: %v", err)
	}
	// Requirements present but phase still early.
	if _, started, _ := st.BeginCodeGen(id); started {
		t.Fatalf("BeginCodeGen: started before a code-requiring phase")
	}

	if _, err := st.UpdatePhase(id, types.PhaseImplementation); err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	reqText, started, err := st.BeginCodeGen(id)
	if err != nil {
		t.Fatalf("BeginCodeGen: %v", err)
	}
	if !started {
		t.Fatalf("BeginCodeGen: expected start")
	}
	if reqText != "- must do things" {
		t.Fatalf("requirements text: want=%q got=%q", "- must do things", reqText)
	}

	// Overlapping attempt is a no-op.
	if _, started, _ := st.BeginCodeGen(id); started {
		t.Fatalf("BeginCodeGen: second start while running")
	}
}

func TestFinishCodeGenStickyDeploymentURL(t *testing.T) {
	st, id := newStoreWithMeeting(t)
	if err := st.SetRequirements(id, "- reqs"); err != nil {
		t.Fatalf("SetRequirements: %v", err)
	}
	if _, err := st.UpdatePhase(id, types.PhaseImplementation); err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}

	// First attempt fails: url stays absent.
	if _, started, _ := st.BeginCodeGen(id); !started {
		t.Fatalf("BeginCodeGen: expected start")
	}
	if err := st.FinishCodeGen(id, "", false); err != nil {
		t.Fatalf("FinishCodeGen: %v", err)
	}
	snap, _ := st.Snapshot(id)
	if snap.DeploymentURL != nil {
		t.Fatalf("deployment url after failure: want=nil got=%q", *snap.DeploymentURL)
	}
	if snap.CodeGenerationRunning {
		t.Fatalf("running flag not cleared after failure")
	}

	// Second attempt succeeds.
	if _, started, _ := st.BeginCodeGen(id); !started {
		t.Fatalf("BeginCodeGen: expected restart after failure")
	}
	if err := st.FinishCodeGen(id, "https://apps.example.com/m1", true); err != nil {
		t.Fatalf("FinishCodeGen: %v", err)
	}
	snap, _ = st.Snapshot(id)
	if snap.DeploymentURL == nil || *snap.DeploymentURL != "https://apps.example.com/m1" {
		t.Fatalf("deployment url after success: got=%v", snap.DeploymentURL)
	}

	// A later failure keeps the last successful url.
	if _, started, _ := st.BeginCodeGen(id); !started {
		t.Fatalf("BeginCodeGen: expected start")
	}
	if err := st.FinishCodeGen(id, "", false); err != nil {
		t.Fatalf("FinishCodeGen: %v", err)
	}
	snap, _ = st.Snapshot(id)
	if snap.DeploymentURL == nil || *snap.DeploymentURL != "https://apps.example.com/m1" {
		t.Fatalf("deployment url sticky on failure: got=%v", snap.DeploymentURL)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	st, id := newStoreWithMeeting(t)
	if _, err := st.Append(id, "first"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snap, err := st.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := st.Append(id, "second"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(snap.Transcriptions) != 1 {
		t.Fatalf("snapshot mutated by later append: want=1 got=%d", len(snap.Transcriptions))
	}
}

func TestLatestTracksMostRecentMeeting(t *testing.T) {
	st := NewMeetingStore(mustTestLogger(t))
	if _, ok := st.Latest(); ok {
		t.Fatalf("Latest: expected none on empty store")
	}

	first := uuid.New()
	second := uuid.New()
	if err := st.Create(first, true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Create(second, true); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, ok := st.Latest()
	if !ok {
		t.Fatalf("Latest: expected a meeting")
	}
	if latest != second {
		t.Fatalf("latest: want=%s got=%s", second, latest)
	}
}
