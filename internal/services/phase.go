package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/llm"
	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/store"
	"github.com/yungbote/timeless-backend/internal/types"
)

// PhaseClassifier consults the LLM after each ingestion cascade and adopts
// whatever phase it returns. Transitions are free-form: the classifier may
// move the discussion backward or skip ahead.
type PhaseClassifier interface {
	Evaluate(ctx context.Context, meetingID uuid.UUID) (changed bool)
}

type phaseClassifier struct {
	log   *logger.Logger
	store *store.MeetingStore
	llm   llm.Client
}

func NewPhaseClassifier(log *logger.Logger, st *store.MeetingStore, client llm.Client) PhaseClassifier {
	return &phaseClassifier{
		log:   log.With("service", "PhaseClassifier"),
		store: st,
		llm:   client,
	}
}

func phaseNames() string {
	names := make([]string, len(types.OrderedPhases))
	for i, p := range types.OrderedPhases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func (p *phaseClassifier) Evaluate(ctx context.Context, meetingID uuid.UUID) bool {
	snap, err := p.store.Snapshot(meetingID)
	if err != nil {
		p.log.Warn("Snapshot for phase evaluation failed", "meetingID", meetingID, "error", err)
		return false
	}

	system := "You are tracking the lifecycle of a software project discussed in a live meeting. " +
		"The possible phases, in order, are: " + phaseNames() + ". " +
		"Answer with the single phase name that best describes where the discussion currently is. " +
		"Return only the phase name."
	user := fmt.Sprintf(
		"Current phase: %s\n\nNotebook summary:\n%s\n\nCurrent requirements:\n%s",
		snap.CurrentState, snap.NotebookSummary, snap.Requirements,
	)

	reply, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		p.log.Warn("Phase classification failed; phase unchanged", "meetingID", meetingID, "error", err)
		return false
	}
	phase, ok := types.ParsePhase(reply)
	if !ok {
		p.log.Warn("Unrecognized phase from classifier", "meetingID", meetingID, "reply", reply)
		return false
	}

	changed, err := p.store.UpdatePhase(meetingID, phase)
	if err != nil {
		p.log.Warn("Phase update failed", "meetingID", meetingID, "error", err)
		return false
	}
	if changed {
		p.log.Info("Discussion phase changed", "meetingID", meetingID, "phase", phase)
	}
	return changed
}
