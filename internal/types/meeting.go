package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase is a stage in the lifecycle of the discussed project. Phases are
// ordered; the classifier output decides transitions.
type Phase string

const (
	PhaseConceptualization     Phase = "Conceptualization"
	PhaseRequirementAnalysis   Phase = "Requirement Analysis"
	PhaseDesign                Phase = "Design"
	PhaseImplementation        Phase = "Implementation"
	PhaseTesting               Phase = "Testing"
	PhaseDeploymentMaintenance Phase = "Deployment and Maintenance"
)

var OrderedPhases = []Phase{
	PhaseConceptualization,
	PhaseRequirementAnalysis,
	PhaseDesign,
	PhaseImplementation,
	PhaseTesting,
	PhaseDeploymentMaintenance,
}

// ParsePhase normalizes free-form classifier output to one of the known
// phases. Matching is case-insensitive and tolerates surrounding punctuation.
func ParsePhase(s string) (Phase, bool) {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(s), `."'`))
	for _, p := range OrderedPhases {
		if cleaned == strings.ToLower(string(p)) {
			return p, true
		}
	}
	// Some models answer with the phase embedded in a sentence.
	for _, p := range OrderedPhases {
		if strings.Contains(cleaned, strings.ToLower(string(p))) {
			return p, true
		}
	}
	return "", false
}

func (p Phase) Index() int {
	for i, q := range OrderedPhases {
		if p == q {
			return i
		}
	}
	return -1
}

// RequiresCodeGeneration reports whether a meeting that reached p should have
// generated output available.
func (p Phase) RequiresCodeGeneration() bool {
	i := p.Index()
	return i >= PhaseImplementation.Index() && i >= 0
}

// TranscriptionEntry is one ingested transcription. Immutable once appended.
type TranscriptionEntry struct {
	Seq        int64     `json:"seq"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Meeting is the per-session mutable record. All access goes through the
// store, which serializes mutation per meeting.
type Meeting struct {
	ID                    uuid.UUID
	Transcript            []TranscriptionEntry
	NotebookSummary       string
	PendingSinceSummary   int
	CurrentPhase          Phase
	RequirementsText      string
	CodeGenerationRunning bool
	DeploymentURL         string
	Registered            bool
	CreatedAt             time.Time
}

// Snapshot is a point-in-time copy of the broadcast-relevant fields of a
// meeting, shaped for the dashboard stream. Never holds live references.
type Snapshot struct {
	MeetingID             string   `json:"meeting_id"`
	Transcriptions        []string `json:"transcriptions"`
	NotebookSummary       string   `json:"notebook_summary"`
	CurrentState          string   `json:"current_state"`
	CodeGenerationRunning bool     `json:"code_generation_running"`
	Requirements          string   `json:"requirements"`
	DeploymentURL         *string  `json:"deployment_url"`
}
