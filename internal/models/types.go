package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus tracks a request/session through the refinement workflow.
// Request and Session always carry the same status; the orchestrator updates
// both on every transition.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusGenerating GenerationStatus = "generating"
	StatusReviewing  GenerationStatus = "reviewing"
	StatusRefining   GenerationStatus = "refining"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s GenerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusReviewing, StatusRefining, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CriticID identifies one of the two critic agents.
type CriticID string

const (
	Critic1 CriticID = "critic1"
	Critic2 CriticID = "critic2"
)

// Request is the immutable user intent. Only Status and UpdatedAt are
// mutated after creation, and only by the orchestrator.
type Request struct {
	ID           string           `json:"id"`
	UserPrompt   string           `json:"user_prompt"`
	Language     string           `json:"language"`
	Requirements string           `json:"requirements,omitempty"`
	Status       GenerationStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewRequest creates a pending request for a user submission.
func NewRequest(prompt, language, requirements string) *Request {
	now := time.Now().UTC()
	return &Request{
		ID:           uuid.New().String(),
		UserPrompt:   prompt,
		Language:     language,
		Requirements: requirements,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Session is the live orchestration record for one request. It is mutated
// exactly once per workflow step and becomes immutable once terminal.
type Session struct {
	ID                   string           `json:"id"`
	RequestID            string           `json:"request_id"`
	CurrentArtifactID    string           `json:"current_artifact_id,omitempty"`
	Critic1ReviewID      string           `json:"critic1_review_id,omitempty"`
	Critic2ReviewID      string           `json:"critic2_review_id,omitempty"`
	RankingID            string           `json:"ranking_id,omitempty"`
	RefinementIterations int              `json:"refinement_iterations"`
	MaxIterations        int              `json:"max_iterations"`
	Status               GenerationStatus `json:"status"`
	ConsensusScore       float64          `json:"consensus_score,omitempty"`
	ConsensusDecision    string           `json:"consensus_decision,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewSession creates a session bound to a request. maxIterations bounds the
// number of generate-review-rank cycles; values below 1 are raised to 1.
func NewSession(requestID string, maxIterations int) *Session {
	if maxIterations < 1 {
		maxIterations = 1
	}
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		MaxIterations: maxIterations,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Artifact is one version of generated code. Artifacts are never mutated;
// refinement always creates a new one with the next version number.
type Artifact struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	SessionID   string    `json:"session_id"`
	Code        string    `json:"code"`
	Explanation string    `json:"explanation,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewArtifact creates an artifact at the given version (1 for the initial
// generation, previous+1 for each refinement).
func NewArtifact(requestID, sessionID, code, explanation string, version int) *Artifact {
	return &Artifact{
		ID:          uuid.New().String(),
		RequestID:   requestID,
		SessionID:   sessionID,
		Code:        code,
		Explanation: explanation,
		Version:     version,
		CreatedAt:   time.Now().UTC(),
	}
}

// Review is one critic's evaluation of one artifact. Immutable after creation.
type Review struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ArtifactID      string    `json:"artifact_id"`
	Critic          CriticID  `json:"critic"`
	Model           string    `json:"model,omitempty"`
	ReviewText      string    `json:"review_text"`
	Suggestions     []string  `json:"suggestions"`
	SeverityRating  int       `json:"severity_rating"`
	ConfidenceScore float64   `json:"confidence_score,omitempty"`
	ProcessingTime  float64   `json:"processing_time,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Ranking is the generator's meta-evaluation of both reviews for one
// artifact. Created once per iteration, immutable afterward.
type Ranking struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	ArtifactID         string    `json:"artifact_id"`
	Critic1ReviewID    string    `json:"critic1_review_id,omitempty"`
	Critic2ReviewID    string    `json:"critic2_review_id,omitempty"`
	RankingExplanation string    `json:"ranking_explanation"`
	Critic1Score       float64   `json:"critic1_score"`
	Critic2Score       float64   `json:"critic2_score"`
	IncorporationPlan  string    `json:"incorporation_plan"`
	CreatedAt          time.Time `json:"created_at"`
}

// GenerationResult is the full dossier for a session, assembled for the
// generation-result endpoint.
type GenerationResult struct {
	Session   *Session   `json:"session"`
	Request   *Request   `json:"request"`
	Artifacts []*Artifact `json:"artifacts"`
	Reviews   []*Review  `json:"reviews"`
	Rankings  []*Ranking `json:"rankings"`
	FinalCode string     `json:"final_code,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}
