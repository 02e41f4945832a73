package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/crucible-ai/crucible/internal/models"
	"github.com/crucible-ai/crucible/internal/store"
)

// AssembleResult loads the full dossier for a session: request, every
// artifact version, every review and ranking, the final code, and a short
// human-readable summary.
func AssembleResult(ctx context.Context, records *store.Records, sessionID string) (*models.GenerationResult, error) {
	session, err := records.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	req, err := records.GetRequest(ctx, session.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request for session %s: %w", sessionID, err)
	}
	artifacts, err := records.ArtifactsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	reviews, err := records.ReviewsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rankings, err := records.RankingsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		Session:   session,
		Request:   req,
		Artifacts: artifacts,
		Reviews:   reviews,
		Rankings:  rankings,
	}
	if len(artifacts) > 0 {
		result.FinalCode = artifacts[len(artifacts)-1].Code
	}
	result.Summary = summarize(session, len(artifacts), len(reviews))
	return result, nil
}

func summarize(session *models.Session, artifactCount, reviewCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d artifact version(s), %d review(s), %d refinement iteration(s), status %s.",
		session.ID, artifactCount, reviewCount, session.RefinementIterations, session.Status)
	if session.ConsensusDecision != "" {
		fmt.Fprintf(&b, " Consensus: %s (confidence %.1f).", session.ConsensusDecision, session.ConsensusScore)
	}
	return b.String()
}
