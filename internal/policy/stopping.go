// Package policy decides when a refinement session should stop iterating.
package policy

import (
	"strings"

	"github.com/crucible-ai/crucible/internal/models"
)

// RankingFailedMarker appears in a ranking explanation when the ranking
// call itself failed. The model caller writes it and ShouldStop keys off
// it; the two must stay in sync.
const RankingFailedMarker = "[RANKING FAILED]"

// LowValueThreshold is the score below which critic feedback is judged too
// low-value to incorporate.
const LowValueThreshold = 0.3

// Stop reasons reported alongside the decision.
const (
	ReasonMaxIterations = "max iterations reached"
	ReasonRankingFailed = "ranking failed"
	ReasonLowValue      = "critic feedback below incorporation threshold"
	ReasonContinue      = "feedback worth incorporating"
)

// Decision is the outcome of a stop check.
type Decision struct {
	Stop   bool
	Reason string
}

// ShouldStop decides whether refinement halts after the given ranking. It
// is a pure function of the session's iteration counters and the ranking.
//
// The checks run in fixed priority order: iteration bound first, then
// ranking failure, then low-value feedback. A failed ranking on the final
// iteration therefore reports the iteration bound, not the failure.
func ShouldStop(session *models.Session, ranking *models.Ranking) Decision {
	if session.RefinementIterations >= session.MaxIterations-1 {
		return Decision{Stop: true, Reason: ReasonMaxIterations}
	}

	if ranking != nil && strings.Contains(ranking.RankingExplanation, RankingFailedMarker) {
		return Decision{Stop: true, Reason: ReasonRankingFailed}
	}

	if ranking != nil && ranking.Critic1Score < LowValueThreshold && ranking.Critic2Score < LowValueThreshold {
		return Decision{Stop: true, Reason: ReasonLowValue}
	}

	return Decision{Reason: ReasonContinue}
}
