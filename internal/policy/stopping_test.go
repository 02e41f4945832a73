package policy

import (
	"testing"

	"github.com/crucible-ai/crucible/internal/models"
)

func session(iterations, max int) *models.Session {
	s := models.NewSession("req-1", max)
	s.RefinementIterations = iterations
	return s
}

func ranking(c1, c2 float64, explanation string) *models.Ranking {
	return &models.Ranking{
		Critic1Score:       c1,
		Critic2Score:       c2,
		RankingExplanation: explanation,
	}
}

func TestShouldStop(t *testing.T) {
	tests := []struct {
		name       string
		session    *models.Session
		ranking    *models.Ranking
		wantStop   bool
		wantReason string
	}{
		{
			name:       "iteration bound reached",
			session:    session(2, 3),
			ranking:    ranking(0.9, 0.9, "great feedback"),
			wantStop:   true,
			wantReason: ReasonMaxIterations,
		},
		{
			name:       "ranking failure marker",
			session:    session(0, 3),
			ranking:    ranking(0.1, 0.1, RankingFailedMarker+" upstream timeout"),
			wantStop:   true,
			wantReason: ReasonRankingFailed,
		},
		{
			name:       "both scores below threshold",
			session:    session(0, 3),
			ranking:    ranking(0.2, 0.1, "weak feedback"),
			wantStop:   true,
			wantReason: ReasonLowValue,
		},
		{
			name:       "one score above threshold continues",
			session:    session(0, 3),
			ranking:    ranking(0.2, 0.6, "mixed feedback"),
			wantStop:   false,
			wantReason: ReasonContinue,
		},
		{
			name:       "good feedback continues",
			session:    session(1, 3),
			ranking:    ranking(0.8, 0.7, "useful"),
			wantStop:   false,
			wantReason: ReasonContinue,
		},
		{
			// Priority order: the iteration bound wins even when the
			// ranking also failed.
			name:       "iteration bound outranks ranking failure",
			session:    session(2, 3),
			ranking:    ranking(0.1, 0.1, RankingFailedMarker),
			wantStop:   true,
			wantReason: ReasonMaxIterations,
		},
		{
			name:       "single iteration session stops immediately",
			session:    session(0, 1),
			ranking:    ranking(0.9, 0.9, "irrelevant"),
			wantStop:   true,
			wantReason: ReasonMaxIterations,
		},
		{
			name:       "nil ranking continues below bound",
			session:    session(0, 3),
			ranking:    nil,
			wantStop:   false,
			wantReason: ReasonContinue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldStop(tt.session, tt.ranking)
			if got.Stop != tt.wantStop {
				t.Errorf("Stop = %v, want %v", got.Stop, tt.wantStop)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
