// Package llm calls the generator and critic agents.
//
// Operations follow a no-throw convention: they return result structs and
// never errors. Failures are encoded as data (a sentinel code prefix for
// generation, a Failed flag for critiques, low scores plus a failure marker
// for ranking), so the orchestrator branches on values instead of catching
// exceptions. Rate-limit and breaker state live on the caller instance;
// nothing here is process-global.
package llm

import (
	"context"
	"strings"

	"github.com/crucible-ai/crucible/internal/models"
)

// Agent roles.
const (
	RoleGenerator = "generator"
	RoleCritic1   = "critic1"
	RoleCritic2   = "critic2"
)

// GenerateErrorPrefix marks a generation payload that is an error message
// rather than code. The orchestrator detects generation failure by prefix
// inspection.
const GenerateErrorPrefix = "// ERROR:"

// GenerateOutput is the result of a generate (or refine) call.
type GenerateOutput struct {
	Code        string
	Explanation string
	Elapsed     float64
}

// Failed reports whether the generation payload is an error sentinel.
func (o GenerateOutput) Failed() bool {
	return strings.HasPrefix(o.Code, GenerateErrorPrefix)
}

// CritiqueOutput is the result of one critic call. When Failed is set the
// review is treated as absent.
type CritiqueOutput struct {
	ReviewText  string
	Suggestions []string
	Severity    int
	Confidence  float64
	Elapsed     float64
	Failed      bool
	Error       string
	Model       string
}

// RankInput carries the artifact and both reviews (or placeholders) into a
// ranking call.
type RankInput struct {
	Code           string
	OriginalPrompt string
	Language       string
	Review1        string
	Suggestions1   []string
	Review2        string
	Suggestions2   []string
}

// RankOutput is the result of a ranking call. On failure the explanation
// contains policy.RankingFailedMarker and both scores are 0.1.
type RankOutput struct {
	Explanation  string
	Critic1Score float64
	Critic2Score float64
	Plan         string
	Elapsed      float64
	Failed       bool
}

// ModelCaller is the contract the orchestrator consumes. One instance is
// constructed per process and injected explicitly.
type ModelCaller interface {
	// Generate produces code for a prompt. Refinement uses the same
	// operation with a prompt built by BuildRefinementPrompt.
	Generate(ctx context.Context, prompt, language string) GenerateOutput

	// Critique asks one critic to review generated code.
	Critique(ctx context.Context, code, originalPrompt, language string, critic models.CriticID) CritiqueOutput

	// Rank asks the generator to score both reviews and produce an
	// incorporation plan.
	Rank(ctx context.Context, in RankInput) RankOutput

	// Availability probes each agent, returning per-agent reachability.
	Availability(ctx context.Context) map[string]bool
}
