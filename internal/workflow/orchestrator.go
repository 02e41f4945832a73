// Package workflow runs the generate-review-rank refinement loop.
//
// Each accepted request gets one session and one detached goroutine that
// drives it through the status sequence pending -> generating -> reviewing
// -> refining -> completed/failed. Request and session status move in
// lockstep; every transition is persisted before the next step runs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/consensus"
	"github.com/crucible-ai/crucible/internal/llm"
	"github.com/crucible-ai/crucible/internal/metrics"
	"github.com/crucible-ai/crucible/internal/models"
	"github.com/crucible-ai/crucible/internal/policy"
	"github.com/crucible-ai/crucible/internal/store"
	"github.com/crucible-ai/crucible/internal/tracing"
	"github.com/crucible-ai/crucible/internal/util"
	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when a start is attempted for a request
// that already has a workflow in flight or past pending.
var ErrAlreadyRunning = errors.New("workflow already running for request")

// DefaultMaxIterations bounds the refinement loop when the request does not
// override it.
const DefaultMaxIterations = 3

// Orchestrator owns workflow execution. One instance per process.
type Orchestrator struct {
	records       *store.Records
	caller        llm.ModelCaller
	logger        *zap.Logger
	maxIterations int

	// Per-process duplicate-start guard. Two replicas can still race on
	// the same request; the status re-check narrows but does not close
	// that window.
	mu       sync.Mutex
	inflight map[string]struct{}

	wg sync.WaitGroup
}

// New builds an orchestrator. maxIterations <= 0 selects the default.
func New(records *store.Records, caller llm.ModelCaller, logger *zap.Logger, maxIterations int) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Orchestrator{
		records:       records,
		caller:        caller,
		logger:        logger,
		maxIterations: maxIterations,
		inflight:      make(map[string]struct{}),
	}
}

// Start accepts a pending request, creates its session, and launches the
// workflow in a detached goroutine. The returned session is already
// persisted; callers can poll status immediately.
func (o *Orchestrator) Start(ctx context.Context, req *models.Request) (*models.Session, error) {
	o.mu.Lock()
	if _, running := o.inflight[req.ID]; running {
		o.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	o.inflight[req.ID] = struct{}{}
	o.mu.Unlock()

	release := func() {
		o.mu.Lock()
		delete(o.inflight, req.ID)
		o.mu.Unlock()
	}

	// Re-check persisted status: a restart or a second replica may have
	// advanced this request already.
	current, err := o.records.GetRequest(ctx, req.ID)
	if err == nil && current.Status != models.StatusPending {
		release()
		return nil, ErrAlreadyRunning
	}

	session := models.NewSession(req.ID, o.maxIterations)
	if err := o.records.SaveSession(ctx, session); err != nil {
		release()
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.WorkflowsStarted.Inc()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer release()
		// Detached from the HTTP request lifecycle on purpose: the
		// workflow outlives the 202 response.
		o.run(context.Background(), req, session)
	}()

	return session, nil
}

// Wait blocks until all in-flight workflows finish. Used during shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run drives one session to a terminal status. The request and session are
// handed over from Start rather than reloaded, so there is no read that can
// fail before the first transition; every exit path persists a terminal
// state. run never panics upward.
func (o *Orchestrator) run(ctx context.Context, req *models.Request, session *models.Session) {
	ctx, span := tracing.StartSpan(ctx, "workflow.run")
	defer span.End()

	start := time.Now()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	logger := o.logger.With(
		zap.String("request_id", req.ID),
		zap.String("session_id", session.ID),
	)

	status := func(s models.GenerationStatus) error {
		return o.setStatus(ctx, req, session, s)
	}
	fail := func(reason string, cause error) {
		logger.Error("Workflow failed", zap.String("reason", reason), zap.Error(cause))
		if err := status(models.StatusFailed); err != nil {
			logger.Error("Failed to persist failed status", zap.Error(err))
		}
		metrics.WorkflowsCompleted.WithLabelValues("failed").Inc()
		metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	}
	complete := func(reason string) {
		logger.Info("Workflow completed",
			zap.String("reason", reason),
			zap.Int("refinement_iterations", session.RefinementIterations),
			zap.Duration("elapsed", time.Since(start)),
		)
		if err := status(models.StatusCompleted); err != nil {
			logger.Error("Failed to persist completed status", zap.Error(err))
		}
		metrics.WorkflowsCompleted.WithLabelValues("completed").Inc()
		metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
		metrics.RefinementIterations.Observe(float64(session.RefinementIterations))
	}

	prompt := llm.BuildGenerationPrompt(req.UserPrompt, req.Language, req.Requirements)

	for {
		// Generate (or refine) the next artifact version.
		if err := status(models.StatusGenerating); err != nil {
			fail("persist generating status", err)
			return
		}

		genOut := o.caller.Generate(ctx, prompt, req.Language)
		if genOut.Failed() {
			fail("generation failed", errors.New(genOut.Code))
			return
		}

		artifact := models.NewArtifact(req.ID, session.ID, genOut.Code, genOut.Explanation, session.RefinementIterations+1)
		if err := o.records.SaveArtifact(ctx, artifact); err != nil {
			fail("persist artifact", err)
			return
		}
		metrics.ArtifactsCreated.Inc()
		session.CurrentArtifactID = artifact.ID
		logger.Info("Artifact created",
			zap.String("artifact_id", artifact.ID),
			zap.Int("version", artifact.Version),
		)

		// Both critics review the artifact concurrently. One failure is
		// tolerated; two is fatal.
		if err := status(models.StatusReviewing); err != nil {
			fail("persist reviewing status", err)
			return
		}

		critiques := o.critiqueBoth(ctx, artifact, req)
		session.Critic1ReviewID = ""
		session.Critic2ReviewID = ""
		reviews := make(map[models.CriticID]*models.Review, 2)
		for critic, out := range critiques {
			if out.Failed {
				logger.Warn("Critic review failed",
					zap.String("critic", string(critic)),
					zap.String("error", out.Error),
				)
				continue
			}
			review := &models.Review{
				ID:              uuid.New().String(),
				SessionID:       session.ID,
				ArtifactID:      artifact.ID,
				Critic:          critic,
				Model:           out.Model,
				ReviewText:      out.ReviewText,
				Suggestions:     out.Suggestions,
				SeverityRating:  out.Severity,
				ConfidenceScore: out.Confidence,
				ProcessingTime:  out.Elapsed,
				CreatedAt:       time.Now().UTC(),
			}
			if err := o.records.SaveReview(ctx, review); err != nil {
				fail("persist review", err)
				return
			}
			reviews[critic] = review
			if critic == models.Critic1 {
				session.Critic1ReviewID = review.ID
			} else {
				session.Critic2ReviewID = review.ID
			}
		}
		if len(reviews) == 0 {
			fail("both critics failed", nil)
			return
		}

		// Consensus is advisory; it annotates the session and nothing
		// downstream branches on it.
		analysis := consensus.AnalyzeConflicts(
			artifact.Explanation,
			reviewText(reviews[models.Critic1]),
			reviewText(reviews[models.Critic2]),
		)
		session.ConsensusScore = analysis.Confidence
		session.ConsensusDecision = analysis.Decision

		// Rank the reviews. A failed ranking still yields a persisted
		// record; the stopping policy reads the failure marker from it.
		rankOut := o.caller.Rank(ctx, llm.RankInput{
			Code:           artifact.Code,
			OriginalPrompt: req.UserPrompt,
			Language:       req.Language,
			Review1:        reviewText(reviews[models.Critic1]),
			Suggestions1:   reviewSuggestions(reviews[models.Critic1]),
			Review2:        reviewText(reviews[models.Critic2]),
			Suggestions2:   reviewSuggestions(reviews[models.Critic2]),
		})
		ranking := &models.Ranking{
			ID:                 uuid.New().String(),
			SessionID:          session.ID,
			ArtifactID:         artifact.ID,
			Critic1ReviewID:    session.Critic1ReviewID,
			Critic2ReviewID:    session.Critic2ReviewID,
			RankingExplanation: rankOut.Explanation,
			Critic1Score:       rankOut.Critic1Score,
			Critic2Score:       rankOut.Critic2Score,
			IncorporationPlan:  rankOut.Plan,
			CreatedAt:          time.Now().UTC(),
		}
		if err := o.records.SaveRanking(ctx, ranking); err != nil {
			fail("persist ranking", err)
			return
		}
		session.RankingID = ranking.ID

		decision := policy.ShouldStop(session, ranking)
		if decision.Stop {
			complete(decision.Reason)
			return
		}

		// Another round: bump the iteration counter, mark refining, and
		// feed the plan plus reviews back into generation.
		session.RefinementIterations++
		if err := status(models.StatusRefining); err != nil {
			fail("persist refining status", err)
			return
		}
		logger.Info("Refining artifact",
			zap.Int("iteration", session.RefinementIterations),
			zap.Float64("critic1_score", ranking.Critic1Score),
			zap.Float64("critic2_score", ranking.Critic2Score),
			zap.String("plan", util.Truncate(ranking.IncorporationPlan, 200, true)),
		)

		prompt = llm.BuildRefinementPrompt(
			artifact.Code, req.UserPrompt, req.Language, ranking.IncorporationPlan,
			refinementSummaries(reviews),
		)
	}
}

// critiqueBoth fans out to both critics and waits for both results.
func (o *Orchestrator) critiqueBoth(ctx context.Context, artifact *models.Artifact, req *models.Request) map[models.CriticID]llm.CritiqueOutput {
	var wg sync.WaitGroup
	var mu sync.Mutex
	out := make(map[models.CriticID]llm.CritiqueOutput, 2)

	for _, critic := range []models.CriticID{models.Critic1, models.Critic2} {
		wg.Add(1)
		go func(critic models.CriticID) {
			defer wg.Done()
			result := o.caller.Critique(ctx, artifact.Code, req.UserPrompt, req.Language, critic)
			mu.Lock()
			out[critic] = result
			mu.Unlock()
		}(critic)
	}
	wg.Wait()
	return out
}

// setStatus persists a status transition to both the request and the
// session. The write order (request, then session) is fixed so a crash
// between the two leaves the request ahead, never behind.
func (o *Orchestrator) setStatus(ctx context.Context, req *models.Request, session *models.Session, s models.GenerationStatus) error {
	now := time.Now().UTC()
	req.Status = s
	req.UpdatedAt = now
	if err := o.records.SaveRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to save request status %s: %w", s, err)
	}
	session.Status = s
	session.UpdatedAt = now
	if err := o.records.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session status %s: %w", s, err)
	}
	return nil
}

func reviewText(r *models.Review) string {
	if r == nil {
		return ""
	}
	return r.ReviewText
}

func reviewSuggestions(r *models.Review) []string {
	if r == nil {
		return nil
	}
	return r.Suggestions
}

func refinementSummaries(reviews map[models.CriticID]*models.Review) []llm.ReviewSummary {
	var out []llm.ReviewSummary
	for _, critic := range []models.CriticID{models.Critic1, models.Critic2} {
		r := reviews[critic]
		if r == nil {
			continue
		}
		out = append(out, llm.ReviewSummary{
			Critic:      string(critic),
			Text:        r.ReviewText,
			Suggestions: r.Suggestions,
		})
	}
	return out
}
