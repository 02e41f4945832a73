package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CaseResult is the outcome of running one evaluation case end to end.
type CaseResult struct {
	Case      Case    `json:"case"`
	SessionID string  `json:"session_id,omitempty"`
	Status    string  `json:"status"`
	Metrics   Metrics `json:"metrics"`
	Error     string  `json:"error,omitempty"`
	Elapsed   float64 `json:"elapsed_seconds"`
}

// SuiteResult aggregates a full run.
type SuiteResult struct {
	Results      []CaseResult `json:"results"`
	AverageScore float64      `json:"average_score"`
	Passed       int          `json:"passed"`
	Failed       int          `json:"failed"`
}

// Runner drives evaluation cases through a running service and scores the
// final code.
type Runner struct {
	baseURL   string
	client    *http.Client
	evaluator *Evaluator
	logger    *zap.Logger

	// PollInterval controls how often generation status is checked.
	PollInterval time.Duration
}

// NewRunner builds a runner against the service at baseURL.
func NewRunner(baseURL string, logger *zap.Logger) *Runner {
	return &Runner{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		evaluator:    NewEvaluator(),
		logger:       logger,
		PollInterval: 2 * time.Second,
	}
}

// Run executes every case and aggregates the scores. A case counts as
// passed when its workflow completes and scores at least 0.5 overall.
func (r *Runner) Run(ctx context.Context, cases []Case) SuiteResult {
	var suite SuiteResult
	for _, c := range cases {
		result := r.runCase(ctx, c)
		suite.Results = append(suite.Results, result)
		if result.Error == "" && result.Metrics.Overall >= 0.5 {
			suite.Passed++
		} else {
			suite.Failed++
		}
		r.logger.Info("Case finished",
			zap.String("case", c.ID),
			zap.Float64("score", result.Metrics.Overall),
			zap.String("error", result.Error),
		)
	}
	if len(suite.Results) > 0 {
		var sum float64
		for _, res := range suite.Results {
			sum += res.Metrics.Overall
		}
		suite.AverageScore = sum / float64(len(suite.Results))
	}
	return suite
}

func (r *Runner) runCase(ctx context.Context, c Case) CaseResult {
	start := time.Now()
	result := CaseResult{Case: c}
	finish := func() CaseResult {
		result.Elapsed = time.Since(start).Seconds()
		return result
	}

	submission, err := r.submit(ctx, c)
	if err != nil {
		result.Error = err.Error()
		return finish()
	}
	result.SessionID = submission.SessionID

	status, err := r.awaitTerminal(ctx, submission.RequestID)
	if err != nil {
		result.Error = err.Error()
		return finish()
	}
	result.Status = status
	if status != "completed" {
		result.Error = fmt.Sprintf("workflow ended with status %s", status)
		return finish()
	}

	code, err := r.finalCode(ctx, submission.SessionID)
	if err != nil {
		result.Error = err.Error()
		return finish()
	}
	result.Metrics = r.evaluator.Evaluate(code, c)
	return finish()
}

type submission struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
}

func (r *Runner) submit(ctx context.Context, c Case) (*submission, error) {
	body, err := json.Marshal(map[string]string{
		"user_prompt":  c.Prompt,
		"language":     c.Language,
		"requirements": c.Requirements,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/generate-code", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit case: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("submission rejected with status %d", resp.StatusCode)
	}

	var s submission
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode submission response: %w", err)
	}
	return &s, nil
}

func (r *Runner) awaitTerminal(ctx context.Context, requestID string) (string, error) {
	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var payload struct {
			Status string `json:"status"`
		}
		if err := r.getJSON(ctx, "/api/generation-status/"+requestID, &payload); err != nil {
			return "", err
		}
		if payload.Status == "completed" || payload.Status == "failed" {
			return payload.Status, nil
		}
	}
}

func (r *Runner) finalCode(ctx context.Context, sessionID string) (string, error) {
	var payload struct {
		FinalCode string `json:"final_code"`
	}
	if err := r.getJSON(ctx, "/api/final-code/"+sessionID, &payload); err != nil {
		return "", err
	}
	return payload.FinalCode, nil
}

func (r *Runner) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
