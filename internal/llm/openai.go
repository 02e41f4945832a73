package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crucible-ai/crucible/internal/circuitbreaker"
	"github.com/crucible-ai/crucible/internal/metrics"
	"github.com/crucible-ai/crucible/internal/models"
	"github.com/crucible-ai/crucible/internal/parse"
	"github.com/crucible-ai/crucible/internal/policy"
	"github.com/crucible-ai/crucible/internal/tracing"
)

// AgentConfig describes one named agent endpoint. All three roles speak the
// OpenAI chat-completions protocol; provider differences are limited to
// base URL and credentials.
type AgentConfig struct {
	Role      string `yaml:"role" mapstructure:"role"`
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	APIKeyEnv string `yaml:"api_key_env" mapstructure:"api_key_env"`
	RPM       int    `yaml:"rpm" mapstructure:"rpm"`
	TimeoutS  int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type agent struct {
	cfg     AgentConfig
	apiKey  string
	limiter *rate.Limiter
	http    *circuitbreaker.HTTPWrapper
}

// HTTPCaller implements ModelCaller against OpenAI-compatible endpoints.
// Each agent carries its own rate limiter and circuit breaker.
type HTTPCaller struct {
	agents map[string]*agent
	logger *zap.Logger
}

// NewHTTPCaller builds a caller from agent configs. Configs for all three
// roles (generator, critic1, critic2) must be present.
func NewHTTPCaller(cfgs []AgentConfig, logger *zap.Logger) (*HTTPCaller, error) {
	agents := make(map[string]*agent, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Role == "" || cfg.Model == "" || cfg.BaseURL == "" {
			return nil, fmt.Errorf("agent config missing role, model, or base_url: %+v", cfg)
		}
		rpm := cfg.RPM
		if rpm <= 0 {
			rpm = 30
		}
		timeout := time.Duration(cfg.TimeoutS) * time.Second
		if timeout <= 0 {
			timeout = 60 * time.Second
		}

		agents[cfg.Role] = &agent{
			cfg:     cfg,
			apiKey:  os.Getenv(cfg.APIKeyEnv),
			limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
			http:    circuitbreaker.NewHTTPWrapper(cfg.Role, &http.Client{Timeout: timeout}, logger),
		}
	}

	for _, role := range []string{RoleGenerator, RoleCritic1, RoleCritic2} {
		if _, ok := agents[role]; !ok {
			return nil, fmt.Errorf("no agent configured for role %s", role)
		}
	}

	return &HTTPCaller{agents: agents, logger: logger}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// chat performs one chat-completions round trip for the named role.
func (c *HTTPCaller) chat(ctx context.Context, role, system, user string, temperature float64) (string, float64, error) {
	a, ok := c.agents[role]
	if !ok {
		return "", 0, fmt.Errorf("no agent configured for role %s", role)
	}

	start := time.Now()
	elapsed := func() float64 { return time.Since(start).Seconds() }

	if err := a.limiter.Wait(ctx); err != nil {
		return "", elapsed(), fmt.Errorf("rate limit wait aborted: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", elapsed(), fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := a.cfg.BaseURL + "/chat/completions"
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", elapsed(), fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	tracing.InjectTraceparent(ctx, req)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", elapsed(), fmt.Errorf("chat request to %s failed: %w", a.cfg.Model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", elapsed(), fmt.Errorf("%s returned status %d: %s", a.cfg.Model, resp.StatusCode, snippet)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", elapsed(), fmt.Errorf("failed to decode chat response: %w", err)
	}
	if cr.Error != nil {
		return "", elapsed(), fmt.Errorf("%s returned error: %s", a.cfg.Model, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", elapsed(), fmt.Errorf("%s returned no choices", a.cfg.Model)
	}

	return cr.Choices[0].Message.Content, elapsed(), nil
}

// Generate produces code for a prompt. Failures are returned as an
// error-prefixed code payload, never as an error.
func (c *HTTPCaller) Generate(ctx context.Context, prompt, language string) GenerateOutput {
	response, elapsed, err := c.chat(ctx, RoleGenerator, systemPrompt(RoleGenerator, language), prompt, 0.7)
	c.observe(RoleGenerator, "generate", elapsed, err)
	if err != nil {
		c.logger.Error("Generation call failed", zap.Error(err))
		return GenerateOutput{
			Code:        fmt.Sprintf("%s %v", GenerateErrorPrefix, err),
			Explanation: "Generation failed",
			Elapsed:     elapsed,
		}
	}

	code, explanation := parse.CodeAndExplanation(response, language)
	return GenerateOutput{Code: code, Explanation: explanation, Elapsed: elapsed}
}

// Critique asks one critic to review the code. On failure the output is
// flagged Failed and the review is treated as absent by the caller.
func (c *HTTPCaller) Critique(ctx context.Context, code, originalPrompt, language string, critic models.CriticID) CritiqueOutput {
	role := RoleCritic1
	if critic == models.Critic2 {
		role = RoleCritic2
	}
	a := c.agents[role]

	response, elapsed, err := c.chat(ctx, role, systemPrompt(role, language), buildReviewPrompt(code, originalPrompt, language), 0.3)
	c.observe(role, "critique", elapsed, err)
	if err != nil {
		c.logger.Warn("Critique call failed",
			zap.String("critic", string(critic)),
			zap.Error(err),
		)
		metrics.CriticFailures.WithLabelValues(string(critic)).Inc()
		return CritiqueOutput{
			Failed:  true,
			Error:   err.Error(),
			Elapsed: elapsed,
			Model:   a.cfg.Model,
		}
	}

	// Confidence scales with review length, capped well below certainty.
	confidence := float64(len(response))/1000.0 + 0.3
	if confidence > 0.9 {
		confidence = 0.9
	}

	return CritiqueOutput{
		ReviewText:  response,
		Suggestions: parse.Suggestions(response),
		Severity:    parse.Severity(response),
		Confidence:  confidence,
		Elapsed:     elapsed,
		Model:       a.cfg.Model,
	}
}

// Rank asks the generator to score both reviews. On failure it returns
// 0.1/0.1 scores and an explanation carrying the failure marker so the
// stopping policy terminates the session.
func (c *HTTPCaller) Rank(ctx context.Context, in RankInput) RankOutput {
	response, elapsed, err := c.chat(ctx, RoleGenerator, systemPrompt(RoleGenerator, in.Language), buildRankingPrompt(in), 0.5)
	c.observe(RoleGenerator, "rank", elapsed, err)
	if err != nil {
		c.logger.Error("Ranking call failed", zap.Error(err))
		metrics.RankingFailures.Inc()
		return RankOutput{
			Explanation:  fmt.Sprintf("%s %v", policy.RankingFailedMarker, err),
			Critic1Score: 0.1,
			Critic2Score: 0.1,
			Plan:         "Unable to create incorporation plan",
			Elapsed:      elapsed,
			Failed:       true,
		}
	}

	score1, score2 := parse.Scores(response)
	explanation, plan := parse.ExplanationAndPlan(response)
	return RankOutput{
		Explanation:  explanation,
		Critic1Score: score1,
		Critic2Score: score2,
		Plan:         plan,
		Elapsed:      elapsed,
	}
}

// Availability probes each agent with a minimal completion.
func (c *HTTPCaller) Availability(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(c.agents))
	for role, a := range c.agents {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, _, err := c.chat(probeCtx, role, "You are a health probe.", "Reply with OK.", 0.1)
		cancel()
		if err != nil {
			c.logger.Warn("Agent availability probe failed",
				zap.String("role", role),
				zap.String("model", a.cfg.Model),
				zap.Error(err),
			)
		}
		results[a.cfg.Model] = err == nil
	}
	return results
}

// AgentModels returns the configured model name per role.
func (c *HTTPCaller) AgentModels() map[string]string {
	out := make(map[string]string, len(c.agents))
	for role, a := range c.agents {
		out[role] = a.cfg.Model
	}
	return out
}

func (c *HTTPCaller) observe(role, op string, elapsed float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ModelCalls.WithLabelValues(role, op, status).Inc()
	metrics.ModelCallDuration.WithLabelValues(role, op).Observe(elapsed)
}
