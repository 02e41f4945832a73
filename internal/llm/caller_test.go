package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/crucible-ai/crucible/internal/models"
	"github.com/crucible-ai/crucible/internal/policy"
)

// chatStub serves an OpenAI-compatible chat-completions endpoint returning
// a fixed response body.
func chatStub(t *testing.T, respond func(userMsg string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		content := respond(req.Messages[1].Content)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func testCaller(t *testing.T, baseURL string) *HTTPCaller {
	t.Helper()
	mk := func(role string) AgentConfig {
		return AgentConfig{Role: role, Model: "test-model", BaseURL: baseURL, RPM: 6000}
	}
	c, err := NewHTTPCaller([]AgentConfig{mk(RoleGenerator), mk(RoleCritic1), mk(RoleCritic2)}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestGenerateParsesFencedCode(t *testing.T) {
	srv := chatStub(t, func(string) string {
		return "Here it is:\n```python\nprint('hi')\n```\nDone."
	})
	defer srv.Close()

	out := testCaller(t, srv.URL).Generate(context.Background(), "print hi", "python")
	require.False(t, out.Failed())
	require.Equal(t, "print('hi')", out.Code)
	require.Contains(t, out.Explanation, "Here it is:")
}

func TestGenerateTransportFailure(t *testing.T) {
	srv := chatStub(t, func(string) string { return "" })
	srv.Close() // force connection errors

	out := testCaller(t, srv.URL).Generate(context.Background(), "prompt", "python")
	require.True(t, out.Failed())
	require.True(t, strings.HasPrefix(out.Code, GenerateErrorPrefix))
	require.Equal(t, "Generation failed", out.Explanation)
}

func TestCritiqueParsesReview(t *testing.T) {
	srv := chatStub(t, func(string) string {
		return "Overall fine.\n- validate input\n- add docstring\nSeverity rating: 2"
	})
	defer srv.Close()

	out := testCaller(t, srv.URL).Critique(context.Background(), "code", "prompt", "python", models.Critic1)
	require.False(t, out.Failed)
	require.Equal(t, []string{"validate input", "add docstring"}, out.Suggestions)
	require.Equal(t, 2, out.Severity)
	require.Greater(t, out.Confidence, 0.3)
	require.LessOrEqual(t, out.Confidence, 0.9)
}

func TestCritiqueTransportFailure(t *testing.T) {
	srv := chatStub(t, func(string) string { return "" })
	srv.Close()

	out := testCaller(t, srv.URL).Critique(context.Background(), "code", "prompt", "python", models.Critic2)
	require.True(t, out.Failed)
	require.NotEmpty(t, out.Error)
	require.Empty(t, out.ReviewText)
}

func TestRankParsesScoresAndPlan(t *testing.T) {
	srv := chatStub(t, func(string) string {
		return `RANKING EXPLANATION:
Critic 1 caught the real issue.

CRITIC 1 SCORE: 0.8
CRITIC 2 SCORE: 0.3

INCORPORATION PLAN:
Add input validation first.`
	})
	defer srv.Close()

	out := testCaller(t, srv.URL).Rank(context.Background(), RankInput{
		Code: "code", OriginalPrompt: "prompt", Language: "python",
		Review1: "r1", Review2: "r2",
	})
	require.False(t, out.Failed)
	require.Equal(t, 0.8, out.Critic1Score)
	require.Equal(t, 0.3, out.Critic2Score)
	require.Equal(t, "Add input validation first.", out.Plan)
	require.NotContains(t, out.Explanation, policy.RankingFailedMarker)
}

func TestRankTransportFailure(t *testing.T) {
	srv := chatStub(t, func(string) string { return "" })
	srv.Close()

	out := testCaller(t, srv.URL).Rank(context.Background(), RankInput{Language: "python"})
	require.True(t, out.Failed)
	require.Contains(t, out.Explanation, policy.RankingFailedMarker)
	require.Equal(t, 0.1, out.Critic1Score)
	require.Equal(t, 0.1, out.Critic2Score)
}

func TestNewHTTPCallerRequiresAllRoles(t *testing.T) {
	_, err := NewHTTPCaller([]AgentConfig{
		{Role: RoleGenerator, Model: "m", BaseURL: "http://localhost"},
	}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestBuildRefinementPrompt(t *testing.T) {
	prompt := BuildRefinementPrompt("old code", "make a parser", "go", "fix the lexer", []ReviewSummary{
		{Critic: "critic1", Text: "lexer is broken", Suggestions: []string{"rewrite lexer"}},
	})
	require.Contains(t, prompt, "old code")
	require.Contains(t, prompt, "make a parser")
	require.Contains(t, prompt, "fix the lexer")
	require.Contains(t, prompt, "rewrite lexer")
}
