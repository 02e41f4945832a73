package parse

import (
	"reflect"
	"testing"
)

func TestCodeAndExplanation(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		language    string
		wantCode    string
		wantExplain string
	}{
		{
			name:        "fenced with language tag",
			response:    "Here you go:\n```python\ndef f():\n    pass\n```\nShort and sweet.",
			language:    "python",
			wantCode:    "def f():\n    pass",
			wantExplain: "Here you go:\n\nShort and sweet.",
		},
		{
			name:        "no fence treats everything as code",
			response:    "def f():\n    pass",
			language:    "python",
			wantCode:    "def f():\n    pass",
			wantExplain: DefaultExplanation,
		},
		{
			name:        "fence without surrounding prose",
			response:    "```python\nx = 1\n```",
			language:    "python",
			wantCode:    "x = 1",
			wantExplain: DefaultExplanation,
		},
		{
			name:        "unknown language keeps tag line out of code",
			response:    "```rust\nfn main() {}\n```",
			language:    "",
			wantCode:    "fn main() {}",
			wantExplain: DefaultExplanation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, explanation := CodeAndExplanation(tt.response, tt.language)
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if explanation != tt.wantExplain {
				t.Errorf("explanation = %q, want %q", explanation, tt.wantExplain)
			}
		})
	}
}

func TestSuggestions(t *testing.T) {
	text := `Overall fine.
- use a guard clause
* rename the variable
1. add a docstring
2) validate input
Not a list line.
- five
- six is one too many`

	got := Suggestions(text)
	want := []string{
		"use a guard clause",
		"rename the variable",
		"add a docstring",
		"validate input",
		"five",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggestions() = %v, want %v", got, want)
	}
}

func TestSuggestionsEmpty(t *testing.T) {
	if got := Suggestions("nothing here"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Severity rating: 4", 4},
		{"severity: 2", 2},
		{"SEVERITY - 1", 1},
		{"Severity rating: 7", 5},  // clamped
		{"no rating in sight", 3},  // default
		{"Severity rating: 0", 1},  // clamped up
	}
	for _, tt := range tests {
		if got := Severity(tt.text); got != tt.want {
			t.Errorf("Severity(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestScores(t *testing.T) {
	c1, c2 := Scores("CRITIC 1 SCORE: 0.8\nCRITIC 2 SCORE: 0.65")
	if c1 != 0.8 || c2 != 0.65 {
		t.Errorf("Scores() = %v, %v", c1, c2)
	}

	// Missing markers fall back to the default for each critic.
	c1, c2 = Scores("no scores in this response")
	if c1 != DefaultScore || c2 != DefaultScore {
		t.Errorf("Scores() without markers = %v, %v, want defaults", c1, c2)
	}

	// Out-of-range values clamp to [0, 1].
	c1, _ = Scores("CRITIC 1 SCORE: 1.4")
	if c1 != 1.0 {
		t.Errorf("Scores() clamp = %v, want 1.0", c1)
	}

	// Trailing sentence punctuation must not break parsing.
	_, c2 = Scores("CRITIC 2 SCORE: 0.7.")
	if c2 != 0.7 {
		t.Errorf("Scores() trailing dot = %v, want 0.7", c2)
	}
}

func TestExplanationAndPlan(t *testing.T) {
	text := `RANKING EXPLANATION:
Critic 1 found the real bug.

CRITIC 1 SCORE: 0.9
CRITIC 2 SCORE: 0.4

INCORPORATION PLAN:
Fix the off-by-one first.`

	explanation, plan := ExplanationAndPlan(text)
	if plan != "Fix the off-by-one first." {
		t.Errorf("plan = %q", plan)
	}
	if explanation == "" || explanation[:8] != "Critic 1" {
		t.Errorf("explanation = %q", explanation)
	}
}

func TestExplanationAndPlanMissingMarker(t *testing.T) {
	explanation, plan := ExplanationAndPlan("just some analysis")
	if explanation != "just some analysis" {
		t.Errorf("explanation = %q", explanation)
	}
	if plan != DefaultPlan {
		t.Errorf("plan = %q, want default", plan)
	}
}
