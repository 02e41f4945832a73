// Package parse extracts structured fields from free-text model output.
//
// These are permissive best-effort extractors, not a grammar. Model output
// is unstructured natural language; when a pattern is absent the functions
// fall back to fixed defaults and never return an error.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Fallbacks used when the expected pattern is absent.
const (
	DefaultExplanation = "Code generated"
	DefaultPlan        = "No specific plan provided"
	DefaultSeverity    = 3
	DefaultScore       = 0.5

	// MaxSuggestions bounds the suggestion list per review.
	MaxSuggestions = 5
)

const (
	critic1ScoreMarker = "CRITIC 1 SCORE:"
	critic2ScoreMarker = "CRITIC 2 SCORE:"
	planMarker         = "INCORPORATION PLAN:"
	explanationMarker  = "RANKING EXPLANATION:"
)

var (
	severityRe     = regexp.MustCompile(`(?i)severity[^\d]*(\d)`)
	critic1ScoreRe = regexp.MustCompile(`CRITIC 1 SCORE:\s*([0-9.]+)`)
	critic2ScoreRe = regexp.MustCompile(`CRITIC 2 SCORE:\s*([0-9.]+)`)
	numberedItemRe = regexp.MustCompile(`^\d[.)]\s+(.*)`)
)

// CodeAndExplanation splits a generation response into the code payload and
// surrounding prose. The first fenced block is the code; text around it is
// the explanation. Without a fence the whole response is treated as code
// and the explanation falls back to DefaultExplanation.
func CodeAndExplanation(response, language string) (code, explanation string) {
	parts := strings.Split(response, "```")
	if len(parts) < 3 {
		return strings.TrimSpace(response), DefaultExplanation
	}

	code = parts[1]
	// Drop the fence's language tag if present ("```python\n...")
	if language != "" {
		if rest, ok := strings.CutPrefix(code, language); ok {
			code = rest
		}
	} else if nl := strings.IndexByte(code, '\n'); nl >= 0 && !strings.ContainsAny(code[:nl], " \t") {
		code = code[nl:]
	}

	explanation = strings.TrimSpace(parts[0] + parts[2])
	if explanation == "" {
		explanation = DefaultExplanation
	}
	return strings.TrimSpace(code), explanation
}

// Suggestions scans review text for list items (leading "-", "*", "1. ",
// "1) ") and returns at most MaxSuggestions entries in source order, with
// markers stripped.
func Suggestions(text string) []string {
	var suggestions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		var item string
		switch {
		case strings.HasPrefix(line, "- "):
			item = line[2:]
		case strings.HasPrefix(line, "* "):
			item = line[2:]
		default:
			if m := numberedItemRe.FindStringSubmatch(line); m != nil {
				item = m[1]
			}
		}
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		suggestions = append(suggestions, item)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	return suggestions
}

// Severity extracts the first digit following a case-insensitive "severity"
// token. Absent a match it returns DefaultSeverity; the result is always
// clamped to [1, 5].
func Severity(text string) int {
	severity := DefaultSeverity
	if m := severityRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			severity = v
		}
	}
	if severity < 1 {
		severity = 1
	}
	if severity > 5 {
		severity = 5
	}
	return severity
}

// Scores extracts the two critic scores from a ranking response. A missing
// marker yields DefaultScore for that critic; both values are clamped to
// [0, 1].
func Scores(text string) (critic1, critic2 float64) {
	critic1 = scoreFor(critic1ScoreRe, text)
	critic2 = scoreFor(critic2ScoreRe, text)
	return critic1, critic2
}

func scoreFor(re *regexp.Regexp, text string) float64 {
	score := DefaultScore
	if m := re.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64); err == nil {
			score = v
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// ExplanationAndPlan splits a ranking response on the incorporation plan
// marker. Text before the marker, minus the ranking explanation label, is
// the explanation; text after is the plan. Without the marker the whole
// response is the explanation and the plan falls back to DefaultPlan.
func ExplanationAndPlan(text string) (explanation, plan string) {
	before, after, found := strings.Cut(text, planMarker)
	explanation = strings.TrimSpace(strings.ReplaceAll(before, explanationMarker, ""))
	if !found {
		return explanation, DefaultPlan
	}
	plan = strings.TrimSpace(after)
	if plan == "" {
		plan = DefaultPlan
	}
	return explanation, plan
}
