// Package consensus classifies agreement between the generator and the two
// critics.
//
// This is a keyword heuristic, not a correctness oracle: it flags likely
// disagreement so the caller can surface a confidence signal, and nothing
// more should be read into it.
package consensus

import "strings"

// Strategy is the fixed label attached to every analysis.
const Strategy = "consensus_based"

// disagreementKeywords mark a critic text as conflicting with the
// generator's output.
var disagreementKeywords = []string{
	"wrong", "incorrect", "disagree", "however", "but", "actually", "instead",
}

// Analysis is the result of a conflict scan across both critic texts.
type Analysis struct {
	Conflicts  []string `json:"conflicts"`
	Strategy   string   `json:"strategy"`
	Decision   string   `json:"decision"`
	Confidence float64  `json:"confidence"`
}

// AnalyzeConflicts scans both critic texts for disagreement markers and
// maps the hit count to a confidence value and resolution decision:
// 0 conflicts -> 0.9, 1 -> 0.7, 2 -> 0.5.
func AnalyzeConflicts(coderText, critic1Text, critic2Text string) Analysis {
	analysis := Analysis{
		Strategy:  Strategy,
		Conflicts: []string{},
	}

	if hasDisagreement(critic1Text) {
		analysis.Conflicts = append(analysis.Conflicts, "critic1 disagrees with generator approach")
	}
	if hasDisagreement(critic2Text) {
		analysis.Conflicts = append(analysis.Conflicts, "critic2 disagrees with generator approach")
	}

	switch len(analysis.Conflicts) {
	case 0:
		analysis.Confidence = 0.9
		analysis.Decision = "general agreement, follow generator with minor adjustments"
	case 1:
		analysis.Confidence = 0.7
		analysis.Decision = "mixed feedback, prioritize generator but weigh critic input"
	default:
		analysis.Confidence = 0.5
		analysis.Decision = "significant disagreement, recommend human review"
	}

	return analysis
}

func hasDisagreement(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range disagreementKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
