// Package quality scores generated code with static heuristics.
//
// Scores are dimension-weighted in [0,1]. The checks are regex and
// substring heuristics, good enough to rank artifacts relative to each
// other; they do not execute or type-check anything.
package quality

import (
	"regexp"
	"strings"
)

// Dimension weights. They sum to 1.0.
const (
	WeightFunctionality = 0.25
	WeightCodeQuality   = 0.20
	WeightCompleteness  = 0.20
	WeightEfficiency    = 0.15
	WeightErrorHandling = 0.10
	WeightDocumentation = 0.10
)

// Check records one heuristic probe and its outcome.
type Check struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Metrics holds the per-dimension and overall scores for one artifact.
type Metrics struct {
	Functionality float64 `json:"functionality_score"`
	CodeQuality   float64 `json:"code_quality_score"`
	Completeness  float64 `json:"completeness_score"`
	Efficiency    float64 `json:"efficiency_score"`
	ErrorHandling float64 `json:"error_handling_score"`
	Documentation float64 `json:"documentation_score"`
	Overall       float64 `json:"overall_score"`
	Checks        []Check `json:"checks"`
}

// Case describes one evaluation scenario.
type Case struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	Language         string   `json:"language"`
	Requirements     string   `json:"requirements,omitempty"`
	ExpectedFeatures []string `json:"expected_features,omitempty"`
	MinLines         int      `json:"min_lines,omitempty"`
	MaxLines         int      `json:"max_lines,omitempty"`
}

// Evaluator scores code against a case using language-aware heuristics.
type Evaluator struct {
	languages map[string]languageProbes
}

// languageProbes carries the language-specific regexes.
type languageProbes struct {
	function      *regexp.Regexp
	class         *regexp.Regexp
	errorHandling []string
	docMarkers    []string
	commentPrefix string
}

// NewEvaluator builds an evaluator with probes for python, javascript,
// java, and go.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		languages: map[string]languageProbes{
			"python": {
				function:      regexp.MustCompile(`(?m)^\s*def\s+\w+`),
				class:         regexp.MustCompile(`(?m)^\s*class\s+\w+`),
				errorHandling: []string{"try:", "except", "raise "},
				docMarkers:    []string{`"""`, "'''"},
				commentPrefix: "#",
			},
			"javascript": {
				function:      regexp.MustCompile(`function\s+\w+|=>\s*{|\w+\s*=\s*\(`),
				class:         regexp.MustCompile(`(?m)^\s*class\s+\w+`),
				errorHandling: []string{"try {", "catch", "throw "},
				docMarkers:    []string{"/**"},
				commentPrefix: "//",
			},
			"java": {
				function:      regexp.MustCompile(`(?m)(public|private|protected|static).*\(.*\)\s*{`),
				class:         regexp.MustCompile(`(?m)^\s*(public\s+)?class\s+\w+`),
				errorHandling: []string{"try {", "catch", "throw "},
				docMarkers:    []string{"/**"},
				commentPrefix: "//",
			},
			"go": {
				function:      regexp.MustCompile(`(?m)^func\s+`),
				class:         regexp.MustCompile(`(?m)^type\s+\w+\s+struct`),
				errorHandling: []string{"if err != nil", "errors.", "fmt.Errorf"},
				docMarkers:    []string{"// "},
				commentPrefix: "//",
			},
		},
	}
}

// Supports reports whether the evaluator has probes for the language.
func (e *Evaluator) Supports(language string) bool {
	_, ok := e.languages[strings.ToLower(language)]
	return ok
}

// Evaluate scores one piece of code against a case. Unknown languages fall
// back to the python probes.
func (e *Evaluator) Evaluate(code string, c Case) Metrics {
	probes, ok := e.languages[strings.ToLower(c.Language)]
	if !ok {
		probes = e.languages["python"]
	}

	var m Metrics
	m.Functionality = e.scoreFunctionality(code, c, probes, &m.Checks)
	m.CodeQuality = e.scoreCodeQuality(code, &m.Checks)
	m.Completeness = e.scoreCompleteness(code, c, &m.Checks)
	m.Efficiency = e.scoreEfficiency(code, c, &m.Checks)
	m.ErrorHandling = e.scoreErrorHandling(code, probes, &m.Checks)
	m.Documentation = e.scoreDocumentation(code, probes, &m.Checks)

	m.Overall = m.Functionality*WeightFunctionality +
		m.CodeQuality*WeightCodeQuality +
		m.Completeness*WeightCompleteness +
		m.Efficiency*WeightEfficiency +
		m.ErrorHandling*WeightErrorHandling +
		m.Documentation*WeightDocumentation
	return m
}

func (e *Evaluator) scoreFunctionality(code string, c Case, probes languageProbes, checks *[]Check) float64 {
	if strings.TrimSpace(code) == "" {
		*checks = append(*checks, Check{Name: "non_empty", Message: "code is empty"})
		return 0
	}
	*checks = append(*checks, Check{Name: "non_empty", Passed: true, Message: "code is non-empty"})

	var passed, total int
	record := func(name string, ok bool, msg string) {
		total++
		if ok {
			passed++
		}
		*checks = append(*checks, Check{Name: name, Passed: ok, Message: msg})
	}

	promptLower := strings.ToLower(c.Prompt)
	if strings.Contains(promptLower, "function") {
		record("has_function", probes.function.MatchString(code), "function definition expected by prompt")
	}
	if strings.Contains(promptLower, "class") {
		record("has_class", probes.class.MatchString(code), "class definition expected by prompt")
	}
	if strings.Contains(promptLower, "return") {
		record("has_return", strings.Contains(code, "return"), "return statement expected by prompt")
	}
	if total == 0 {
		return 0.5
	}
	return float64(passed) / float64(total)
}

func (e *Evaluator) scoreCodeQuality(code string, checks *[]Check) float64 {
	lines := strings.Split(code, "\n")
	longLines := 0
	for _, line := range lines {
		if len(line) > 100 {
			longLines++
		}
	}
	lineScore := 1.0 - float64(longLines)/float64(len(lines))
	*checks = append(*checks, Check{
		Name:    "line_length",
		Passed:  lineScore > 0.9,
		Message: "lines should stay under 100 characters",
	})
	return lineScore
}

func (e *Evaluator) scoreCompleteness(code string, c Case, checks *[]Check) float64 {
	if len(c.ExpectedFeatures) == 0 {
		return 0.5
	}
	codeLower := strings.ToLower(code)
	found := 0
	for _, feature := range c.ExpectedFeatures {
		// Feature names are phrases; any significant word counting as a
		// hit keeps the probe from demanding literal matches.
		hit := false
		for _, word := range strings.Fields(strings.ToLower(feature)) {
			if len(word) >= 4 && strings.Contains(codeLower, word) {
				hit = true
				break
			}
		}
		if hit {
			found++
		}
		*checks = append(*checks, Check{
			Name:    "feature:" + feature,
			Passed:  hit,
			Message: "expected feature",
		})
	}
	return float64(found) / float64(len(c.ExpectedFeatures))
}

func (e *Evaluator) scoreEfficiency(code string, c Case, checks *[]Check) float64 {
	lines := len(strings.Split(code, "\n"))
	if c.MinLines == 0 && c.MaxLines == 0 {
		return 0.5
	}
	ok := lines >= c.MinLines && (c.MaxLines == 0 || lines <= c.MaxLines)
	*checks = append(*checks, Check{
		Name:    "expected_length",
		Passed:  ok,
		Message: "solution size within the expected range",
	})
	if ok {
		return 1.0
	}
	return 0.3
}

func (e *Evaluator) scoreErrorHandling(code string, probes languageProbes, checks *[]Check) float64 {
	for _, marker := range probes.errorHandling {
		if strings.Contains(code, marker) {
			*checks = append(*checks, Check{Name: "error_handling", Passed: true, Message: "error handling present"})
			return 1.0
		}
	}
	*checks = append(*checks, Check{Name: "error_handling", Message: "no error handling found"})
	return 0.0
}

func (e *Evaluator) scoreDocumentation(code string, probes languageProbes, checks *[]Check) float64 {
	score := 0.0
	for _, marker := range probes.docMarkers {
		if strings.Contains(code, marker) {
			score = 1.0
			break
		}
	}
	if score == 0 && strings.Contains(code, probes.commentPrefix) {
		score = 0.5
	}
	*checks = append(*checks, Check{
		Name:    "documentation",
		Passed:  score > 0,
		Message: "comments or doc blocks",
	})
	return score
}
