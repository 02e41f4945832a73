package llm

import (
	"fmt"
	"strings"
)

// systemPrompt returns the role-specific system prompt for an agent.
func systemPrompt(role, language string) string {
	base := fmt.Sprintf("You are an expert %s developer working on a code generation and review system.", language)

	switch role {
	case RoleGenerator:
		return base + `

Your role is GENERATOR. You will:
1. Generate code based on user prompts
2. Rank critic feedback and incorporate improvements
3. Refine code iteratively based on critic reviews

Guidelines for generation:
- Write clean, well-structured, documented code
- Follow language best practices and conventions
- Consider edge cases and error handling

Guidelines for ranking reviews:
- Evaluate each critic's feedback objectively
- Assign scores (0-1) based on feedback quality and relevance
- Create incorporation plans that address the most important issues

Response format varies by task - follow the instructions in each prompt.`

	case RoleCritic1:
		return base + `

Your role is CRITIC 1. Review generated code for correctness, potential
bugs, security issues, and readability. Suggest specific improvements with
clear rationale and rate the severity of the worst issue found
(1=minor to 5=critical).

Response format:
- Overall assessment
- Specific issues found
- Concrete suggestions as a bullet list
- Severity rating`

	case RoleCritic2:
		return base + `

Your role is CRITIC 2. Review generated code with a focus on performance,
algorithmic efficiency, design patterns, scalability, and fault tolerance.
Rate the severity of the worst issue found (1=minor to 5=critical).

Response format:
- Performance and design assessment
- Optimization opportunities
- Improvement suggestions as a bullet list
- Severity rating`
	}

	return base
}

// BuildGenerationPrompt wraps the user's request for the initial generation.
func BuildGenerationPrompt(userPrompt, language, requirements string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %s code for the following request:\n\n%s\n", language, userPrompt)
	if requirements != "" {
		fmt.Fprintf(&b, "\nAdditional requirements:\n%s\n", requirements)
	}
	b.WriteString("\nReturn the code in a fenced code block, with a short explanation around it.")
	return b.String()
}

// buildReviewPrompt asks a critic to review one artifact.
func buildReviewPrompt(code, originalPrompt, language string) string {
	return fmt.Sprintf(`Review this %s code that was generated for the following request:

Original Request: %s

Generated Code:
`+"```%s\n%s\n```"+`

Provide a thorough review following your role guidelines. Include:
1. Overall assessment
2. Specific issues (if any)
3. Suggestions for improvement as a bullet list
4. Severity rating (1-5) for the most critical issue found`,
		language, originalPrompt, language, code)
}

// buildRankingPrompt asks the generator to score both reviews and plan the
// next refinement. The score and plan markers are parsed by internal/parse.
func buildRankingPrompt(in RankInput) string {
	return fmt.Sprintf(`You generated this %s code for the request: %s

Your Generated Code:
`+"```%s\n%s\n```"+`

Now review the feedback from two critics and rank their reviews:

CRITIC 1 REVIEW:
%s

Critic 1 Suggestions:
%s

CRITIC 2 REVIEW:
%s

Critic 2 Suggestions:
%s

Tasks:
1. Evaluate each critic's feedback quality and relevance
2. Assign scores (0.0-1.0) to each critic based on value of their feedback
3. Create a plan for incorporating the most valuable feedback

Respond in this format:
RANKING EXPLANATION:
[Your analysis of both reviews]

CRITIC 1 SCORE: [0.0-1.0]
CRITIC 2 SCORE: [0.0-1.0]

INCORPORATION PLAN:
[Detailed plan for how to improve the code based on the most valuable feedback]`,
		in.Language, in.OriginalPrompt, in.Language, in.Code,
		orPlaceholder(in.Review1), bulleted(in.Suggestions1),
		orPlaceholder(in.Review2), bulleted(in.Suggestions2))
}

// BuildRefinementPrompt constructs the generation prompt for the next
// iteration from the current artifact, the incorporation plan, and both
// reviews. The orchestrator passes the result to Generate.
func BuildRefinementPrompt(code, originalPrompt, language, plan string, reviews []ReviewSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You previously generated this %s code for the request: %s\n\n", language, originalPrompt)
	fmt.Fprintf(&b, "Current Code:\n```%s\n%s\n```\n\n", language, code)
	b.WriteString("Refine the code according to this incorporation plan:\n")
	b.WriteString(plan)
	b.WriteString("\n\nCritic feedback for reference:\n")
	for _, r := range reviews {
		fmt.Fprintf(&b, "\n%s:\n%s\n", r.Critic, r.Text)
		if len(r.Suggestions) > 0 {
			b.WriteString(bulleted(r.Suggestions))
			b.WriteString("\n")
		}
	}
	b.WriteString("\nReturn the full improved code in a fenced code block, with a short explanation of what changed.")
	return b.String()
}

// ReviewSummary is the slice of a review that feeds a refinement prompt.
type ReviewSummary struct {
	Critic      string
	Text        string
	Suggestions []string
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orPlaceholder(review string) string {
	if strings.TrimSpace(review) == "" {
		return "(no review available)"
	}
	return review
}
