package quality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const goodPython = `def factorial(n):
    """Compute n! recursively."""
    if not isinstance(n, int):
        raise TypeError("n must be an integer")
    if n < 0:
        raise ValueError("n must be non-negative")
    if n <= 1:
        return 1
    return n * factorial(n - 1)
`

func TestEvaluateGoodPython(t *testing.T) {
	e := NewEvaluator()
	m := e.Evaluate(goodPython, Case{
		Prompt:           "Create a function to calculate the factorial of a number, return the result",
		Language:         "python",
		ExpectedFeatures: []string{"factorial", "raise validation"},
		MinLines:         5,
		MaxLines:         20,
	})

	require.Equal(t, 1.0, m.Functionality)
	require.Equal(t, 1.0, m.ErrorHandling)
	require.Equal(t, 1.0, m.Documentation)
	require.Equal(t, 1.0, m.Efficiency)
	require.Greater(t, m.Overall, 0.8)
}

func TestEvaluateEmptyCode(t *testing.T) {
	e := NewEvaluator()
	m := e.Evaluate("   ", Case{Prompt: "write a function", Language: "python"})
	require.Equal(t, 0.0, m.Functionality)
}

func TestEvaluateMissingErrorHandling(t *testing.T) {
	e := NewEvaluator()
	m := e.Evaluate("def f():\n    return 1\n", Case{Prompt: "function", Language: "python"})
	require.Equal(t, 0.0, m.ErrorHandling)
}

func TestEvaluateUnknownLanguageFallsBack(t *testing.T) {
	e := NewEvaluator()
	require.False(t, e.Supports("cobol"))
	m := e.Evaluate("def f(): pass", Case{Prompt: "write a function", Language: "cobol"})
	require.Equal(t, 1.0, m.Functionality)
}

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightFunctionality + WeightCodeQuality + WeightCompleteness +
		WeightEfficiency + WeightErrorHandling + WeightDocumentation
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestDefaultSuite(t *testing.T) {
	cases := DefaultSuite()
	require.NotEmpty(t, cases)
	seen := map[string]bool{}
	for _, c := range cases {
		require.NotEmpty(t, c.ID)
		require.NotEmpty(t, c.Prompt)
		require.False(t, seen[c.ID], "duplicate case id %s", c.ID)
		seen[c.ID] = true
	}
}
