package quality

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSuite returns the built-in evaluation cases.
func DefaultSuite() []Case {
	return []Case{
		{
			ID:           "py_factorial",
			Prompt:       "Create a function to calculate the factorial of a number using recursion",
			Language:     "python",
			Requirements: "Include input validation and handle edge cases",
			ExpectedFeatures: []string{
				"recursive function", "input validation", "base case", "error handling",
			},
			MinLines: 10,
			MaxLines: 25,
		},
		{
			ID:           "py_binary_search",
			Prompt:       "Implement a binary search algorithm for a sorted list",
			Language:     "python",
			Requirements: "Return the index of the target element or -1 if not found",
			ExpectedFeatures: []string{
				"binary search", "boundary handling", "return index",
			},
			MinLines: 15,
			MaxLines: 35,
		},
		{
			ID:           "py_bank_account",
			Prompt:       "Create a class for managing a simple bank account with deposit, withdraw, and balance methods",
			Language:     "python",
			Requirements: "Include balance validation and transaction history",
			ExpectedFeatures: []string{
				"class definition", "deposit method", "withdraw method", "balance validation", "transaction history",
			},
			MinLines: 25,
			MaxLines: 60,
		},
		{
			ID:           "js_debounce",
			Prompt:       "Write a debounce function that delays invoking a callback until after a wait period",
			Language:     "javascript",
			Requirements: "Support cancelling a pending invocation",
			ExpectedFeatures: []string{
				"function definition", "timeout handling", "cancel support",
			},
			MinLines: 10,
			MaxLines: 30,
		},
	}
}

// LoadSuite reads evaluation cases from a YAML file.
func LoadSuite(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite %s: %w", path, err)
	}
	var suite struct {
		Cases []Case `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suite %s: %w", path, err)
	}
	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("suite %s defines no cases", path)
	}
	return suite.Cases, nil
}
