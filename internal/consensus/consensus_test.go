package consensus

import "testing"

func TestAnalyzeConflictsAgreement(t *testing.T) {
	a := AnalyzeConflicts(
		"Implements a recursive factorial.",
		"Clean implementation, well done.",
		"Good structure and naming.",
	)
	if len(a.Conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", a.Conflicts)
	}
	if a.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", a.Confidence)
	}
	if a.Strategy != Strategy {
		t.Errorf("strategy = %q", a.Strategy)
	}
}

func TestAnalyzeConflictsOneCritic(t *testing.T) {
	a := AnalyzeConflicts(
		"Iterative approach.",
		"This is incorrect for negative inputs.",
		"Looks fine to me.",
	)
	if len(a.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %v", a.Conflicts)
	}
	if a.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", a.Confidence)
	}
}

func TestAnalyzeConflictsBothCritics(t *testing.T) {
	a := AnalyzeConflicts(
		"Uses a global cache.",
		"I disagree with the caching approach.",
		"However, this leaks memory. Use a bounded cache instead.",
	)
	if len(a.Conflicts) != 2 {
		t.Fatalf("expected two conflicts, got %v", a.Conflicts)
	}
	if a.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", a.Confidence)
	}
	if a.Decision != "significant disagreement, recommend human review" {
		t.Errorf("decision = %q", a.Decision)
	}
}

func TestAnalyzeConflictsCaseInsensitive(t *testing.T) {
	a := AnalyzeConflicts("", "This is WRONG.", "")
	if len(a.Conflicts) != 1 {
		t.Errorf("expected keyword match to be case-insensitive, got %v", a.Conflicts)
	}
}

func TestAnalyzeConflictsEmptyReviews(t *testing.T) {
	a := AnalyzeConflicts("code", "", "")
	if len(a.Conflicts) != 0 || a.Confidence != 0.9 {
		t.Errorf("empty reviews should not conflict: %+v", a)
	}
}
