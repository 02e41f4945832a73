package models

import "testing"

func TestStatusIsTerminal(t *testing.T) {
	terminal := []GenerationStatus{StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []GenerationStatus{StatusPending, StatusGenerating, StatusReviewing, StatusRefining}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusRefining.Valid() {
		t.Error("refining should be valid")
	}
	if GenerationStatus("bogus").Valid() {
		t.Error("bogus should not be valid")
	}
}

func TestNewSessionClampsMaxIterations(t *testing.T) {
	s := NewSession("req", 0)
	if s.MaxIterations != 1 {
		t.Errorf("MaxIterations = %d, want 1", s.MaxIterations)
	}
	if s.Status != StatusPending {
		t.Errorf("Status = %s, want pending", s.Status)
	}
}

func TestNewRequestDefaults(t *testing.T) {
	r := NewRequest("prompt", "go", "reqs")
	if r.ID == "" {
		t.Error("expected generated id")
	}
	if r.Status != StatusPending {
		t.Errorf("Status = %s, want pending", r.Status)
	}
	if !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Error("CreatedAt and UpdatedAt should match at creation")
	}
}
