package main

import "testing"

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	if err != nil {
		t.Fatalf("parseID failed: %v", err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}

	if _, err := parseID("not-a-number"); err == nil {
		t.Error("expected an error for a non-numeric id")
	}

	if _, err := parseID(""); err == nil {
		t.Error("expected an error for an empty id")
	}
}
