package main

import (
	"testing"

	"github.com/wricardo/connect4-rooms/bot"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"greedy", false},
		{"first", false},
		{"minimax", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseStrategy(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s == nil {
				t.Fatal("Expected a strategy")
			}
		})
	}

	if _, ok := mustStrategy(t, "greedy").(bot.Greedy); !ok {
		t.Error("Expected greedy to map to bot.Greedy")
	}
}

func mustStrategy(t *testing.T, name string) bot.Strategy {
	t.Helper()
	s, err := parseStrategy(name)
	if err != nil {
		t.Fatalf("parseStrategy(%q) failed: %v", name, err)
	}
	return s
}
