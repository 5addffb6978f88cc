package main

import (
	"testing"

	"github.com/lox/cardselfplay/internal/tournament"
)

func TestParseDims(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"default", false},
		{"medium", false},
		{"small", false},
		{"huge", true},
	}
	for _, c := range cases {
		_, err := parseDims(c.name)
		if c.wantErr && err == nil {
			t.Errorf("parseDims(%q): expected error, got nil", c.name)
		}
		if !c.wantErr && err != nil {
			t.Errorf("parseDims(%q): unexpected error %v", c.name, err)
		}
	}
}

func TestBestIndexPicksHighestWinRate(t *testing.T) {
	matrix := [][]tournament.WinStats{
		{{}, {P1: 10, P2: 90}},
		{{P1: 90, P2: 10}, {}},
	}
	if got := bestIndex(matrix, 2); got != 1 {
		t.Fatalf("bestIndex = %d, want 1", got)
	}
}
