package internal

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateRunID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	id := generateRunID("/games/my_vn", now)
	if !regexp.MustCompile(`^1700000000123_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("unexpected run ID format: %s", id)
	}

	other := generateRunID("/games/other_vn", now)
	if id == other {
		t.Errorf("expected different IDs for different roots, both were %s", id)
	}

	if got := generateRunID("/games/my_vn", now); got != id {
		t.Errorf("expected stable ID for same root and time, got %s and %s", id, got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"french", "french"},
		{"pt_BR", "pt_BR"},
		{"my game/tl", "my_game_tl"},
		{"español", "espa_ol"},
		{"a:b*c", "a_b_c"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
