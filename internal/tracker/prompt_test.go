package tracker

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalPrompterReadsSequentialAnswers(t *testing.T) {
	// Piped input arrives all at once; every answer after the first must
	// survive the prompter's internal buffering.
	var out bytes.Buffer
	p := &TerminalPrompter{
		In:  strings.NewReader("y\nn\nyes\n"),
		Out: &out,
	}

	want := []bool{true, false, true}
	for i, w := range want {
		if got := p.Confirm("keep going?"); got != w {
			t.Errorf("Confirm() call %d = %v, want %v", i+1, got, w)
		}
	}

	// Input exhausted: default to no.
	if p.Confirm("one more?") {
		t.Error("Confirm() after EOF = true, want false")
	}
	if !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("prompt output = %q, want y/N marker", out.String())
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten chars!", 18, "exactly ten chars!"},
		{"a much longer title than allowed", 10, "a much ..."},
		{"Hénault-Brunet cluster dynamics ééé", 10, "Hénault..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
