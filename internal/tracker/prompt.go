package tracker

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter is the human-in-the-loop capability used for deep-check review
// and stale-publication removal. Confirm blocks until the user answers.
type Prompter interface {
	// Confirm asks a yes/no question and returns the answer.
	Confirm(prompt string) bool
	// Interactive reports whether a human is actually answering. When
	// false the reconciler skips prompts entirely and keeps existing data.
	Interactive() bool
}

// TerminalPrompter asks yes/no questions on a terminal. The default answer
// is always no.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	// One reader for the lifetime of the prompter. Rebuilding it per call
	// would lose input buffered past the first answer line.
	reader *bufio.Reader
}

// Confirm prints the prompt and reads a y/n answer.
func (p *TerminalPrompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.Out, "%s [y/N]: ", prompt)

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes"
}

// Interactive always returns true for a terminal prompter.
func (p *TerminalPrompter) Interactive() bool {
	return true
}

// NonInteractivePrompter is used when no human is available. Every
// decision falls back to the safe default: keep existing data, do not add
// uncertain candidates.
type NonInteractivePrompter struct{}

// Confirm always returns false.
func (NonInteractivePrompter) Confirm(string) bool { return false }

// Interactive always returns false.
func (NonInteractivePrompter) Interactive() bool { return false }

// ScriptedPrompter answers from a fixed list, for deterministic tests.
// Once the answers run out it returns false.
type ScriptedPrompter struct {
	Answers []bool
	Asked   []string
	next    int
}

func (p *ScriptedPrompter) Confirm(prompt string) bool {
	p.Asked = append(p.Asked, prompt)
	if p.next >= len(p.Answers) {
		return false
	}
	answer := p.Answers[p.next]
	p.next++
	return answer
}

func (p *ScriptedPrompter) Interactive() bool { return true }
