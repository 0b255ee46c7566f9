// Package app holds the frontend's single application state and the actions
// that mutate it.
package app

import (
	"strings"
	"sync"
)

// Snapshot is a consistent copy of State for display.
type Snapshot struct {
	Prompt    string
	Diagram   string
	Loading   bool
	Err       string
	Recording bool
	Status    string
}

// State is owned by the top-level controller; every component reads and
// writes through it. Loading is a counter so overlapping actions do not clear
// each other's flag.
type State struct {
	mu        sync.Mutex
	prompt    string
	diagram   string
	loading   int
	lastErr   string
	recording bool
	status    string
}

func NewState(prompt, diagram string) *State {
	return &State{prompt: prompt, diagram: diagram}
}

func (s *State) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *State) SetPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

// AppendPrompt adds transcribed text to the prompt, space-joined when the
// prompt already has content, and returns the new prompt.
func (s *State) AppendPrompt(text string) string {
	text = strings.TrimSpace(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case text == "":
	case strings.TrimSpace(s.prompt) == "":
		s.prompt = text
	default:
		s.prompt = strings.TrimRight(s.prompt, " ") + " " + text
	}
	return s.prompt
}

func (s *State) Diagram() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diagram
}

func (s *State) SetDiagram(text string) {
	s.mu.Lock()
	s.diagram = text
	s.mu.Unlock()
}

func (s *State) BeginLoading() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *State) EndLoading() {
	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	s.mu.Unlock()
}

func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// SetError records a user-visible error; nil clears it.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.lastErr = ""
		return
	}
	s.lastErr = err.Error()
}

func (s *State) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *State) SetRecording(on bool) {
	s.mu.Lock()
	s.recording = on
	s.mu.Unlock()
}

func (s *State) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Prompt:    s.prompt,
		Diagram:   s.diagram,
		Loading:   s.loading > 0,
		Err:       s.lastErr,
		Recording: s.recording,
		Status:    s.status,
	}
}
