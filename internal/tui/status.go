package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusLine is the notification sink shared by the controllers, the
// action-state store and the model. It is only touched on the event loop.
type StatusLine struct {
	text  string
	isErr bool
	seq   int
}

func NewStatusLine() *StatusLine {
	return &StatusLine{}
}

func (s *StatusLine) Success(msg string) {
	s.text = msg
	s.isErr = false
	s.seq++
}

func (s *StatusLine) Error(msg string) {
	s.text = msg
	s.isErr = true
	s.seq++
}

func (s *StatusLine) Text() string { return s.text }

func (s *StatusLine) IsError() bool { return s.isErr }

func (s *StatusLine) clear(seq int) {
	if seq == s.seq {
		s.text = ""
		s.isErr = false
	}
}

type clearStatusMsg struct {
	id int
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
