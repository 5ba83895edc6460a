// Package tui is the full-screen play surface over the session
// engine, built on Bubble Tea: a scrollback viewport for the
// narrative, a command input, and a loop-clock status bar. It drives
// the same Execute loop as the line-oriented player.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/supernova/internal/session"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates the play surface program. The program uses the
// alternate screen buffer so leaving restores the caller's terminal.
func NewProgram(sess *session.Session, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(New(sess), allOpts...)
}

// Run creates and runs the play surface, blocking until it exits.
func Run(sess *session.Session) error {
	if _, err := NewProgram(sess).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
