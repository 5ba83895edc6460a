package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings active on the play surface. Everything
// else a key press produces flows into the command input.
type KeyMap struct {
	Submit     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Leave      key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run command"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "scroll down"),
		),
		// Leave only acts once the session has concluded; during play
		// esc is swallowed so a reflex doesn't drop the loop.
		Leave: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "leave"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
