package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/supernova/internal/session"
)

// chromeLines is the vertical space the status bar, the input line,
// and the footer take away from the viewport.
const chromeLines = 4

// Model is the root BubbleTea model for the play surface.
type Model struct {
	sess *session.Session
	keys KeyMap

	input    textinput.Model
	viewport viewport.Model

	scrollback []string
	width      int
	height     int
	ready      bool
	ended      bool
}

// New builds the play surface over a running session.
func New(sess *session.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "explore, go <location>, read <entry>, help..."
	ti.Prompt = "> "
	ti.CharLimit = 120
	ti.Focus()

	return Model{
		sess:  sess,
		keys:  DefaultKeyMap(),
		input: ti,
	}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update routes key presses to the session and resizes to the viewport.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Leave):
			if m.ended {
				return m, tea.Quit
			}
			// During play the key belongs to the input.

		case key.Matches(msg, m.keys.Submit):
			if m.ended {
				return m, tea.Quit
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			m.runCommand(line)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - chromeLines
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
			if len(m.scrollback) == 0 {
				m.push(styleNarrative.Render(m.opening()))
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.syncViewport()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// runCommand executes one line synchronously. The session engine is
// in-memory, so there is nothing to defer to a tea.Cmd.
func (m *Model) runCommand(line string) {
	m.push(styleEcho.Render("> " + line))

	res, err := m.sess.Execute(context.Background(), line)
	if err != nil {
		m.push(styleError.Render("✗ " + err.Error()))
	}
	if res.Output != "" {
		switch {
		case res.Reset:
			m.push(styleDanger.Render(res.Output))
		case res.Warning:
			m.push(styleWarning.Render(res.Output))
		default:
			m.push(styleNarrative.Render(res.Output))
		}
	}
	if res.Ended {
		m.ended = true
		m.input.Blur()
	}
	m.syncViewport()
}

func (m *Model) push(block string) {
	m.scrollback = append(m.scrollback, block)
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.scrollback, "\n\n") + "\n")
	m.viewport.GotoBottom()
}

// opening is the first scrollback block: where the player is and what
// the log already holds when resuming.
func (m *Model) opening() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.sess.World().Manifest.Title)
	fmt.Fprintf(&b, "You wake at %s.", m.sess.LocationName())
	if n := m.sess.Log().Count(); n > 0 {
		fmt.Fprintf(&b, " The ship's log holds %d entries from before.", n)
	} else {
		b.WriteString(" The ship's log is empty.")
	}
	return b.String()
}

// View stacks the status bar, scrollback viewport, input line, and footer.
func (m Model) View() string {
	if !m.ready {
		return "\n  waking up..."
	}
	footer := styleFooter.Render("enter run · pgup/pgdn scroll · ctrl+c quit")
	if m.ended {
		footer = styleFooter.Render("the loop is over · esc to leave")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusView(),
		m.viewport.View(),
		m.input.View(),
		footer,
	)
}

// statusView renders the loop clock line. The final stretch of a loop
// turns it gold.
func (m Model) statusView() string {
	style := styleStatusBar
	if m.sess.WarningActive() && !m.ended {
		style = styleStatusWarn
	}

	ship := "ship locked"
	if m.sess.Log().ShipUnlocked() {
		ship = "ship authorized"
	}
	line := fmt.Sprintf("loop %d · action %d/%d · %s · %s",
		m.sess.Loop(), m.sess.Counter(), m.sess.Threshold(), m.sess.LocationName(), ship)
	if m.ended {
		line = fmt.Sprintf("loop %d · session over · %s", m.sess.Loop(), m.sess.LocationName())
	}
	return style.Width(m.width).Render(line)
}
