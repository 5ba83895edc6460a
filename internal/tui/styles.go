package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // cyan: prompt echo and accents
	colorAccent  = lipgloss.Color("#FFD700") // gold: the supernova warning
	colorDanger  = lipgloss.Color("#FF5252") // red: deaths and resets
	colorMuted   = lipgloss.Color("#636363") // gray: chrome
	colorWhite   = lipgloss.Color("#EEEEEE") // off-white: narrative text
	colorSurface = lipgloss.Color("#1E1E2E") // status bar background
)

// Status bar styles: solid background, one line, full width.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusWarn = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
)

// Scrollback block styles.
var (
	styleEcho = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleNarrative = lipgloss.NewStyle().
			Foreground(colorWhite)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleDanger = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted)
)
