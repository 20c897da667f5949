package tui

import "github.com/charmbracelet/lipgloss"

// Dracula, matching diff.DefaultStyle.
const (
	red       = lipgloss.Color("#ff5555")
	green     = lipgloss.Color("#50fa7b")
	yellow    = lipgloss.Color("#f1fa8c")
	cyan      = lipgloss.Color("#8be9fd")
	purple    = lipgloss.Color("#bd93f9")
	orange    = lipgloss.Color("#ffb86c")
	comment   = lipgloss.Color("#6272a4")
	fg        = lipgloss.Color("#f8f8f2")
	selection = lipgloss.Color("#44475a")
	panel     = lipgloss.Color("#343746")
)

var (
	base  = lipgloss.NewStyle().Foreground(fg)
	muted = lipgloss.NewStyle().Foreground(comment)
	boxed = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(selection).Padding(0, 1)
)

// Panes.
var (
	planListStyle = boxed
	diffViewStyle = boxed
)

// Plan list: one title per commit, its files below.
var (
	commitTitleStyle      = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	commitSkippedStyle    = muted.Strikethrough(true)
	fileItemStyle         = base
	fileItemSelectedStyle = base.Background(selection).Bold(true)
	fileItemNewStyle      = lipgloss.NewStyle().Foreground(green)
	fileItemDeletedStyle  = lipgloss.NewStyle().Foreground(red)
)

// Commit risk.
var (
	riskHighStyle   = lipgloss.NewStyle().Foreground(orange).Bold(true)
	riskMediumStyle = lipgloss.NewStyle().Foreground(yellow)
	riskLowStyle    = muted
)

// Diff pane.
var (
	lineNumberStyle  = muted.Width(4).Align(lipgloss.Right)
	addedLineStyle   = lipgloss.NewStyle().Foreground(green)
	deletedLineStyle = lipgloss.NewStyle().Foreground(red)
	contextLineStyle = base
	hunkHeaderStyle  = lipgloss.NewStyle().Foreground(purple).Bold(true)
	fileHeaderStyle  = commitTitleStyle.PaddingBottom(1)
	reasoningStyle   = muted.Italic(true)
)

// Status and help bars.
var (
	statusBarStyle  = base.Background(panel).Padding(0, 1)
	statusWarnStyle = lipgloss.NewStyle().Foreground(yellow).Background(panel).Bold(true)
	helpBarStyle    = muted
	helpKeyStyle    = lipgloss.NewStyle().Foreground(yellow)
)
