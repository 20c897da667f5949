// Package tui implements the Bubble Tea plan browser used by
// `stagehand split --interactive`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/model"
)

// Model is the top-level Bubble Tea model for the plan browser.
type Model struct {
	strategy   *boundary.StagingStrategy
	boundaries []boundary.Boundary // staging order; edits happen here
	skipped    map[string]bool
	hl         *diff.Highlighter

	// UI state
	width  int
	height int

	// Selection
	commitIndex int
	fileIndex   int // within the selected commit

	// Diff viewport
	scrollOffset int
	viewHeight   int

	// Rendered lines for the selected file
	lines []renderedLine

	splitView bool
	showHelp  bool
	accepted  bool
	notice    string // result of the last edit, shown in the status bar
}

// New creates a browser over proposed boundaries. A nil highlighter uses
// the default style.
func New(bs []boundary.Boundary, hl *diff.Highlighter) Model {
	if hl == nil {
		hl = diff.NewHighlighter(diff.DefaultStyle)
	}
	m := Model{
		boundaries: append([]boundary.Boundary(nil), bs...),
		skipped:    make(map[string]bool),
		hl:         hl,
	}
	m.restage("")
	return m
}

// restage recomputes the staging strategy and keeps the boundary named
// keep selected.
func (m *Model) restage(keep string) {
	m.strategy = boundary.SuggestStagingStrategy(m.boundaries)
	m.boundaries = m.boundaries[:0]
	for i, c := range m.strategy.Commits {
		m.boundaries = append(m.boundaries, c.Boundary)
		if c.Boundary.ID == keep {
			m.commitIndex = i
		}
	}
	if m.commitIndex >= len(m.boundaries) {
		m.commitIndex = max(0, len(m.boundaries)-1)
	}
	m.updateLines()
}

func (m *Model) current() (model.Change, bool) {
	if m.commitIndex >= len(m.boundaries) {
		return model.Change{}, false
	}
	changes := m.boundaries[m.commitIndex].Changes
	if m.fileIndex >= len(changes) {
		return model.Change{}, false
	}
	return changes[m.fileIndex], true
}

func (m *Model) updateLines() {
	m.scrollOffset = 0
	c, ok := m.current()
	if !ok {
		m.lines = nil
		return
	}
	m.lines = renderChange(c, m.hl)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + borders
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Accept):
			m.accepted = true
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.scrollOffset < len(m.lines)-1 {
				m.scrollOffset++
			}

		case key.Matches(msg, keys.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case key.Matches(msg, keys.NextFile):
			m.stepFile(1)

		case key.Matches(msg, keys.PrevFile):
			m.stepFile(-1)

		case key.Matches(msg, keys.NextCommit):
			if m.commitIndex < len(m.boundaries)-1 {
				m.commitIndex++
				m.fileIndex = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.PrevCommit):
			if m.commitIndex > 0 {
				m.commitIndex--
				m.fileIndex = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.NextHunk):
			m.jumpToNextHunk()

		case key.Matches(msg, keys.PrevHunk):
			m.jumpToPrevHunk()

		case key.Matches(msg, keys.MoveLater):
			m.moveFile(1)

		case key.Matches(msg, keys.MoveEarly):
			m.moveFile(-1)

		case key.Matches(msg, keys.Skip):
			if m.commitIndex < len(m.boundaries) {
				id := m.boundaries[m.commitIndex].ID
				m.skipped[id] = !m.skipped[id]
			}

		case key.Matches(msg, keys.Toggle):
			m.splitView = !m.splitView

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

// stepFile moves the selection through files across commit borders.
func (m *Model) stepFile(delta int) {
	if len(m.boundaries) == 0 {
		return
	}
	ci, fi := m.commitIndex, m.fileIndex+delta
	switch {
	case fi >= len(m.boundaries[ci].Changes):
		if ci == len(m.boundaries)-1 {
			return
		}
		ci, fi = ci+1, 0
	case fi < 0:
		if ci == 0 {
			return
		}
		ci = ci - 1
		fi = len(m.boundaries[ci].Changes) - 1
	}
	m.commitIndex, m.fileIndex = ci, fi
	m.updateLines()
}

// moveFile moves the selected file into the neighbouring commit. A commit
// left without files is dropped.
func (m *Model) moveFile(delta int) {
	target := m.commitIndex + delta
	if target < 0 || target >= len(m.boundaries) {
		m.notice = "no commit to move into"
		return
	}
	c, ok := m.current()
	if !ok {
		return
	}

	src := m.boundaries[m.commitIndex]
	dst := m.boundaries[target]

	rest := make([]model.Change, 0, len(src.Changes)-1)
	rest = append(rest, src.Changes[:m.fileIndex]...)
	rest = append(rest, src.Changes[m.fileIndex+1:]...)
	m.boundaries[target] = dst.WithChanges(append(append([]model.Change(nil), dst.Changes...), c))

	if len(rest) == 0 {
		m.boundaries = append(m.boundaries[:m.commitIndex], m.boundaries[m.commitIndex+1:]...)
		delete(m.skipped, src.ID)
		m.notice = fmt.Sprintf("moved %s to %s; %s is now empty and was removed", c.Path, dst.ID, src.ID)
	} else {
		m.boundaries[m.commitIndex] = src.WithChanges(rest)
		m.notice = fmt.Sprintf("moved %s to %s", c.Path, dst.ID)
	}

	m.restage(dst.ID)
	m.fileIndex = len(m.boundaries[m.commitIndex].Changes) - 1
	m.updateLines()
}

func (m *Model) jumpToNextHunk() {
	for i := m.scrollOffset + 1; i < len(m.lines); i++ {
		if m.lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

func (m *Model) jumpToPrevHunk() {
	for i := m.scrollOffset - 1; i >= 0; i-- {
		if m.lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

// Result returns the accepted plan, or nil if the user quit.
func (m Model) Result() *Result {
	if !m.accepted {
		return nil
	}
	skipped := make(map[string]bool, len(m.skipped))
	for id, s := range m.skipped {
		if s {
			skipped[id] = true
		}
	}
	return &Result{Strategy: m.strategy, Skipped: skipped}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.planListWidth()
	diffWidth := m.width - listWidth - 1 // -1 for gap

	planList := m.renderPlanList(listWidth, m.height-2)
	diffView := m.renderDiffView(diffWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, planList, " ", diffView)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) planListWidth() int {
	maxLen := 24
	for _, b := range m.boundaries {
		for _, c := range b.Changes {
			maxLen = max(maxLen, len(c.Path)+4)
		}
	}
	w := maxLen + 12 // indent, stats and padding
	return max(24, min(w, m.width*2/5))
}

// planLines renders every commit and file row, returning the row of the
// current selection.
func (m Model) planLines(width int) ([]string, int) {
	var rows []string
	selected := 0
	for i, sc := range m.strategy.Commits {
		title := fmt.Sprintf("%d. %s", i+1, sc.Message.Title)
		badge := riskStyle(sc.Risk).Render(fmt.Sprintf("[%s]", sc.Risk))
		titleStyle := commitTitleStyle
		if m.skipped[sc.Boundary.ID] {
			titleStyle = commitSkippedStyle
		}
		rows = append(rows, titleStyle.Render(truncate(title, width-lipgloss.Width(badge)-1))+" "+badge)

		for j, c := range sc.Boundary.Changes {
			isSel := i == m.commitIndex && j == m.fileIndex
			if isSel {
				selected = len(rows)
			}
			stats := fmt.Sprintf("+%d -%d", c.Insertions, c.Deletions)
			maxName := max(1, width-len(stats)-5)
			name := c.Path
			if len(name) > maxName {
				name = "…" + name[len(name)-maxName+1:]
			}
			line := fmt.Sprintf("  %s %-*s %s", c.Kind.Status(), maxName, name, stats)
			rows = append(rows, fileStyle(c, isSel).Render(line))
		}
	}
	return rows, selected
}

func (m Model) renderPlanList(width, height int) string {
	innerHeight := height - 2 // borders
	rows, selected := m.planLines(width - 4)

	// Keep the selection visible.
	start := 0
	if selected >= innerHeight {
		start = selected - innerHeight + 1
	}
	end := min(len(rows), start+innerHeight)

	content := strings.Join(rows[start:end], "\n")
	return planListStyle.Width(width).Height(innerHeight).Render(content)
}

func (m Model) renderDiffView(width, height int) string {
	innerHeight := height - 2
	c, ok := m.current()
	if !ok {
		return diffViewStyle.Width(width).Height(innerHeight).Render("No changes")
	}

	innerWidth := width - 4 // borders + padding
	b := m.boundaries[m.commitIndex]

	var sb strings.Builder
	sb.WriteString(fileHeaderStyle.Render(c.Path))
	sb.WriteByte('\n')
	sb.WriteString(reasoningStyle.Render(truncate(b.Reasoning, innerWidth)))
	sb.WriteByte('\n')

	visibleLines := max(1, innerHeight-4) // header, padding, reasoning
	end := min(len(m.lines), m.scrollOffset+visibleLines)

	halfWidth := (innerWidth - 3) / 2 // -3 for separator
	for i := m.scrollOffset; i < end; i++ {
		if m.splitView {
			left, right := styleLineSplit(m.lines[i], halfWidth)
			sb.WriteString(left)
			sb.WriteString(" │ ")
			sb.WriteString(right)
		} else {
			sb.WriteString(styleLine(m.lines[i], innerWidth))
		}
		if i < end-1 {
			sb.WriteByte('\n')
		}
	}

	return diffViewStyle.Width(width).Height(innerHeight).Render(sb.String())
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" Commit %d/%d", min(m.commitIndex+1, len(m.boundaries)), len(m.boundaries))
	if len(m.boundaries) > 0 {
		left += fmt.Sprintf("  File %d/%d", m.fileIndex+1, len(m.boundaries[m.commitIndex].Changes))
	}
	if len(m.lines) > 0 {
		left += fmt.Sprintf("  Line %d/%d", m.scrollOffset+1, len(m.lines))
	}
	if m.notice != "" {
		left += "  " + statusWarnStyle.Render(m.notice)
	} else if n := len(m.strategy.Warnings); n > 0 {
		left += "  " + statusWarnStyle.Render(fmt.Sprintf("%d warning(s)", n))
	}

	view := "unified"
	if m.splitView {
		view = "split"
	}
	right := fmt.Sprintf("%s, %s risk  %s  ? help ", m.strategy.Mode, m.strategy.OverallRisk, view)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("stagehand: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, binding := range []key.Binding{
		keys.Up, keys.Down, keys.NextFile, keys.PrevFile, keys.NextHunk, keys.PrevHunk,
		keys.NextCommit, keys.PrevCommit, keys.MoveLater, keys.MoveEarly, keys.Skip,
		keys.Toggle, keys.Help, keys.Accept, keys.Quit,
	} {
		h := binding.Help()
		fmt.Fprintf(&b, "  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc)
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}

// Run starts the plan browser and returns the accepted plan, or nil if the
// user quit without accepting.
func Run(bs []boundary.Boundary, hl *diff.Highlighter) (*Result, error) {
	p := tea.NewProgram(New(bs, hl), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result(), nil
}
