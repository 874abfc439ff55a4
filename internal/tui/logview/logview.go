// Package logview is an interactive viewer for day-partitioned log files.
//
// Each log file is a tab. Records are listed oldest first with their first
// line only; enter expands a record to its full message. "/" filters the
// records of the current file by a case-insensitive substring.
package logview

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/daylog/internal/errors"
	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/Iron-Ham/daylog/internal/tui/styles"
	"github.com/Iron-Ham/daylog/internal/util"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// chromeLines is the number of lines around the record list:
	// header, tabs, blank line, search/filter line, status line and help bar.
	chromeLines = 6
	// minMessageWidth keeps messages readable on narrow terminals.
	minMessageWidth = 10
	timeLayout      = "15:04:05.000"
)

type filesLoadedMsg struct {
	files []logging.LogFile
	err   error
}

type recordsLoadedMsg struct {
	file    logging.LogFile
	records []logging.Record
	err     error
}

// Model is the Bubbletea model for the log viewer
type Model struct {
	store  *logging.Store
	styles styles.Set

	files     []logging.LogFile
	fileIndex int

	records  []logging.Record
	visible  []int        // indexes into records matching the search
	expanded map[int]bool // keyed by index into records
	cursor   int          // index into visible
	offset   int          // first entry of visible on screen

	searching bool
	search    textinput.Model
	query     string

	width    int
	height   int
	errorMsg string
	infoMsg  string
	quitting bool
}

// New creates a viewer for the files in store.
func New(store *logging.Store, st styles.Set) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search messages"
	ti.CharLimit = 200
	ti.Width = 40

	return Model{
		store:    store,
		styles:   st,
		search:   ti,
		expanded: make(map[int]bool),
	}
}

func (m Model) Init() tea.Cmd {
	return loadFiles(m.store)
}

func loadFiles(store *logging.Store) tea.Cmd {
	return func() tea.Msg {
		files, err := store.List()
		return filesLoadedMsg{files: files, err: err}
	}
}

func loadRecords(store *logging.Store, file logging.LogFile) tea.Cmd {
	return func() tea.Msg {
		records, err := store.Read(file)
		return recordsLoadedMsg{file: file, records: records, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case filesLoadedMsg:
		return m.handleFilesLoaded(msg)

	case recordsLoadedMsg:
		m.handleRecordsLoaded(msg)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeypress(msg)
		}

		// Clear messages on any key
		m.errorMsg = ""
		m.infoMsg = ""

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			m.moveCursor(-1)

		case "down", "j":
			m.moveCursor(1)

		case "pgup", "ctrl+u":
			m.moveCursor(-m.listHeight())

		case "pgdown", "ctrl+d":
			m.moveCursor(m.listHeight())

		case "g", "home":
			m.moveCursor(-len(m.visible))

		case "G", "end":
			m.moveCursor(len(m.visible))

		case "enter", " ":
			m.toggleExpanded()

		case "tab", "right", "l":
			cmd := m.switchFile(1)
			return m, cmd

		case "shift+tab", "left", "h":
			cmd := m.switchFile(-1)
			return m, cmd

		case "/":
			m.searching = true
			m.search.SetValue(m.query)
			m.search.CursorEnd()
			cmd := m.search.Focus()
			return m, cmd

		case "esc":
			if m.query != "" {
				m.setQuery("")
			}

		case "r":
			return m, loadFiles(m.store)
		}
	}

	return m, nil
}

func (m Model) handleSearchKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil

	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.setQuery("")
		return m, nil

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query {
		m.setQuery(m.search.Value())
	}
	return m, cmd
}

func (m Model) handleFilesLoaded(msg filesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errorMsg = msg.err.Error()
		return m, nil
	}

	var current string
	if m.fileIndex < len(m.files) {
		current = m.files[m.fileIndex].Path
	}

	m.files = msg.files
	m.fileIndex = 0
	for i, f := range m.files {
		if f.Path == current {
			m.fileIndex = i
			break
		}
	}

	if len(m.files) == 0 {
		m.setRecords(nil)
		return m, nil
	}
	return m, loadRecords(m.store, m.files[m.fileIndex])
}

func (m *Model) handleRecordsLoaded(msg recordsLoadedMsg) {
	// A reply for a file that is no longer selected is stale.
	if f, ok := m.currentFile(); !ok || f.Path != msg.file.Path {
		return
	}

	m.setRecords(msg.records)

	if msg.err != nil {
		var corrupt *errors.CorruptFileError
		if errors.As(msg.err, &corrupt) {
			m.errorMsg = fmt.Sprintf("%s is corrupt at line %d and was removed", msg.file.Name(), corrupt.Line)
		} else {
			m.errorMsg = msg.err.Error()
		}
	}
}

func (m *Model) setRecords(records []logging.Record) {
	m.records = records
	m.expanded = make(map[int]bool)
	m.applySearch()
	m.cursor = len(m.visible) - 1
	m.offset = 0
	m.clampCursor()
	m.ensureVisible()
}

func (m *Model) setQuery(query string) {
	m.query = query
	m.applySearch()
	m.cursor = len(m.visible) - 1
	m.offset = 0
	m.clampCursor()
	m.ensureVisible()
}

// applySearch recomputes the records matching the query.
func (m *Model) applySearch() {
	visible := make([]int, 0, len(m.records))
	needle := strings.ToLower(m.query)
	for i, rec := range m.records {
		if needle == "" ||
			strings.Contains(strings.ToLower(rec.Message), needle) ||
			strings.Contains(strings.ToLower(rec.Severity.String()), needle) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
}

func (m *Model) switchFile(delta int) tea.Cmd {
	if len(m.files) < 2 {
		return nil
	}
	n := len(m.files)
	m.fileIndex = ((m.fileIndex+delta)%n + n) % n
	m.setRecords(nil)
	return loadRecords(m.store, m.files[m.fileIndex])
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.ensureVisible()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) toggleExpanded() {
	idx, ok := m.selectedIndex()
	if !ok {
		return
	}
	if m.expanded[idx] {
		delete(m.expanded, idx)
	} else {
		m.expanded[idx] = true
	}
	m.ensureVisible()
}

// ensureVisible scrolls so that the whole selected record is on screen.
func (m *Model) ensureVisible() {
	if len(m.visible) == 0 || m.width == 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}

	height := m.listHeight()
	for m.offset < m.cursor {
		used := 0
		for i := m.offset; i <= m.cursor; i++ {
			used += len(m.recordLines(m.visible[i], false))
		}
		if used <= height {
			break
		}
		m.offset++
	}
}

func (m Model) listHeight() int {
	if h := m.height - chromeLines; h > 1 {
		return h
	}
	return 1
}

func (m Model) currentFile() (logging.LogFile, bool) {
	if m.fileIndex < 0 || m.fileIndex >= len(m.files) {
		return logging.LogFile{}, false
	}
	return m.files[m.fileIndex], true
}

func (m Model) selectedIndex() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0, false
	}
	return m.visible[m.cursor], true
}

// Selected returns the record under the cursor.
func (m Model) Selected() (logging.Record, bool) {
	idx, ok := m.selectedIndex()
	if !ok {
		return logging.Record{}, false
	}
	return m.records[idx], true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Header
	b.WriteString(m.styles.Header.Render("daylog"))
	b.WriteString(" ")
	b.WriteString(m.styles.Muted.Render(m.store.Dir()))
	b.WriteString("\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	b.WriteString(m.renderList())
	b.WriteString("\n")

	// Search or active filter
	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.query != "":
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("filter: %q (%d of %d)", m.query, len(m.visible), len(m.records))))
	}
	b.WriteString("\n")

	// Error/Info messages
	if m.errorMsg != "" {
		b.WriteString(m.styles.ErrorMsg.Render("Error: " + m.errorMsg))
	} else if m.infoMsg != "" {
		b.WriteString(m.styles.Muted.Render(m.infoMsg))
	}
	b.WriteString("\n")

	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderTabs() string {
	if len(m.files) == 0 {
		return m.styles.Muted.Render("No log files in " + m.store.Dir())
	}

	tabs := make([]string, len(m.files))
	for i, f := range m.files {
		if i == m.fileIndex {
			tabs[i] = m.styles.TabActive.Render(f.Name())
		} else {
			tabs[i] = m.styles.TabInactive.Render(f.Name())
		}
	}

	// Drop leading tabs until the active one fits.
	start := 0
	for start < m.fileIndex && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, tabs[start:m.fileIndex+1]...)) > m.width {
		start++
	}
	return util.TruncateANSI(lipgloss.JoinHorizontal(lipgloss.Top, tabs[start:]...), m.width)
}

func (m Model) renderList() string {
	if len(m.files) == 0 {
		return ""
	}
	if len(m.visible) == 0 {
		if m.query != "" {
			return m.styles.Muted.Render(fmt.Sprintf("No records match %q", m.query))
		}
		return m.styles.Muted.Render("No records")
	}

	height := m.listHeight()
	lines := make([]string, 0, height)
	for i := m.offset; i < len(m.visible) && len(lines) < height; i++ {
		for _, line := range m.recordLines(m.visible[i], i == m.cursor) {
			if len(lines) == height {
				break
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// recordLines renders records[idx]: one line, or the whole message when
// the record is expanded.
func (m Model) recordLines(idx int, selected bool) []string {
	rec := m.records[idx]

	prefix := "  "
	if selected {
		prefix = m.styles.Cursor.Render(">") + " "
	}
	head := prefix +
		m.styles.Muted.Render(rec.Time().Format(timeLayout)) + " " +
		m.styles.Severity(rec.Severity).Render(fmt.Sprintf("%-7s", rec.Severity)) + " "

	avail := m.width - lipgloss.Width(head)
	if avail < minMessageWidth {
		avail = minMessageWidth
	}

	if !m.expanded[idx] {
		return []string{head + util.Summary(rec.Message, avail)}
	}

	indent := strings.Repeat(" ", lipgloss.Width(head))
	wrapped := strings.Split(lipgloss.NewStyle().Width(avail).Render(rec.Message), "\n")
	lines := make([]string, 0, len(wrapped)+1)
	lines = append(lines, head+strings.TrimRight(wrapped[0], " "))
	for _, w := range wrapped[1:] {
		lines = append(lines, indent+strings.TrimRight(w, " "))
	}
	if rec.AppVersion != "" {
		lines = append(lines, indent+m.styles.Muted.Render("version "+rec.AppVersion))
	}
	return lines
}

func (m Model) renderHelp() string {
	keyStyle := m.styles.HelpKey

	if m.searching {
		return m.styles.Help.Render(
			keyStyle.Render("enter") + " keep filter  " +
				keyStyle.Render("esc") + " clear",
		)
	}

	return m.styles.Help.Render(
		keyStyle.Render("j/k") + " navigate  " +
			keyStyle.Render("tab") + " next file  " +
			keyStyle.Render("enter") + " expand  " +
			keyStyle.Render("/") + " search  " +
			keyStyle.Render("r") + " reload  " +
			keyStyle.Render("q") + " quit",
	)
}

// Run starts the interactive log viewer
func Run(store *logging.Store, st styles.Set) error {
	p := tea.NewProgram(New(store, st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
