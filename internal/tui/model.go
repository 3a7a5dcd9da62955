// Package tui is the interactive terminal front end of the formula editor.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/denysmiand/formula"
)

// Suggestions is the display side of a suggestion lookup.
type Suggestions interface {
	Current() (string, []formula.Suggestion)
	Pending() bool
}

// SuggestionsMsg tells the model that suggestions for a term have arrived.
type SuggestionsMsg struct {
	Term string
}

// Model is the bubbletea model of the editor.
type Model struct {
	editor   *formula.Editor
	sugg     Suggestions
	input    textinput.Model
	mults    []int64
	eval     []formula.EvalOption
	styles   Styles
	width    int
	quitting bool

	// selected is the index of the selected tag, or -1.
	selected int
	// choice is the index of the highlighted suggestion.
	choice int
}

// New creates a model over an editor. sugg may be nil if there is no
// suggestion lookup. mults are the multipliers bound to alt+1 through alt+9.
func New(editor *formula.Editor, sugg Suggestions, mults []int64, opts ...formula.EvalOption) Model {
	in := textinput.New()
	in.Placeholder = "number, operator, or search..."
	in.CharLimit = 64
	in.Width = 40
	in.Prompt = "› "
	in.Focus()
	return Model{
		editor:   editor,
		sugg:     sugg,
		input:    in,
		mults:    mults,
		eval:     opts,
		styles:   DefaultStyles(),
		selected: -1,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 12 {
			m.input.Width = msg.Width - 4
		}
		return m, nil
	case SuggestionsMsg:
		// The view reads the suggestions itself; just redraw.
		m.choice = 0
		return m, nil
	case tea.KeyMsg:
		return m.key(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		m.editor.Accept()
		m.sync()
		return m, nil
	case "tab":
		if s, ok := m.highlighted(); ok {
			m.editor.AcceptSuggestion(s)
			m.choice = 0
			m.sync()
		}
		return m, nil
	case "up":
		if m.choice > 0 {
			m.choice--
		}
		return m, nil
	case "down":
		if _, list := m.suggestions(); m.choice < len(list)-1 {
			m.choice++
		}
		return m, nil
	case "shift+left":
		m.move(-1)
		return m, nil
	case "shift+right":
		m.move(1)
		return m, nil
	case "ctrl+x":
		if t, ok := m.selectedTag(); ok {
			m.editor.Remove(t.ID)
			m.clampSelection()
		}
		return m, nil
	case "ctrl+l":
		m.editor.Clear()
		m.selected = -1
		m.sync()
		return m, nil
	case "backspace":
		if m.input.Value() == "" {
			m.editor.Backspace()
			m.clampSelection()
			return m, nil
		}
	}
	if k := multiplierKey(msg.String()); k > 0 {
		if t, ok := m.selectedTag(); ok && k <= len(m.mults) {
			m.editor.Multiply(t.ID, m.mults[k-1])
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.editor.Change(v)
		m.choice = 0
		m.sync()
	}
	return m, cmd
}

// sync makes the text input show the store's buffer, which the editor may
// have cleared.
func (m *Model) sync() {
	if b := m.editor.Snapshot().Buffer; b != m.input.Value() {
		m.input.SetValue(b)
		m.input.CursorEnd()
	}
}

func (m *Model) move(d int) {
	n := len(m.editor.Snapshot().Tags)
	if n == 0 {
		m.selected = -1
		return
	}
	switch {
	case m.selected < 0 && d < 0:
		m.selected = n - 1
	case m.selected < 0:
		m.selected = 0
	default:
		m.selected += d
	}
	if m.selected < 0 || m.selected >= n {
		m.selected = -1
	}
}

func (m *Model) clampSelection() {
	if n := len(m.editor.Snapshot().Tags); m.selected >= n {
		m.selected = n - 1
	}
}

func (m Model) selectedTag() (formula.Tag, bool) {
	tags := m.editor.Snapshot().Tags
	if m.selected < 0 || m.selected >= len(tags) {
		return formula.Tag{}, false
	}
	return tags[m.selected], true
}

func (m Model) suggestions() (string, []formula.Suggestion) {
	if m.sugg == nil {
		return "", nil
	}
	term, list := m.sugg.Current()
	if term == "" || term != m.editor.Snapshot().Buffer {
		return term, nil
	}
	return term, list
}

func (m Model) highlighted() (formula.Suggestion, bool) {
	_, list := m.suggestions()
	if m.choice < 0 || m.choice >= len(list) {
		return formula.Suggestion{}, false
	}
	return list[m.choice], true
}

// multiplierKey returns k for alt+k with k in 1 through 9, or 0.
func multiplierKey(s string) int {
	if len(s) != 5 || !strings.HasPrefix(s, "alt+") {
		return 0
	}
	c := s[4]
	if c < '1' || c > '9' {
		return 0
	}
	return int(c - '0')
}

// View renders the editor.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.editor.Snapshot()
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("formula"))
	b.WriteString("\n\n")
	if len(snap.Tags) == 0 {
		b.WriteString(m.styles.Help.Render("(empty)"))
	}
	for i, t := range snap.Tags {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.styles.tag(t, i == m.selected).Render(label(t)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Result.Render("= " + formula.FormatValue(formula.Evaluate(snap.Tags, m.eval...))))
	b.WriteString("\n")

	term, list := m.suggestions()
	switch {
	case m.sugg != nil && term != "" && m.sugg.Pending() && len(list) == 0:
		b.WriteString(m.styles.Help.Render("looking up " + term + "..."))
		b.WriteString("\n")
	case len(list) > 0:
		for i, s := range list {
			line := fmt.Sprintf("%s  %s  %s", s.Name, s.Category, string(s.Value))
			if i == m.choice {
				b.WriteString(m.styles.Chosen.Render("▸ " + line))
			} else {
				b.WriteString(m.styles.Suggestion.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(help(m.mults)))
	return b.String()
}

// label is the display text of a tag. Tags whose value is not obvious from
// their text show it.
func label(t formula.Tag) string {
	switch {
	case t.Kind == formula.Number:
		if r := formula.Reading(t.Text); r != nil && t.Value != nil && r.Cmp(t.Value) != 0 {
			return t.Text + " (" + formula.FormatValue(t.Value) + ")"
		}
		return t.Text
	case t.Kind.Valued():
		return t.Text + " = " + formula.FormatValue(t.Value)
	default:
		return t.Text
	}
}

func help(mults []int64) string {
	var b strings.Builder
	b.WriteString("enter commit • tab take suggestion • ↑/↓ choose • shift+←/→ select tag • ctrl+x remove • ctrl+l clear")
	for i, k := range mults {
		fmt.Fprintf(&b, " • alt+%d ×%d", i+1, k)
	}
	b.WriteString(" • esc quit")
	return b.String()
}
