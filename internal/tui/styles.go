package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/denysmiand/formula"
)

// Styles holds the styles of the editor.
type Styles struct {
	Title      lipgloss.Style
	Number     lipgloss.Style
	Operand    lipgloss.Style
	Paren      lipgloss.Style
	Function   lipgloss.Style
	Variable   lipgloss.Style
	Selected   lipgloss.Style
	Result     lipgloss.Style
	Suggestion lipgloss.Style
	Chosen     lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	chip := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Number:     chip.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("238")),
		Operand:    chip.Foreground(lipgloss.Color("214")),
		Paren:      chip.Foreground(lipgloss.Color("245")),
		Function:   chip.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("61")),
		Variable:   chip.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("29")),
		Selected:   chip.Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220")),
		Result:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Suggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Chosen:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (s Styles) tag(t formula.Tag, selected bool) lipgloss.Style {
	if selected {
		return s.Selected
	}
	switch t.Kind {
	case formula.Number:
		return s.Number
	case formula.Operand:
		return s.Operand
	case formula.Function:
		return s.Function
	case formula.Variable:
		return s.Variable
	default:
		return s.Paren
	}
}
