package console

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/openfroyo/confsync/pkg/engine"
)

// Palette of the operation symbols and headings.
var (
	ColorCreate  = lipgloss.Color("#2ECC71")
	ColorUpdate  = lipgloss.Color("#F4D03F")
	ColorSkip    = lipgloss.Color("#BDC3C7")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorHeading = lipgloss.Color("#20B9B4")
	ColorMuted   = lipgloss.Color("#7F8C8D")
)

// styles holds the styles of one output stream.
type styles struct {
	enabled bool

	create  lipgloss.Style
	update  lipgloss.Style
	skip    lipgloss.Style
	heading lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer, enabled bool) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		enabled: enabled,
		create:  r.NewStyle().Foreground(ColorCreate).Bold(true),
		update:  r.NewStyle().Foreground(ColorUpdate).Bold(true),
		skip:    r.NewStyle().Foreground(ColorSkip),
		heading: r.NewStyle().Foreground(ColorHeading).Bold(true),
		err:     r.NewStyle().Foreground(ColorError).Bold(true),
		muted:   r.NewStyle().Foreground(ColorMuted),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// operation returns the style of an operation type.
func (s styles) operation(t engine.OperationType) lipgloss.Style {
	switch t {
	case engine.OperationCreate:
		return s.create
	case engine.OperationUpdate, engine.OperationUpdateReference:
		return s.update
	default:
		return s.skip
	}
}

// IsTerminal reports whether w is a terminal. Styling is only applied to
// terminals.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
