package report

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	readyStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	warnMark  = "[??]"
	selMark   = "*"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func plain(s string) string { return s }

// palette is the set of styles used by one render.
type palette struct {
	color bool

	title, section, ready, failed, warning, dim styleFunc
}

func newPalette(color bool) palette {
	if !color {
		return palette{
			title: plain, section: plain, ready: plain,
			failed: plain, warning: plain, dim: plain,
		}
	}
	return palette{
		color:   true,
		title:   sf(titleStyle),
		section: sf(sectionStyle),
		ready:   sf(readyStyle),
		failed:  sf(failedStyle),
		warning: sf(warningStyle),
		dim:     sf(dimStyle),
	}
}

// cell layers accent over base when colors are enabled.
func (p palette) cell(base, accent lipgloss.Style) lipgloss.Style {
	if !p.color {
		return base
	}
	return base.Inherit(accent)
}

// text returns s as a styleFunc when colors are enabled.
func (p palette) text(s lipgloss.Style) styleFunc {
	if !p.color {
		return plain
	}
	return sf(s)
}
