// Package theme defines the color palettes of the pennywise TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps color roles to palette entries.
type Theme struct {
	Name         string
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards, bars
	SurfaceHover lipgloss.Color // cursor row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused card, dialogs
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Spending roles.
	Under    lipgloss.Color // comfortably under the threshold
	Near     lipgloss.Color // approaching it
	Over     lipgloss.Color // exceeded, errors
	Selected lipgloss.Color // marked for deletion
}

// Active is the theme in use.
var Active = FlexokiDark

// FlexokiDark is the default.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Under:        lipgloss.Color("#879A39"),
	Near:         lipgloss.Color("#D0A215"),
	Over:         lipgloss.Color("#D14D41"),
	Selected:     lipgloss.Color("#CE5D97"),
}

// CatppuccinMocha is a soft pastel palette.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Under:        lipgloss.Color("#A6E3A1"),
	Near:         lipgloss.Color("#F9E2AF"),
	Over:         lipgloss.Color("#F38BA8"),
	Selected:     lipgloss.Color("#F5C2E7"),
}

// TokyoNight is a cool blue palette.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Under:        lipgloss.Color("#9ECE6A"),
	Near:         lipgloss.Color("#E0AF68"),
	Over:         lipgloss.Color("#F7768E"),
	Selected:     lipgloss.Color("#BB9AF7"),
}

// Terminal sticks to the ANSI 16 colors.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Under:        lipgloss.Color("2"),
	Near:         lipgloss.Color("3"),
	Over:         lipgloss.Color("1"),
	Selected:     lipgloss.Color("5"),
}

// All lists the selectable themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names returns the names of All.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns the named theme, or FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive switches the active theme.
func SetActive(name string) {
	Active = ByName(name)
}

// ForRatio picks the spending color for a used/limit ratio.
func (t Theme) ForRatio(ratio float64) lipgloss.Color {
	switch {
	case ratio > 1:
		return t.Over
	case ratio >= 0.8:
		return t.Near
	default:
		return t.Under
	}
}
