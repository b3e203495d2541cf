package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Theme groups the colour styles the shell prints with. Switching themes is
// session-only; the configured theme is restored on the next launch.
type Theme struct {
	name string

	Title   *color.Color
	Success *color.Color
	Error   *color.Color
	Warning *color.Color
	Info    *color.Color
	Muted   *color.Color
}

func (t *Theme) Name() string { return t.name }

var themes = map[string]*Theme{
	"default": {
		name:    "default",
		Title:   color.New(color.FgCyan, color.Bold),
		Success: color.New(color.FgGreen),
		Error:   color.New(color.FgRed),
		Warning: color.New(color.FgYellow),
		Info:    color.New(color.FgWhite),
		Muted:   color.New(color.FgHiBlack),
	},
	"dark": {
		name:    "dark",
		Title:   color.New(color.FgHiMagenta, color.Bold),
		Success: color.New(color.FgHiGreen),
		Error:   color.New(color.FgHiRed),
		Warning: color.New(color.FgHiYellow),
		Info:    color.New(color.FgHiWhite),
		Muted:   color.New(color.FgWhite),
	},
	"light": {
		name:    "light",
		Title:   color.New(color.FgBlue, color.Bold),
		Success: color.New(color.FgGreen, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
		Warning: color.New(color.FgMagenta),
		Info:    color.New(color.FgBlack),
		Muted:   color.New(color.FgHiBlack),
	},
}

// ThemeByName returns the named theme, falling back to "default" for
// unknown names. ok reports whether the name was recognised.
func ThemeByName(name string) (*Theme, bool) {
	if t, found := themes[name]; found {
		return t, true
	}
	return themes["default"], false
}

// ThemeNames lists the available theme names in stable order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetTheme switches the shell's colour theme for this session only; the
// configured theme returns on the next launch. An empty name lists the
// current and available themes.
func (a *App) SetTheme(name string) error {
	if name == "" {
		printlnFn(fmt.Sprintf("Theme: %s (available: %s)", a.theme.Name(), strings.Join(ThemeNames(), ", ")))
		return nil
	}
	t, known := ThemeByName(name)
	if !known {
		a.theme.Error.Printf("Unknown theme %q. Available: %s\n", name, strings.Join(ThemeNames(), ", "))
		return fmt.Errorf("unknown theme %q", name)
	}
	a.theme = t
	a.theme.Success.Printf("Theme switched to %s (for this session).\n", t.Name())
	return nil
}
