package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view.
type Theme struct {
	Name   string
	Glass  lipgloss.Color
	Fill   lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
	Alert  lipgloss.Color
}

var Themes = []Theme{
	{
		Name:   "candy",
		Glass:  lipgloss.Color("#9ad0ff"),
		Fill:   lipgloss.Color("#ff6b6b"),
		Accent: lipgloss.Color("#ffd93d"),
		Muted:  lipgloss.Color("#666688"),
		Alert:  lipgloss.Color("#ff4757"),
	},
	{
		Name:   "retro",
		Glass:  lipgloss.Color("#00cc00"),
		Fill:   lipgloss.Color("#88ff88"),
		Accent: lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Alert:  lipgloss.Color("#ffff00"),
	},
	{
		Name:   "ocean",
		Glass:  lipgloss.Color("#00a8cc"),
		Fill:   lipgloss.Color("#4d96ff"),
		Accent: lipgloss.Color("#ffd700"),
		Muted:  lipgloss.Color("#4488aa"),
		Alert:  lipgloss.Color("#ff4444"),
	},
	{
		Name:   "minimal",
		Glass:  lipgloss.Color("#cccccc"),
		Fill:   lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#0088ff"),
		Muted:  lipgloss.Color("#888888"),
		Alert:  lipgloss.Color("#ffaa00"),
	},
}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
