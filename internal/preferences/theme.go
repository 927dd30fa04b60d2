package preferences

// Theme is the terminal palette the renderer paints with. Fields hold ANSI
// SGR sequences; the zero Theme prints plain text.
type Theme struct {
	Name   string
	Title  string
	Accent string
	Muted  string
	Alert  string
	Reset  string
}

var (
	lightTheme = Theme{
		Name:   "light",
		Title:  "\x1b[1;34m",
		Accent: "\x1b[32m",
		Muted:  "\x1b[90m",
		Alert:  "\x1b[1;31m",
		Reset:  "\x1b[0m",
	}
	darkTheme = Theme{
		Name:   "dark",
		Title:  "\x1b[1;96m",
		Accent: "\x1b[92m",
		Muted:  "\x1b[37m",
		Alert:  "\x1b[1;91m",
		Reset:  "\x1b[0m",
	}
)

// ThemeFor maps the dark-mode flag to a palette.
func ThemeFor(darkMode bool) Theme {
	if darkMode {
		return darkTheme
	}
	return lightTheme
}

// Plain is the colourless palette, used when output is not a terminal.
func Plain(darkMode bool) Theme {
	if darkMode {
		return Theme{Name: "dark"}
	}
	return Theme{Name: "light"}
}
