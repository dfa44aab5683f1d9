package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the formflow ASCII banner. Colors follow the terminal
// profile and are dropped when w is not a terminal.
func PrintBanner(w io.Writer) {
	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.ColorProfile()
	}
	lines := []struct{ text, color string }{
		{"   __                       __ _               ", "#34d399"},
		{"  / _| ___  _ __ _ __ ___  / _| | _____      __", "#2dd4bf"},
		{" | |_ / _ \\| '__| '_ ` _ \\| |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{" |  _| (_) | |  | | | | | |  _| | (_) \\ V  V / ", "#38bdf8"},
		{" |_|  \\___/|_|  |_| |_| |_|_| |_|\\___/ \\_/\\_/  ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status renders a short coloured verdict such as "valid" or "invalid".
func Status(w io.Writer, ok bool, text string) string {
	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.ColorProfile()
	}
	color := "#16a34a"
	if !ok {
		color = "#dc2626"
	}
	return p.String(text).Foreground(p.Color(color)).Bold().String()
}
