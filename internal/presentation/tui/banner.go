package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the dataflow banner to w using the given colour profile.
func PrintBanner(w io.Writer, p termenv.Profile) {
	// Using a subtle gradient-like color scheme (Teal/Sky)
	lines := []struct {
		text  string
		color string
	}{
		{"      _       _         __ _", "#2dd4bf"},
		{"   __| | __ _| |_ __ _ / _| | _____      __", "#22d3ee"},
		{"  / _` |/ _` | __/ _` | |_| |/ _ \\ \\ /\\ / /", "#38bdf8"},
		{" | (_| | (_| | || (_| |  _| | (_) \\ V  V /", "#60a5fa"},
		{"  \\__,_|\\__,_|\\__\\__,_|_| |_|\\___/ \\_/\\_/", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
