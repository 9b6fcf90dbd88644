package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the chatflow ASCII banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Using a subtle gradient-like color scheme (Teal/Green, WhatsApp-ish)
	lines := []struct {
		text, color string
	}{
		{"       _           _    __ _               ", "#2dd4bf"},
		{"   ___| |__   __ _| |_ / _| | _____      __", "#34d399"},
		{"  / __| '_ \\ / _` | __| |_| |/ _ \\ \\ /\\ / /", "#4ade80"},
		{" | (__| | | | (_| | |_|  _| | (_) \\ V  V / ", "#86efac"},
		{"  \\___|_| |_|\\__,_|\\__|_| |_|\\___/ \\_/\\_/  ", "#bbf7d0"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
