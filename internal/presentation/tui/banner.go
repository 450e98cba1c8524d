package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	title := termenv.String("  assist").Foreground(p.Color("#f97316")).Bold()
	sub := termenv.String("  basketball assistant · " + version).Foreground(p.Color("#94a3b8"))

	fmt.Println()
	fmt.Println(title)
	fmt.Println(sub)
	fmt.Println()
}

// PrintMeta renders the response provenance line under an answer.
func PrintMeta(intent string, loops int, bestEffort bool) {
	p := termenv.ColorProfile()
	text := fmt.Sprintf("  intent=%s loops=%d", intent, loops)
	if bestEffort {
		text += " (best effort)"
	}
	fmt.Println(termenv.String(text).Foreground(p.Color("#64748b")).Italic())
}
