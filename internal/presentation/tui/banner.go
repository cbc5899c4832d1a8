package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Gantry ASCII banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Steel-to-amber gradient
	s1 := termenv.String("   ____             _              ").Foreground(p.Color("#60a5fa"))
	s2 := termenv.String("  / ___| __ _ _ __ | |_ _ __ _   _ ").Foreground(p.Color("#818cf8"))
	s3 := termenv.String(" | |  _ / _` | '_ \\| __| '__| | | |").Foreground(p.Color("#a78bfa"))
	s4 := termenv.String(" | |_| | (_| | | | | |_| |  | |_| |").Foreground(p.Color("#f59e0b"))
	s5 := termenv.String("  \\____|\\__,_|_| |_|\\__|_|   \\__, |").Foreground(p.Color("#f97316"))
	s6 := termenv.String("                             |___/ ").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
