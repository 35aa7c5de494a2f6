// Copyright © 2025 The agnix authors

package diagnostic

import (
	"os"

	"github.com/fatih/color"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

type paint func(a ...interface{}) string

// palette holds the styling functions for diagnostic output.
type palette struct {
	bold     paint
	yellow   paint
	boldRed  paint
	boldBlue paint
	boldCyan paint
}

// choosePalette builds the color palette for the given mode and output
// file descriptor.
func choosePalette(mode ColorMode, w *os.File) palette {
	var enabled bool
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorNever:
		enabled = false
	default: // ColorAuto
		enabled = os.Getenv("NO_COLOR") == "" && isTerminal(w)
	}
	mk := func(attrs ...color.Attribute) paint {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint
	}
	return palette{
		bold:     mk(color.Bold),
		yellow:   mk(color.FgYellow),
		boldRed:  mk(color.FgRed, color.Bold),
		boldBlue: mk(color.FgBlue, color.Bold),
		boldCyan: mk(color.FgCyan, color.Bold),
	}
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
