package outwriter

import (
	"os"

	"github.com/huangsam/codemonitor/internal/contract"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80 // narrow terminals and CI
	minPathWidth     = 15
	maxPathWidth     = 70
)

// GetMaxTablePathWidth returns how many runes a repository path may take in a
// table with fixedWidth worth of other columns.
func GetMaxTablePathWidth(cfg *contract.Config, fixedWidth int) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = defaultTermWidth
		} else {
			termWidth = detected
		}
	}

	// borders, separators and padding
	available := termWidth - fixedWidth - 20
	if available < minPathWidth {
		return minPathWidth
	}
	if available > maxPathWidth {
		return maxPathWidth
	}
	return available
}
