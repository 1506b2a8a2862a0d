// Package cliui provides reusable terminal UI helpers (step indicators,
// summary styling) for provtag CLI commands.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	WarnMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("!")
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	HeadStyle   = lipgloss.NewStyle().Bold(true)
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	mu.Lock()
	defer mu.Unlock()

	mark := SuccessMark
	if err != nil {
		mark = FailMark
	}
	fmt.Fprintf(w, "\r  %s %s %s\n",
		mark, msg, StepStyle.Render(fmt.Sprintf("(%s)", elapsed.Round(time.Millisecond))))

	return err
}

// KV prints one aligned key/value summary line.
func KV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %v\n", StepStyle.Render(fmt.Sprintf("%-18s", key+":")), value)
}

// Header prints a bold section header.
func Header(w io.Writer, text string) {
	fmt.Fprintf(w, "%s\n", HeadStyle.Render(text))
}
