// Package printer provides coloured, structured console output for
// findings, cleanup plans and the cleanup recap.
package printer

import (
	"fmt"
	"os"
	"strings"

	"invtidy/pkg/analyzer"
	"invtidy/pkg/cleanup"
	"invtidy/pkg/vars"
)

// ANSI colour codes.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
)

// ColorsEnabled controls ANSI output. Auto-detected from stdout; can be overridden.
var ColorsEnabled = isTerminal()

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func c(color, s string) string {
	if !ColorsEnabled {
		return s
	}
	return color + s + ansiReset
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Header prints a section banner.
func Header(name string) {
	sep := strings.Repeat("*", maxInt(0, 72-len(name)-3))
	fmt.Printf("\n%s %s\n", c(ansiBold+ansiBlue, name), sep)
}

func kindColor(k analyzer.Kind) string {
	switch k {
	case analyzer.ConflictingVariable:
		return ansiRed
	case analyzer.DuplicateVariable:
		return ansiBlue
	case analyzer.OrphanedOverlay:
		return ansiCyan
	default:
		return ansiYellow
	}
}

// Finding prints one finding line, coloured by kind.
func Finding(f analyzer.Finding) {
	fmt.Printf("  %s: %s\n", c(kindColor(f.Kind), pad(f.Kind.String(), 24)), f.Describe())
}

// Clean prints the all-clear line for an inventory with no findings.
func Clean() {
	fmt.Printf("  %s: no inconsistencies found\n", c(ansiGreen, "ok"))
}

// LoadError prints one overlay document that could not be loaded.
func LoadError(e *vars.OverlayParseError) {
	fmt.Printf("  %s: %s\n", c(ansiRed, "load error"), e.Error())
}

// Action prints one planned cleanup action.
func Action(a cleanup.Action) {
	fmt.Printf("  %s: %s\n", c(ansiYellow, pad(a.Kind.String(), 24)), a.Describe())
}

// DryRun prints a dry-run line for a planned action.
func DryRun(a cleanup.Action) {
	fmt.Printf("  %s %s\n", c(ansiCyan, "[dry-run]"), a.Describe())
}

// Recap prints the cleanup summary table.
func Recap(s *cleanup.Summary) {
	fmt.Printf("\n%s%s\n", c(ansiBold, "CLEANUP RECAP "), strings.Repeat("*", 58))
	removed := c(ansiYellow, fmt.Sprintf("lines_removed=%-4d", s.LinesRemoved))
	deleted := c(ansiYellow, fmt.Sprintf("files_deleted=%-4d", len(s.FilesDeleted)))
	skipped := c(ansiCyan, fmt.Sprintf("report_only=%-4d", len(s.Skipped)))
	failed := c(ansiRed, fmt.Sprintf("failed=%-4d", len(s.Errors)))
	fmt.Printf("  %s %s %s %s\n", removed, deleted, skipped, failed)

	for _, path := range s.FilesDeleted {
		fmt.Printf("  %s: %s\n", c(ansiYellow, "deleted"), path)
	}
	for _, f := range s.Skipped {
		fmt.Printf("  %s: %s\n", c(ansiCyan, "left for manual resolution"), f.Describe())
	}
	for _, e := range s.Errors {
		fmt.Printf("  %s: %s\n", c(ansiRed, "FAILED"), e.Error())
	}
	fmt.Println()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
