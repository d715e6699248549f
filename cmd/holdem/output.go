package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/casinoholdem/internal/fileutil"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

// Output formats accepted by the analysis commands.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// writeReport encodes report in the requested format. Text output is
// delegated to text.
func writeReport(w io.Writer, format string, report any, text func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.Indent = "\t"
		return enc.Encode(report)
	case FormatText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// emit writes the report to out, or atomically to path when one is given.
func emit(out io.Writer, path, format string, report any, text func(io.Writer) error) error {
	if path == "" {
		return writeReport(out, format, report, text)
	}
	f, err := fileutil.Create(path, 0o644)
	if err != nil {
		return err
	}
	defer f.Abort()

	if err := writeReport(f, format, report, text); err != nil {
		return err
	}
	return f.Commit()
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
