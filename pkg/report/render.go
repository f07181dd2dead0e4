// Package report renders a compatibility report as styled text or JSON.
// The engine only produces the structured finding list; everything here is
// presentation.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/abiguard-labs/abiguard/core/finding"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// ColorMode controls ANSI styling of the text format.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name from configuration.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case ColorAuto, ColorAlways, ColorNever:
		return ColorMode(s), nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("unknown color mode %q", s)
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
}

type palette struct {
	breaking     lipgloss.Style
	note         lipgloss.Style
	ok           lipgloss.Style
	symbol       lipgloss.Style
	compatible   lipgloss.Style
	incompatible lipgloss.Style
}

func newPalette(colored bool) palette {
	if !colored {
		return palette{}
	}
	return palette{
		breaking:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		note:         lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		ok:           lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		symbol:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		compatible:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		incompatible: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// severityTag maps a finding severity to its line prefix and style.
func (p palette) severityTag(sev finding.Severity) (string, lipgloss.Style) {
	switch sev {
	case finding.SeverityBreaking:
		return "BREAK", p.breaking
	case finding.SeverityUnchanged:
		return "OK   ", p.ok
	default:
		return "NOTE ", p.note
	}
}

// RenderText writes the human-readable report. Breaking and changed findings
// always print; unchanged findings only with verbose. The trailer carries the
// counts and the verdict line.
func RenderText(w io.Writer, rep finding.Report, verbose bool, mode ColorMode) {
	p := newPalette(useColor(w, mode))

	var breaking, notes int
	for _, f := range rep.Findings {
		switch f.Severity {
		case finding.SeverityBreaking:
			breaking++
		case finding.SeverityUnchanged:
		default:
			notes++
		}

		if f.Severity == finding.SeverityUnchanged && !verbose {
			continue
		}
		tag, style := p.severityTag(f.Severity)
		fmt.Fprintf(w, "%s %s: %s\n",
			style.Render(tag),
			p.symbol.Render(fmt.Sprintf("[%s %s]", f.Kind, f.Symbol)),
			f.Detail)
	}

	fmt.Fprintln(w)
	if breaking > 0 || notes > 0 {
		fmt.Fprintf(w, "%d breaking, %d non-breaking change(s)\n", breaking, notes)
	}

	if rep.OldVersion != "" || rep.NewVersion != "" {
		fmt.Fprintf(w, "Versions: %s -> %s\n", rep.OldVersion, rep.NewVersion)
	}

	verdict, style := "COMPATIBLE", p.compatible
	if rep.Verdict == finding.VerdictIncompatible {
		verdict, style = "INCOMPATIBLE", p.incompatible
	}
	fmt.Fprintf(w, "Verdict: %s\n", style.Render(verdict))
}

// RenderJSON writes the report structure as indented JSON.
func RenderJSON(w io.Writer, rep finding.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
