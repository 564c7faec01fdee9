package check

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type statusStyle struct {
	symbol string
	color  *color.Color
}

var statusStyles = map[Status]statusStyle{
	StatusPass:    {symbol: "✓", color: color.New(color.FgGreen)},
	StatusFail:    {symbol: "✗", color: color.New(color.FgRed, color.Bold)},
	StatusWarning: {symbol: "!", color: color.New(color.FgYellow)},
	StatusSkipped: {symbol: "○", color: color.New(color.Faint)},
}

// Symbol returns the console symbol for status.
func Symbol(status Status) string {
	if s, ok := statusStyles[status]; ok {
		return s.symbol
	}
	return "?"
}

// FormatReport writes the report grouped by plugin followed by a summary line.
// Colors are disabled when plain is set.
func FormatReport(w io.Writer, report *Report, plain bool) error {
	if report == nil {
		return nil
	}
	header := color.New(color.Bold)

	for i, plugin := range report.Plugins() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		title := plugin + ":"
		if !plain {
			title = header.Sprint(title)
		}
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
		for _, res := range report.Results {
			if res.Plugin != plugin {
				continue
			}
			if _, err := fmt.Fprintln(w, formatResult(res, plain)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", formatSummary(report, plain))
	return err
}

func formatResult(res Result, plain bool) string {
	symbol := Symbol(res.Status)
	if !plain {
		if s, ok := statusStyles[res.Status]; ok {
			symbol = s.color.Sprint(symbol)
		}
	}
	if res.Message == "" {
		return fmt.Sprintf("  %s %s", symbol, res.Check)
	}
	return fmt.Sprintf("  %s %s: %s", symbol, res.Check, res.Message)
}

func formatSummary(report *Report, plain bool) string {
	counts := report.Counts()
	parts := []string{
		fmt.Sprintf("%d passed", counts.Pass),
		fmt.Sprintf("%d failed", counts.Fail),
		fmt.Sprintf("%d warnings", counts.Warning),
		fmt.Sprintf("%d skipped", counts.Skipped),
	}
	summary := strings.Join(parts, ", ")

	status := report.Status()
	label := strings.ToUpper(string(status))
	if !plain {
		label = statusStyles[status].color.Sprint(label)
	}
	return fmt.Sprintf("%s: %s", label, summary)
}
