package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/pterm/pterm"

	"github.com/teranos/buildergen/driver"
)

func relPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil {
		return rel
	}
	return path
}

func outcomeStyle(o driver.Outcome) string {
	switch o {
	case driver.OutcomeCreated:
		return pterm.LightGreen(string(o))
	case driver.OutcomeUpdated:
		return pterm.Yellow(string(o))
	case driver.OutcomeFixed:
		return pterm.LightCyan(string(o))
	case driver.OutcomeSkipped:
		return pterm.LightMagenta(string(o))
	case driver.OutcomeFailed:
		return pterm.Red(string(o))
	default:
		return pterm.Gray(string(o))
	}
}

// printReport lists every shape the run touched and a summary line.
func printReport(w io.Writer, report *driver.Report) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		indent := ""
		for i := 0; i < res.Depth; i++ {
			indent += "  "
		}
		line := fmt.Sprintf("%s%s %s", indent, pterm.Gray("→"), res.Builder)
		if res.Path != "" {
			line += " " + pterm.Gray(relPath(res.Path))
		}
		line += " " + outcomeStyle(res.Outcome)
		if res.Err != nil {
			line += " " + pterm.Red(res.Err.Error())
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "%s %d created, %d updated, %d unchanged, %d fixed, %d skipped, %d failed (%s)\n",
		pterm.LightCyan(string(report.Mode)+":"),
		report.Count(driver.OutcomeCreated),
		report.Count(driver.OutcomeUpdated),
		report.Count(driver.OutcomeUnchanged),
		report.Count(driver.OutcomeFixed),
		report.Count(driver.OutcomeSkipped),
		report.Count(driver.OutcomeFailed),
		report.Duration.Round(1e6))
}

// printChanges lists the files a memory-only run would write. With
// content, new files are printed whole and changed ones as a unified diff.
func printChanges(w io.Writer, changes []driver.Change, content bool) {
	for _, c := range changes {
		state := pterm.Yellow("would update")
		if c.Created() {
			state = pterm.LightGreen("would create")
		}
		fmt.Fprintf(w, "%s %s\n", state, relPath(c.Path))
		if !content {
			continue
		}
		if c.Created() {
			fmt.Fprintln(w, pterm.Gray(string(c.After)))
			continue
		}
		for _, l := range unifiedDiff(relPath(c.Path), c.Before, c.After) {
			fmt.Fprintln(w, l)
		}
	}
}

// unifiedDiff renders a three-line-context diff between two versions of path.
func unifiedDiff(path string, before, after []byte) []string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (merged)",
		Context:  3,
	})
	if err != nil {
		return []string{pterm.Red(err.Error())}
	}

	var out []string
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			out = append(out, pterm.Bold.Sprint(l))
		case strings.HasPrefix(l, "+"):
			out = append(out, pterm.Green(l))
		case strings.HasPrefix(l, "-"):
			out = append(out, pterm.Red(l))
		case strings.HasPrefix(l, "@@"):
			out = append(out, pterm.LightCyan(l))
		default:
			out = append(out, l)
		}
	}
	return out
}
