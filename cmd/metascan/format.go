package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatNamesText writes one name per line.
func formatNamesText(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

// formatScanText formats a scan summary followed by its failures.
func formatScanText(w io.Writer, s CLIScanSummary) {
	fmt.Fprintf(w, "Scan %s\n", s.ScanID)
	fmt.Fprintf(w, "Scanned: %d of %d refs\n", s.Scanned, s.Refs)
	fmt.Fprintf(w, "Facts: %d\n", s.Facts)
	if s.Snapshot != "" {
		fmt.Fprintf(w, "Snapshot: %s\n", s.Snapshot)
	}
	if s.Incomplete {
		fmt.Fprintln(w, "Incomplete: scan was interrupted")
	}
	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tREF\tERROR")
		for _, f := range s.Failures {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Index, f.Ref, f.Error)
		}
		tw.Flush()
	}
}

// formatCategoriesText formats category summaries as aligned columns.
func formatCategoriesText(w io.Writer, cats []CLICategory) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tKEYS\tFACTS")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c.Name, c.Keys, c.Facts)
	}
	tw.Flush()
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []string:
		formatNamesText(w, v)
	case CLIScanSummary:
		formatScanText(w, v)
	case []CLICategory:
		formatCategoriesText(w, v)
	case CLIMergeSummary:
		fmt.Fprintf(w, "Merged %s into %s (%d facts)\n", strings.Join(v.Inputs, ", "), v.Snapshot, v.Facts)
	case CLIResolution:
		formatNamesText(w, v.Candidates)
		if v.FromSnapshot {
			fmt.Fprintln(w, "\n(from snapshot)")
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to w in format.
func outputResult(w io.Writer, format string, result CLIResult) error {
	if format == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
