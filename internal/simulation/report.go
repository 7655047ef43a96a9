package simulation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText renders report as the plain-text console report: one block per
// trial followed by the run summary.
func WriteText(w io.Writer, report Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Station assignment for a mass transit system by neighborhood population")
	fmt.Fprintln(bw)
	for _, tr := range report.Trials {
		fmt.Fprintf(bw, "Trial %d\n", tr.Number)
		fmt.Fprintf(bw, "Neighborhoods: %d\n", len(tr.Dataset.Populations))
		fmt.Fprintf(bw, "Stations: %d\n", tr.Dataset.Stations)
		fmt.Fprintf(bw, "Population per neighborhood: %s\n", formatInts(tr.Dataset.Populations))
		if tr.Result.Balanced {
			fmt.Fprintf(bw, "Evenly distributable, each station serves: %d\n", tr.Result.MaxLoad)
		} else {
			fmt.Fprintln(bw, "Cannot be distributed evenly with the given values")
		}
		for _, bin := range tr.Result.Bins {
			fmt.Fprintf(bw, "Station %d (load %d): %s\n", bin.Index+1, bin.Load, formatInts(bin.Weights))
		}
		fmt.Fprintln(bw)
	}

	s := report.Summary
	fmt.Fprintf(bw, "Seed: %d\n", report.Seed)
	fmt.Fprintf(bw, "Trials: %d, balanced: %d (%.1f%%)\n", s.Trials, s.Balanced, s.BalancedRatio*100)
	fmt.Fprintf(bw, "Load spread: mean %.2f, stddev %.2f\n", s.MeanSpread, s.StdDevSpread)
	fmt.Fprintf(bw, "Mean max load: %.2f\n", s.MeanMaxLoad)

	return bw.Flush()
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
