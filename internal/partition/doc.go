// Package partition assigns population weights to a fixed number of stations
// with the longest-processing-time-first heuristic and reports whether the
// resulting station loads came out exactly equal.
//
// The balance flag only describes the heuristic's output. An input that could
// be split evenly may still come back unbalanced.
package partition
