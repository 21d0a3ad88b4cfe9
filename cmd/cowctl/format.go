package main

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// out formats numbers with digit grouping.
var out = message.NewPrinter(language.English)

// formatBytes renders n with a unit, grouping digits of the raw count.
func formatBytes(n int64) string {
	switch {
	case n < 1024:
		return out.Sprintf("%d B", n)
	case n < 1024*1024:
		return out.Sprintf("%.1f KiB (%d B)", float64(n)/1024, n)
	default:
		return out.Sprintf("%.1f MiB (%d B)", float64(n)/(1024*1024), n)
	}
}

// formatCount renders n with digit grouping.
func formatCount(n int64) string { return out.Sprintf("%d", n) }

// perOp returns the average duration of one of n operations.
func perOp(d time.Duration, n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return d / time.Duration(n)
}
