package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics and progress are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics and progress are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for different phases of training
type TimingStats struct {
	TotalTime           time.Duration
	DataLoadingTime     time.Duration
	ModelInitTime       time.Duration
	ForwardPassTime     time.Duration
	BackwardPassTime    time.Duration
	UpdateTime          time.Duration
	LossComputationTime time.Duration
	Steps               int
}

func percent(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func perStep(d time.Duration, steps int) time.Duration {
	if steps <= 0 {
		return 0
	}
	return d / time.Duration(steps)
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total training time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Average time per step: %v\n", perStep(stats.TotalTime, stats.Steps))
	fmt.Fprintf(Output, "Steps completed: %d\n", stats.Steps)
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Data loading: %v\n", stats.DataLoadingTime)
	fmt.Fprintf(Output, "  Model initialization: %v\n", stats.ModelInitTime)
	fmt.Fprintf(Output, "  Forward pass: %v (%.1f%%)\n", stats.ForwardPassTime, percent(stats.ForwardPassTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Loss computation: %v (%.1f%%)\n", stats.LossComputationTime, percent(stats.LossComputationTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Backward pass: %v (%.1f%%)\n", stats.BackwardPassTime, percent(stats.BackwardPassTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Weight updates: %v (%.1f%%)\n", stats.UpdateTime, percent(stats.UpdateTime, stats.TotalTime))
	fmt.Fprintln(Output, "\nPerformance metrics:")
	fmt.Fprintf(Output, "  Average forward pass time: %v\n", perStep(stats.ForwardPassTime, stats.Steps))
	fmt.Fprintf(Output, "  Average backward pass time: %v\n", perStep(stats.BackwardPassTime, stats.Steps))
	fmt.Fprintf(Output, "  Average update time: %v\n", perStep(stats.UpdateTime, stats.Steps))
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}

// DurationMS converts any time.Duration to milli-seconds as float64
func DurationMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}
