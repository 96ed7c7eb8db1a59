package utils

import (
	"fmt"
	"strings"
	"time"
)

// ProgressBarLen is the default width of the bar between the brackets.
const ProgressBarLen = 35

// ProgressBar renders "  7/20 [=====>......]" style progress.
func ProgressBar(current, total, length int) string {
	if total <= 0 || length <= 0 {
		return ""
	}
	cur, tot := fmt.Sprint(current), fmt.Sprint(total)
	pad := ""
	if len(tot) > len(cur) {
		pad = strings.Repeat(" ", len(tot)-len(cur))
	}
	prefix := pad + cur + "/" + tot + " ["
	pos := length * current / total
	switch {
	case pos >= length:
		return prefix + strings.Repeat("=", length) + "]"
	case pos == length-1:
		return prefix + strings.Repeat("=", length-1) + ">]"
	}
	return prefix + strings.Repeat("=", pos) + ">" + strings.Repeat(".", length-pos-1) + "]"
}

// FormatDuration renders d as "12.34ms", "3s 120ms", "2m 5s 0ms" or
// "1h 2m 3s 4ms".
func FormatDuration(d time.Duration) string {
	ms := DurationMS(d)
	if ms < 1000 {
		return fmt.Sprintf("%.2fms", ms)
	}
	h := int(ms / 3_600_000)
	ms -= float64(h) * 3_600_000
	m := int(ms / 60_000)
	ms -= float64(m) * 60_000
	s := int(ms / 1000)
	ms -= float64(s) * 1000
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds %.0fms", h, m, s, ms)
	case m > 0:
		return fmt.Sprintf("%dm %ds %.0fms", m, s, ms)
	}
	return fmt.Sprintf("%ds %.0fms", s, ms)
}

// ConsoleReporter prints Keras-style per-batch progress to Output.
type ConsoleReporter struct {
	BarLen int

	start time.Time
	now   func() time.Time
}

// NewConsoleReporter returns a reporter with the default bar width.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{BarLen: ProgressBarLen, now: time.Now}
}

func (r *ConsoleReporter) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *ConsoleReporter) EpochStart(epoch, epochs int) {
	r.start = r.clock()
	if Verbose {
		fmt.Fprintf(Output, "Epoch %d/%d\n", epoch, epochs)
	}
}

func (r *ConsoleReporter) BatchEnd(batch, batches int, loss, accuracy float64) {
	if !Verbose {
		return
	}
	elapsed := r.clock().Sub(r.start)
	eta := elapsed / time.Duration(batch) * time.Duration(batches-batch)
	fmt.Fprintf(Output, "%s - ETA: %s - loss: %.6f - accuracy: %.6f%s\r",
		ProgressBar(batch, batches, r.BarLen), FormatDuration(eta), loss, accuracy, strings.Repeat(" ", 20))
}

func (r *ConsoleReporter) EpochEnd(batches int, meanLoss, meanAccuracy float64) {
	if !Verbose {
		return
	}
	elapsed := r.clock().Sub(r.start)
	fmt.Fprintf(Output, "%s - %s/step - loss: %.6f - accuracy: %.6f%s\n",
		ProgressBar(batches, batches, r.BarLen), FormatDuration(elapsed/time.Duration(batches)),
		meanLoss, meanAccuracy, strings.Repeat(" ", 20))
}
