// Package units renders byte counts and byte rates for display.
package units

import (
	"fmt"
	"math"

	"github.com/c2h5oh/datasize"
)

// scale lists the display units from smallest to largest.
var scale = []struct {
	size   datasize.ByteSize
	suffix string
}{
	{datasize.B, "B"},
	{datasize.KB, "KB"},
	{datasize.MB, "MB"},
	{datasize.GB, "GB"},
	{datasize.TB, "TB"},
	{datasize.PB, "PB"},
	{datasize.EB, "EB"},
}

// Scale returns the value of b expressed in its display unit, along with the
// unit suffix. The unit is the largest one that keeps the value at or above 1,
// so the value lands in [1, 1024) except for inputs below one byte (B) or
// beyond the largest unit (EB). Negative and NaN inputs are treated as zero.
func Scale(b float64) (float64, string) {
	if math.IsNaN(b) || b < 0 {
		b = 0
	}

	i := 0
	for i < len(scale)-1 && b >= float64(scale[i+1].size) {
		i++
	}
	return b / float64(scale[i].size), scale[i].suffix
}

// FormatBytes formats a byte count as a human-readable string, e.g. "2.00 GB".
func FormatBytes(b float64) string {
	v, suffix := Scale(b)
	return fmt.Sprintf("%.2f %s", v, suffix)
}

// FormatRate formats a bytes-per-second rate, e.g. "5.00 MB/s".
func FormatRate(bytesPerSecond float64) string {
	return FormatBytes(bytesPerSecond) + "/s"
}

// Percent formats a percentage with one decimal, e.g. "25.0%".
func Percent(p float64) string {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	return fmt.Sprintf("%.1f%%", p)
}
