package sampler

import "time"

// minElapsed guards rate computation against a zero or negative interval
// between two readings.
const minElapsed = time.Millisecond

// Rate converts the change between two cumulative counter readings into a
// per-second rate. A counter that went backwards (reset or wraparound, or a
// device dropping out of an aggregate) yields 0.
func Rate(prev, cur uint64, elapsed time.Duration) float64 {
	if cur < prev {
		return 0
	}
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	return float64(cur-prev) / elapsed.Seconds()
}

// baseline holds the previous reading of a pair of cumulative counters.
type baseline struct {
	a, b  uint64
	at    time.Time
	valid bool
}

// advance returns the per-second rates of both counters since the previous
// reading and replaces the baseline with the current one. The first reading
// only primes the baseline and reports zero rates.
func (bl *baseline) advance(a, b uint64, now time.Time) (float64, float64) {
	var rateA, rateB float64
	if bl.valid {
		elapsed := now.Sub(bl.at)
		rateA = Rate(bl.a, a, elapsed)
		rateB = Rate(bl.b, b, elapsed)
	}

	bl.a, bl.b, bl.at, bl.valid = a, b, now, true
	return rateA, rateB
}
