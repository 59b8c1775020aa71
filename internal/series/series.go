package series

import (
	"math"
	"sort"
	"time"

	"regime-radar/internal/domain"
)

// Normalize coerces raw provider points into the one shape the rest of the
// pipeline assumes: ascending dates, no duplicate dates (last write wins),
// finite closes, timestamps stripped to tz-naive UTC midnight. Normalizing
// an already-normalized series returns an identical series.
func Normalize(points []domain.PricePoint) []domain.PricePoint {
	if len(points) == 0 {
		return nil
	}

	byDate := make(map[time.Time]float64, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		byDate[stripTZ(p.Date)] = p.Close
	}
	if len(byDate) == 0 {
		return nil
	}

	out := make([]domain.PricePoint, 0, len(byDate))
	for date, close := range byDate {
		out = append(out, domain.PricePoint{Date: date, Close: close})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// stripTZ converts to UTC first, so a late-evening timestamp in a
// positive-offset zone lands on its UTC calendar day.
func stripTZ(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SMA computes the trailing arithmetic mean at every index, using however
// many observations are available while fewer than window exist. The
// result has the same length as values with no undefined leading region.
func SMA(values []float64, window int) []float64 {
	if len(values) == 0 || window <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// LatestSMA returns the trailing mean over the final window observations.
func LatestSMA(values []float64, window int) float64 {
	sma := SMA(values, window)
	if len(sma) == 0 {
		return math.NaN()
	}
	return sma[len(sma)-1]
}

// PctDiff returns (a/b - 1) * 100. NaN when b is zero or not finite, so a
// ratio against an undefined average reports as undefined rather than
// blowing up.
func PctDiff(a, b float64) float64 {
	if b == 0 || math.IsNaN(b) || math.IsInf(b, 0) || math.IsNaN(a) {
		return math.NaN()
	}
	return (a/b - 1.0) * 100.0
}

// Latest returns the final value, or NaN for an empty slice.
func Latest(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Prev returns the next-to-last value, or NaN when fewer than two exist.
func Prev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return values[len(values)-2]
}
