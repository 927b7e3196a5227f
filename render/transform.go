package render

import "math"

// ResampleTrack linearly interpolates a per-frame sequence at each
// fractional timeline position.
func ResampleTrack(track, timeline []float64) []float64 {
	out := make([]float64, len(timeline))
	for i, pos := range timeline {
		out[i] = sampleAt(track, pos)
	}
	return out
}

// ResampleRows linearly interpolates spectral rows along the timeline.
// Every output row is freshly allocated; the source rows stay untouched.
func ResampleRows(rows [][]float64, timeline []float64) [][]float64 {
	out := make([][]float64, len(timeline))
	for i, pos := range timeline {
		out[i] = blendRows(rows, pos)
	}
	return out
}

func sampleAt(track []float64, pos float64) float64 {
	if len(track) == 0 {
		return 0
	}

	lo := int(pos)
	if lo >= len(track)-1 {
		return track[len(track)-1]
	}
	if lo < 0 {
		return track[0]
	}

	frac := pos - float64(lo)
	return track[lo]*(1-frac) + track[lo+1]*frac
}

func blendRows(rows [][]float64, pos float64) []float64 {
	lo := int(pos)
	if lo < 0 {
		lo = 0
	}
	if lo >= len(rows)-1 {
		row := make([]float64, len(rows[len(rows)-1]))
		copy(row, rows[len(rows)-1])
		return row
	}

	frac := pos - float64(lo)
	a, b := rows[lo], rows[lo+1]
	row := make([]float64, len(a))
	for k := range row {
		row[k] = a[k]*(1-frac) + b[k]*frac
	}
	return row
}

// ApplyGender shifts the formant structure by resampling every envelope
// row along the frequency axis with ratio 2^(gender/120). Positive values
// compress the spectrum downward (darker timbre), negative values expand
// it upward. Rows are mutated in place; edges clamp.
func ApplyGender(envelope [][]float64, gender float64) {
	if gender == 0 {
		return
	}

	ratio := math.Exp2(gender / 120)
	scratch := []float64(nil)

	for _, row := range envelope {
		if cap(scratch) < len(row) {
			scratch = make([]float64, len(row))
		}
		scratch = scratch[:len(row)]

		for k := range row {
			scratch[k] = sampleAt(row, float64(k)*ratio)
		}
		copy(row, scratch)
	}
}

// ApplyBreathiness mixes every aperiodicity value toward 1 by
// clamp(breathiness/100, 0, 1). The neutral value 50 leaves the rows
// untouched. Rows are mutated in place.
func ApplyBreathiness(aperiodicity [][]float64, breathiness float64) {
	if breathiness == 50 {
		return
	}

	factor := math.Min(math.Max(breathiness/100, 0), 1)
	for _, row := range aperiodicity {
		for k := range row {
			row[k] += (1 - row[k]) * factor
		}
	}
}
