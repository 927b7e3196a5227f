package vocoder

import "math"

// PitchEstimator tracks the fundamental frequency of a mono signal with an
// autocorrelation lag search followed by a harmonic-energy refinement pass.
// It never fails: ambiguous input degrades to 0 (unvoiced).
type PitchEstimator struct {
	sampleRate float64
}

// NewPitchEstimator creates an estimator for the given sample rate.
func NewPitchEstimator(sampleRate float64) *PitchEstimator {
	return &PitchEstimator{sampleRate: sampleRate}
}

// HopSize returns the estimator's internal hop in samples. This grid is
// denser than, and independent of, the spectral frame grid.
func (e *PitchEstimator) HopSize() int {
	return PitchHopSize
}

// Estimate returns one F0 value (Hz, 0 = unvoiced) per internal hop.
func (e *PitchEstimator) Estimate(samples []float64) []float64 {
	n := len(samples) / PitchHopSize
	if n <= 0 {
		return nil
	}

	f0 := make([]float64, n)
	for i := range f0 {
		start := i * PitchHopSize
		end := min(start+PitchWindowSize, len(samples))
		f0[i] = e.detectChunk(samples[start:end])
	}

	e.refineTrack(samples, f0)

	return f0
}

// detectChunk scores each candidate lag by its raw autocorrelation sum and
// returns sampleRate/bestLag, or 0 when the chunk is too short or no lag
// correlates positively.
func (e *PitchEstimator) detectChunk(chunk []float64) float64 {
	if len(chunk) < PitchWindowSize/2 {
		return 0
	}

	minLag := int(e.sampleRate / 500)
	maxLag := int(e.sampleRate / 50)

	maxCorr := 0.0
	bestLag := 0

	for lag := minLag; lag < maxLag && lag < len(chunk); lag++ {
		corr := 0.0
		for i := 0; i < len(chunk)-lag; i++ {
			corr += chunk[i] * chunk[i+lag]
		}
		if corr > maxCorr {
			maxCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0
	}

	return e.sampleRate / float64(bestLag)
}

// refineTrack re-scores small offsets around each initial estimate with a
// windowed harmonic-energy criterion. Frames at or below the voicing floor
// keep their autocorrelation estimate unmodified, including 0.
func (e *PitchEstimator) refineTrack(samples []float64, f0 []float64) {
	for i, initial := range f0 {
		if initial <= VoicingFloorHz {
			continue
		}

		start := i * PitchHopSize
		end := min(start+PitchWindowSize, len(samples))
		f0[i] = e.refineChunk(samples[start:end], initial)
	}
}

var refineOffsets = [5]float64{-1.0, -0.5, 0, 0.5, 1.0}

func (e *PitchEstimator) refineChunk(chunk []float64, initial float64) float64 {
	if len(chunk) < 2 {
		return initial
	}

	best := initial
	maxEnergy := 0.0

	for _, offset := range refineOffsets {
		candidate := initial + offset
		energy := e.harmonicEnergy(chunk, candidate)
		if energy > maxEnergy {
			maxEnergy = energy
			best = candidate
		}
	}

	return best
}

// harmonicEnergy weights the squared signal with a raised cosine at the
// candidate period, so energy peaks when the period lines up with the
// waveform's repetition.
func (e *PitchEstimator) harmonicEnergy(chunk []float64, f0 float64) float64 {
	period := e.sampleRate / f0
	energy := 0.0

	for i, x := range chunk {
		w := (1 + math.Cos(2*math.Pi*float64(i)/period)) / 2
		energy += x * x * w
	}

	return energy
}
