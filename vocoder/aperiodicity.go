package vocoder

// AperiodicityEstimator produces per-bin noise ratios in [0,1] for one
// analysis frame. The banding follows the usual acoustic prior: higher
// harmonics carry proportionally more breath noise, so the ratio is
// monotonically non-decreasing in frequency, staying near zero in the low
// bands and approaching 0.8 toward nyquist.
type AperiodicityEstimator struct {
	sampleRate float64
	fftSize    int
}

// NewAperiodicityEstimator creates an estimator for the given sample rate
// and transform size.
func NewAperiodicityEstimator(sampleRate float64, fftSize int) *AperiodicityEstimator {
	return &AperiodicityEstimator{sampleRate: sampleRate, fftSize: fftSize}
}

// Estimate returns a freshly allocated row of fftSize/2+1 noise ratios.
// Frames at or below the voicing floor are fully aperiodic (all ones).
func (e *AperiodicityEstimator) Estimate(f0 float64) []float64 {
	bins := e.fftSize/2 + 1
	out := make([]float64, bins)

	if f0 <= VoicingFloorHz {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	nyquist := e.sampleRate / 2
	binHz := e.sampleRate / float64(e.fftSize)

	for k := range out {
		out[k] = bandRatio(float64(k)*binHz, nyquist)
	}

	return out
}

func bandRatio(freq, nyquist float64) float64 {
	switch {
	case freq < 1000:
		return 0.01
	case freq < 3000:
		return 0.05
	case freq < 6000:
		return 0.15
	case nyquist <= 6000:
		return 0.35
	default:
		r := 0.35 + (freq-6000)/(nyquist-6000)*0.45
		return min(r, 0.8)
	}
}
