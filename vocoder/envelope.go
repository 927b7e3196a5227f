package vocoder

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vox/window"
)

// EnvelopeResolver computes one smooth power-spectral envelope per analysis
// frame. Voiced frames use a pitch-synchronous window of three pitch
// periods; unvoiced frames use a fixed window over the chunk. Both paths
// are normalized to be energy-comparable.
type EnvelopeResolver struct {
	sampleRate float64
	fftSize    int
	bins       int

	plan     *algofft.Plan[complex128]
	timeBuf  []complex128
	specBuf  []complex128
	re, im   []float64
	power    []float64
	prefix   []float64
	smoothed []float64
}

// NewEnvelopeResolver creates a resolver. fftSize must be a power of two.
func NewEnvelopeResolver(sampleRate float64, fftSize int) (*EnvelopeResolver, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope sample rate must be > 0: %f", sampleRate)
	}
	if fftSize < 64 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("envelope fft size must be a power of two >= 64: %d", fftSize)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create FFT plan: %w", err)
	}

	bins := fftSize/2 + 1

	return &EnvelopeResolver{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		bins:       bins,
		plan:       plan,
		timeBuf:    make([]complex128, fftSize),
		specBuf:    make([]complex128, fftSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		power:      make([]float64, bins),
		prefix:     make([]float64, bins+1),
		smoothed:   make([]float64, bins),
	}, nil
}

// FFTSize returns the transform size.
func (r *EnvelopeResolver) FFTSize() int {
	return r.fftSize
}

// Resolve analyzes one chunk of raw samples aligned to an analysis frame
// and returns a freshly allocated envelope row of fftSize/2+1 non-negative
// power values.
func (r *EnvelopeResolver) Resolve(chunk []float64, f0 float64) []float64 {
	if f0 > VoicingFloorHz {
		return r.resolveVoiced(chunk, f0)
	}
	return r.resolveUnvoiced(chunk)
}

// resolveUnvoiced windows the whole chunk with a fixed Hann window,
// zero-pads to the transform size, and returns the power spectrum
// normalized by the transform size.
func (r *EnvelopeResolver) resolveUnvoiced(chunk []float64) []float64 {
	n := min(len(chunk), r.fftSize)
	coeffs := window.Generate(window.TypeHann, n)

	for i := range r.timeBuf {
		r.timeBuf[i] = 0
	}
	for i := 0; i < n; i++ {
		r.timeBuf[i] = complex(chunk[i]*coeffs[i], 0)
	}

	out := make([]float64, r.bins)
	if err := r.plan.Forward(r.specBuf, r.timeBuf); err != nil {
		return out
	}

	r.powerSpectrum(out, float64(r.fftSize))

	return out
}

// resolveVoiced applies a pitch-synchronous Hann window spanning three
// pitch periods, normalizes the power spectrum by the squared window sum so
// that voiced and unvoiced frames are energy-comparable, and smooths away
// the harmonic comb with a frequency-dependent moving average.
func (r *EnvelopeResolver) resolveVoiced(chunk []float64, f0 float64) []float64 {
	winLen := int(3 * r.sampleRate / f0)
	n := min(winLen, len(chunk), r.fftSize)

	coeffs := window.Generate(window.TypeHann, winLen, window.WithMidpoint())
	winSum := window.Sum(coeffs[:n])

	for i := range r.timeBuf {
		r.timeBuf[i] = 0
	}
	for i := 0; i < n; i++ {
		r.timeBuf[i] = complex(chunk[i]*coeffs[i], 0)
	}

	out := make([]float64, r.bins)
	if err := r.plan.Forward(r.specBuf, r.timeBuf); err != nil {
		return out
	}
	if winSum <= 0 {
		return out
	}

	r.powerSpectrum(out, winSum*winSum)
	r.smoothComb(out, f0)

	return out
}

// powerSpectrum fills dst with |X[k]|^2 / norm over the non-negative bins.
func (r *EnvelopeResolver) powerSpectrum(dst []float64, norm float64) {
	for k := range r.bins {
		r.re[k] = real(r.specBuf[k])
		r.im[k] = imag(r.specBuf[k])
	}
	vecmath.Power(r.power, r.re, r.im)

	inv := 1 / norm
	for k := range r.bins {
		dst[k] = r.power[k] * inv
	}
}

// smoothComb erases the harmonic comb while preserving the formant shape.
// The averaging width starts at one harmonic spacing and grows
// quadratically with frequency: dense low harmonics need narrow smoothing,
// sparse noisy high bins need broad smoothing.
func (r *EnvelopeResolver) smoothComb(spec []float64, f0 float64) {
	baseWidth := int(math.Round(f0 * float64(r.fftSize) / r.sampleRate))
	if baseWidth <= 1 {
		return
	}

	r.prefix[0] = 0
	for k := range r.bins {
		r.prefix[k+1] = r.prefix[k] + spec[k]
	}

	binHz := r.sampleRate / float64(r.fftSize)
	for k := range r.bins {
		freq := float64(k) * binHz
		scale := 1 + (freq/5000)*(freq/5000)
		width := int(math.Round(float64(baseWidth) * scale))
		half := width / 2

		lo := max(k-half, 0)
		hi := min(k+half+1, r.bins)
		r.smoothed[k] = (r.prefix[hi] - r.prefix[lo]) / float64(hi-lo)
	}

	copy(spec, r.smoothed[:r.bins])
}
