package vocoder

import (
	"fmt"
	"math"
	"math/rand/v2"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-vox/window"
)

const (
	// maxHarmonics caps the additive voiced stream.
	maxHarmonics = 512

	defaultNormalizeTarget = 0.89
)

// Engine is the dual-stream synthesizer. The voiced stream is additive:
// one persistent phase accumulator per harmonic keeps phase continuous
// across the whole render (a reset mid-render is audible as a click). The
// unvoiced stream overlap-adds one random-phase noise grain per frame,
// shaped by the envelope and aperiodicity rows.
//
// An Engine belongs to exactly one render. Phase state is reset only at
// construction, never shared across renders.
type Engine struct {
	sampleRate float64
	fftSize    int
	hopSize    int
	target     float64

	plan   *algofft.Plan[complex128]
	phases []float64
	rng    *rand.Rand

	grainSpec []complex128
	grainTime []complex128
	grainWin  []float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNoiseSeed seeds the unvoiced stream's phase draws, making the noise
// stream reproducible. Without it each render draws fresh phases and output
// is not bit-reproducible (energy and envelope shape still are).
func WithNoiseSeed(s1, s2 uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(s1, s2))
	}
}

// WithNormalizeTarget sets the peak level the output is normalized to.
func WithNormalizeTarget(target float64) EngineOption {
	return func(e *Engine) {
		if target > 0 && target <= 1 {
			e.target = target
		}
	}
}

// NewEngine creates a synthesis engine. fftSize must be a power of two and
// match the envelope rows fed to Synthesize.
func NewEngine(sampleRate float64, fftSize int, opts ...EngineOption) (*Engine, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("engine sample rate must be > 0: %f", sampleRate)
	}
	if fftSize < 64 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("engine fft size must be a power of two >= 64: %d", fftSize)
	}

	hop := HopSize(sampleRate)
	if hop <= 0 || 2*hop > fftSize {
		return nil, fmt.Errorf("engine hop %d incompatible with fft size %d", hop, fftSize)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to create FFT plan: %w", err)
	}

	e := &Engine{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hopSize:    hop,
		target:     defaultNormalizeTarget,
		plan:       plan,
		phases:     make([]float64, maxHarmonics+1),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		grainSpec:  make([]complex128, fftSize),
		grainTime:  make([]complex128, fftSize),
		grainWin:   window.Generate(window.TypeHann, 2*hop, window.WithPeriodic()),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

// HopSize returns the samples per render frame.
func (e *Engine) HopSize() int {
	return e.hopSize
}

// Synthesize renders f0, envelope and aperiodicity rows into a newly
// allocated waveform of len(f0)*hopSize samples, peak-normalized to the
// target level. The three slices must have equal length; envelope and
// aperiodicity rows must hold fftSize/2+1 values each.
func (e *Engine) Synthesize(f0 []float64, envelope, aperiodicity [][]float64) ([]float64, error) {
	n := len(f0)
	if len(envelope) != n || len(aperiodicity) != n {
		return nil, fmt.Errorf("engine: frame count mismatch: f0=%d envelope=%d aperiodicity=%d",
			n, len(envelope), len(aperiodicity))
	}
	if n == 0 {
		return nil, nil
	}

	bins := e.fftSize/2 + 1
	for i := range n {
		if len(envelope[i]) != bins || len(aperiodicity[i]) != bins {
			return nil, fmt.Errorf("engine: frame %d row length mismatch: want %d bins", i, bins)
		}
	}

	out := make([]float64, n*e.hopSize)

	e.addHarmonicStream(out, f0, envelope, aperiodicity)

	if err := e.addNoiseStream(out, envelope, aperiodicity); err != nil {
		return nil, err
	}

	normalizePeak(out, e.target)

	return out, nil
}

// addHarmonicStream accumulates the voiced sinusoids. Per frame pair the
// instantaneous F0 is interpolated per sample; each harmonic advances its
// own accumulator and samples the envelope at k*F0 across both the frame
// and frequency axes. Unvoiced stretches hold phases rather than resetting
// them.
func (e *Engine) addHarmonicStream(out, f0 []float64, envelope, aperiodicity [][]float64) {
	nyquist := e.sampleRate / 2
	phaseStep := 2 * math.Pi / e.sampleRate

	for frame := 0; frame < len(f0)-1; frame++ {
		fa, fb := f0[frame], f0[frame+1]
		if fa <= 0 || fb <= 0 {
			continue
		}

		kLimit := min(int(nyquist/math.Max(fa, fb)), maxHarmonics)
		if kLimit < 1 {
			continue
		}
		gain := 1 / math.Sqrt(float64(kLimit))

		envA, envB := envelope[frame], envelope[frame+1]
		apA, apB := aperiodicity[frame], aperiodicity[frame+1]
		base := frame * e.hopSize

		for s := range e.hopSize {
			alpha := float64(s) / float64(e.hopSize)
			freq := lerp(fa, fb, alpha)

			sample := 0.0
			for k := 1; k <= kLimit; k++ {
				hFreq := float64(k) * freq
				if hFreq >= nyquist {
					break
				}

				e.phases[k] = math.Mod(e.phases[k]+phaseStep*hFreq, 2*math.Pi)

				power := lerp(e.sampleRow(envA, hFreq), e.sampleRow(envB, hFreq), alpha)
				ap := lerp(e.sampleRow(apA, hFreq), e.sampleRow(apB, hFreq), alpha)

				amp := math.Sqrt(math.Max(power, 0)) * (1 - clamp01(ap))
				sample += amp * math.Sin(e.phases[k])
			}

			out[base+s] += sample * gain
		}
	}
}

// addNoiseStream overlap-adds one noise grain per frame: a spectrum with
// magnitude sqrt(envelope)*sqrt(aperiodicity) and uniform-random phase,
// inverse-transformed and windowed with a raised cosine at the hop spacing.
func (e *Engine) addNoiseStream(out []float64, envelope, aperiodicity [][]float64) error {
	bins := e.fftSize/2 + 1

	// The analysis power spectra carry a 1/fftSize-style normalization and
	// the inverse transform another 1/fftSize, so the grains are scaled
	// back up to sit at the same order of magnitude as the voiced stream.
	scale := math.Sqrt(float64(e.fftSize))

	for frame := range envelope {
		env := envelope[frame]
		ap := aperiodicity[frame]

		for k := range bins {
			mag := math.Sqrt(math.Max(env[k], 0)) * math.Sqrt(clamp01(ap[k]))
			phi := e.rng.Float64() * 2 * math.Pi
			e.grainSpec[k] = complex(mag*math.Cos(phi), mag*math.Sin(phi))
		}

		// Real output needs a Hermitian spectrum; DC and nyquist stay real.
		e.grainSpec[0] = complex(real(e.grainSpec[0]), 0)
		e.grainSpec[e.fftSize/2] = complex(real(e.grainSpec[e.fftSize/2]), 0)
		for k := 1; k < e.fftSize/2; k++ {
			v := e.grainSpec[k]
			e.grainSpec[e.fftSize-k] = complex(real(v), -imag(v))
		}

		if err := e.plan.Inverse(e.grainTime, e.grainSpec); err != nil {
			return fmt.Errorf("engine: noise grain inverse FFT failed: %w", err)
		}

		base := frame * e.hopSize
		for i := range 2 * e.hopSize {
			idx := base + i
			if idx >= len(out) {
				break
			}
			out[idx] += real(e.grainTime[i]) * e.grainWin[i] * scale
		}
	}

	return nil
}

// sampleRow linearly interpolates a spectral row at the given frequency.
// Rows span [0, nyquist] over len(row) bins; out-of-range frequencies
// clamp to the edges.
func (e *Engine) sampleRow(row []float64, freq float64) float64 {
	pos := freq * float64(len(row)-1) / (e.sampleRate / 2)
	if pos <= 0 {
		return row[0]
	}
	if pos >= float64(len(row)-1) {
		return row[len(row)-1]
	}

	lo := int(pos)
	return lerp(row[lo], row[lo+1], pos-float64(lo))
}

func normalizePeak(buf []float64, target float64) {
	peak := 0.0
	for _, x := range buf {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}
	if peak <= 0 {
		return
	}

	g := target / peak
	for i := range buf {
		buf[i] *= g
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
