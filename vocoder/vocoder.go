// Package vocoder implements the analysis and synthesis halves of the voice
// resampling engine: fundamental-frequency estimation, voiced/unvoiced
// smoothing, spectral-envelope and aperiodicity analysis, and the
// dual-stream additive synthesizer.
package vocoder

import (
	"fmt"
	"math"
)

const (
	// FramePeriodMs is the spacing of spectral/aperiodicity analysis frames.
	FramePeriodMs = 5.0

	// DefaultFFTSize is the transform size for envelope analysis and
	// noise-grain synthesis.
	DefaultFFTSize = 4096

	// VoicingFloorHz is the threshold below which a frame counts as
	// unvoiced. F0 = 0 is the unvoiced convention everywhere.
	VoicingFloorHz = 40.0

	// PitchHopSize and PitchWindowSize define the pitch estimator's own,
	// denser analysis grid.
	PitchHopSize    = 256
	PitchWindowSize = 1024
)

// FramesPerSecond returns the analysis frame rate.
func FramesPerSecond() float64 {
	return 1000.0 / FramePeriodMs
}

// HopSize returns the number of samples per analysis frame at the given
// sample rate.
func HopSize(sampleRate float64) int {
	return int(sampleRate * FramePeriodMs / 1000.0)
}

// Vocoder bundles the analyzers and synthesis engine for one source file.
// Instances are not safe for concurrent use; concurrent renders each need
// their own.
type Vocoder struct {
	SampleRate float64
	FFTSize    int

	Pitch        *PitchEstimator
	Voicing      *VoicingSmoother
	Transients   *TransientDetector
	Envelope     *EnvelopeResolver
	Aperiodicity *AperiodicityEstimator
}

// New creates a Vocoder for the given sample rate with the default FFT size.
func New(sampleRate float64) (*Vocoder, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("vocoder sample rate must be > 0: %f", sampleRate)
	}

	envelope, err := NewEnvelopeResolver(sampleRate, DefaultFFTSize)
	if err != nil {
		return nil, err
	}

	return &Vocoder{
		SampleRate:   sampleRate,
		FFTSize:      DefaultFFTSize,
		Pitch:        NewPitchEstimator(sampleRate),
		Voicing:      NewVoicingSmoother(),
		Transients:   NewTransientDetector(PitchWindowSize/2, PitchHopSize),
		Envelope:     envelope,
		Aperiodicity: NewAperiodicityEstimator(sampleRate, DefaultFFTSize),
	}, nil
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
