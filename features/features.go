// Package features builds and persists the per-file analysis result: the
// F0 track, spectral envelopes and aperiodicity envelopes on the 5 ms frame
// grid, plus the reference pitch used for shifting. A Set is produced once
// per source file and borrowed read-only by every render.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-vox/vocoder"
)

// DefaultBaseHz is the pitch-shift reference used when a source has no
// voiced frames at all (middle C).
const DefaultBaseHz = 261.63

// Set is the full analysis result for one source file. The three sequences
// share one frame axis; envelope and aperiodicity rows hold FFTSize/2+1
// values each.
type Set struct {
	F0           []float64
	Envelope     [][]float64
	Aperiodicity [][]float64

	// SourceBaseHz is the median voiced F0 of the source, the reference
	// against which note pitches are expressed.
	SourceBaseHz float64

	FFTSize    int
	SampleRate float64

	// SourceHash fingerprints the audio file the Set was computed from.
	// Only consulted when cache verification is enabled.
	SourceHash [32]byte
}

// FrameCount returns the number of analysis frames.
func (s *Set) FrameCount() int {
	return len(s.F0)
}

// Duration returns the analyzed duration in seconds.
func (s *Set) Duration() float64 {
	return float64(len(s.F0)) / vocoder.FramesPerSecond()
}

// Validate checks the structural invariants of a Set, typically after
// deserialization.
func (s *Set) Validate() error {
	if len(s.Envelope) != len(s.F0) || len(s.Aperiodicity) != len(s.F0) {
		return fmt.Errorf("feature set frame counts differ: f0=%d envelope=%d aperiodicity=%d",
			len(s.F0), len(s.Envelope), len(s.Aperiodicity))
	}
	if s.FFTSize < 64 || s.FFTSize&(s.FFTSize-1) != 0 {
		return fmt.Errorf("feature set fft size must be a power of two >= 64: %d", s.FFTSize)
	}
	if s.SampleRate <= 0 || math.IsNaN(s.SampleRate) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("feature set sample rate must be > 0: %f", s.SampleRate)
	}
	if s.SourceBaseHz <= 0 {
		return fmt.Errorf("feature set base pitch must be > 0: %f", s.SourceBaseHz)
	}

	bins := s.FFTSize/2 + 1
	for i := range s.F0 {
		if len(s.Envelope[i]) != bins || len(s.Aperiodicity[i]) != bins {
			return fmt.Errorf("feature set frame %d row length mismatch: want %d bins", i, bins)
		}
	}

	return nil
}

// Analyze runs the full analysis pipeline on a mono signal: pitch tracking
// on the dense pitch grid, transient detection, voicing smoothing with
// transient barriers, then per-frame envelope and aperiodicity analysis on
// the 5 ms grid. The pitch track is mapped onto the frame grid by nearest
// index.
func Analyze(v *vocoder.Vocoder, samples []float64) (*Set, error) {
	if v == nil {
		return nil, fmt.Errorf("features: vocoder must not be nil")
	}

	pitchTrack := v.Pitch.Estimate(samples)
	barriers := v.Transients.Detect(samples)
	pitchTrack = v.Voicing.SmoothWithBarriers(pitchTrack, barriers)

	hop := vocoder.HopSize(v.SampleRate)
	frameCount := len(samples) / hop
	bins := v.FFTSize/2 + 1

	set := &Set{
		F0:           make([]float64, frameCount),
		Envelope:     make([][]float64, frameCount),
		Aperiodicity: make([][]float64, frameCount),
		FFTSize:      v.FFTSize,
		SampleRate:   v.SampleRate,
	}

	for i := range frameCount {
		start := i * hop
		set.F0[i] = pitchAt(pitchTrack, start)

		end := min(start+v.FFTSize, len(samples))
		chunk := samples[start:end]

		set.Envelope[i] = v.Envelope.Resolve(chunk, set.F0[i])
		set.Aperiodicity[i] = v.Aperiodicity.Estimate(set.F0[i])

		if len(set.Envelope[i]) != bins {
			return nil, fmt.Errorf("features: frame %d envelope has %d bins, want %d",
				i, len(set.Envelope[i]), bins)
		}
	}

	set.SourceBaseHz = medianVoiced(set.F0)

	return set, nil
}

// pitchAt maps a sample position onto the dense pitch grid by nearest
// index, clamped to the track.
func pitchAt(track []float64, samplePos int) float64 {
	if len(track) == 0 {
		return 0
	}
	idx := (samplePos + vocoder.PitchHopSize/2) / vocoder.PitchHopSize
	if idx >= len(track) {
		idx = len(track) - 1
	}
	return track[idx]
}

// medianVoiced returns the median of all F0 values strictly above the
// voicing floor, or DefaultBaseHz when none exist.
func medianVoiced(f0 []float64) float64 {
	voiced := make([]float64, 0, len(f0))
	for _, f := range f0 {
		if f > vocoder.VoicingFloorHz {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) == 0 {
		return DefaultBaseHz
	}

	sort.Float64s(voiced)
	mid := len(voiced) / 2
	if len(voiced)%2 == 1 {
		return voiced[mid]
	}
	return (voiced[mid-1] + voiced[mid]) / 2
}
