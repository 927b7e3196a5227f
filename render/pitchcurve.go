package render

import (
	"math"

	"github.com/cwbudde/algo-vox/note"
	"github.com/cwbudde/algo-vox/vocoder"
)

// PitchParams describes the target pitch of one render.
type PitchParams struct {
	// BaseMidi is the note's MIDI number.
	BaseMidi int

	// Bend is the decoded pitch-bend curve in semitones, sampled at
	// BendPointsPerSecond(tempo).
	Bend []float64

	Tempo float64

	// Modulation scales how much of the source's own pitch deviation
	// survives, as a percentage. 0 flattens the source vibrato entirely.
	Modulation float64
}

// BendPointsPerSecond returns the sample rate of the pitch-bend curve at
// the given tempo.
func BendPointsPerSecond(tempo float64) float64 {
	return 8 * tempo / 5
}

// SynthesizePitchCurve produces the final per-render-frame F0. Voicing is
// decided by the source F0 at the rounded timeline position; voiced frames
// combine the base note, the interpolated pitch bend and the
// modulation-scaled source deviation from its base pitch.
func SynthesizePitchCurve(timeline, sourceF0 []float64, sourceBaseHz float64, p PitchParams) []float64 {
	// Source deviation in semitones per analysis frame, interpolated along
	// the timeline together with the other feature arrays. Unvoiced frames
	// contribute zero deviation so interpolation near gaps stays sane.
	offsets := make([]float64, len(sourceF0))
	for i, f := range sourceF0 {
		if f > 0 && sourceBaseHz > 0 {
			offsets[i] = 12 * math.Log2(f/sourceBaseHz)
		}
	}

	pps := BendPointsPerSecond(p.Tempo)
	fps := vocoder.FramesPerSecond()
	mod := p.Modulation / 100

	out := make([]float64, len(timeline))
	for i, pos := range timeline {
		idx := int(math.Round(pos))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sourceF0) {
			idx = len(sourceF0) - 1
		}
		if idx < 0 || sourceF0[idx] == 0 {
			continue
		}

		bend := bendAt(p.Bend, float64(i)/fps*pps)
		deviation := sampleAt(offsets, pos) * mod

		out[i] = note.MIDIToHz(float64(p.BaseMidi) + bend + deviation)
	}

	return out
}

// bendAt interpolates the bend curve at a fractional sample position,
// holding the last value beyond the end.
func bendAt(bend []float64, x float64) float64 {
	if len(bend) == 0 {
		return 0
	}
	if x <= 0 {
		return bend[0]
	}

	lo := int(x)
	if lo >= len(bend)-1 {
		return bend[len(bend)-1]
	}

	frac := x - float64(lo)
	return bend[lo]*(1-frac) + bend[lo+1]*frac
}
