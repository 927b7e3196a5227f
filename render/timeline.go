// Package render turns one analyzed source and one set of note parameters
// into output samples: it builds the timing warp, resamples the feature
// arrays along it, applies flag transforms and the pitch curve, runs the
// synthesis engine and the post filter chain.
package render

import (
	"math"

	"github.com/cwbudde/algo-vox/vocoder"
)

// Timing holds the note-timing parameters of one render. All fields are
// milliseconds except Velocity, which is a percentage (100 = nominal
// consonant rate).
type Timing struct {
	// OffsetMs is where the note region starts within the source.
	OffsetMs float64

	// ConsonantMs is the length of the fixed (never stretched) attack
	// portion, measured in source time.
	ConsonantMs float64

	// LengthMs is the requested output length of the sustain portion.
	LengthMs float64

	// CutoffMs trims the source region: negative values measure the
	// region length forward from its start, non-negative values cut
	// backward from the end of the source.
	CutoffMs float64

	Velocity float64
}

// VelocityRate converts a velocity percentage into the consonant rate
// multiplier. 100 maps to 1, 0 to 2 (twice as slow), 200 to 0.5.
func VelocityRate(velocity float64) float64 {
	return math.Exp2(1 - velocity/100)
}

// BuildTimeline maps every output frame to a fractional index into the
// feature frame axis. The consonant segment is rate-scaled but never
// stretched; the sustain segment is sliced when the source region is
// longer than requested and stretched over it otherwise. The builder never
// fails: degenerate inputs produce an empty or single-frame timeline.
// All returned values lie in [0, frameCount-1].
func BuildTimeline(t Timing, frameCount int) []float64 {
	if frameCount <= 0 {
		return nil
	}

	fps := vocoder.FramesPerSecond()
	duration := float64(frameCount) / fps

	start := t.OffsetMs / 1000
	consonantEnd := start + t.ConsonantMs/1000

	var end float64
	if t.CutoffMs < 0 {
		end = start - t.CutoffMs/1000
	} else {
		end = duration - t.CutoffMs/1000
	}
	// A cutoff that eats the whole region would make the sustain run
	// backwards; pin it so the timeline stays non-decreasing.
	end = math.Max(end, consonantEnd)

	rate := VelocityRate(t.Velocity)
	consonantCount := int(rate * t.ConsonantMs / vocoder.FramePeriodMs)

	timeline := make([]float64, 0, consonantCount)

	// Consonant: linearly spaced over [start, consonantEnd), right
	// endpoint excluded so the sustain picks up exactly where the
	// consonant leaves off.
	for i := range consonantCount {
		pos := start + float64(i)*(consonantEnd-start)/float64(consonantCount)
		timeline = append(timeline, pos*fps)
	}

	targetLen := t.LengthMs / 1000
	sustainCount := int(math.Round(targetLen * fps))

	if end-consonantEnd > targetLen {
		// Source region longer than the note: slice a contiguous run of
		// frames, no interpolation.
		base := int(math.Round(consonantEnd * fps))
		for i := range sustainCount {
			timeline = append(timeline, float64(base+i))
		}
	} else if sustainCount > 0 {
		// Source region shorter than the note: stretch over
		// [consonantEnd, end], right endpoint included.
		if sustainCount == 1 {
			timeline = append(timeline, consonantEnd*fps)
		} else {
			step := (end - consonantEnd) / float64(sustainCount-1)
			for i := range sustainCount {
				timeline = append(timeline, (consonantEnd+float64(i)*step)*fps)
			}
		}
	}

	limit := float64(frameCount - 1)
	for i, pos := range timeline {
		timeline[i] = math.Min(math.Max(pos, 0), limit)
	}

	return timeline
}
