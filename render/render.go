package render

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-vox/features"
	"github.com/cwbudde/algo-vox/filter"
	"github.com/cwbudde/algo-vox/note"
	"github.com/cwbudde/algo-vox/plugin"
	"github.com/cwbudde/algo-vox/vocoder"
)

// Params collects everything one render needs beyond the analyzed source.
type Params struct {
	Timing Timing
	Pitch  PitchParams
	Flags  note.Flags

	// Volume scales the output, as a percentage.
	Volume float64
}

// Options carries the render's collaborators.
type Options struct {
	// Logger receives progress and degradation notices. Nil discards them.
	Logger *slog.Logger

	// Plugins run at the two hook points, in order. A hook error aborts
	// the render.
	Plugins []plugin.Processor

	// Engine is passed through to the synthesis engine, mainly to seed
	// the noise stream in tests.
	Engine []vocoder.EngineOption
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Render produces the output samples for one note. An empty timeline
// (degenerate timing parameters or an empty feature set) yields an empty,
// non-error result.
func Render(set *features.Set, p Params, opts Options) ([]float64, error) {
	if set == nil {
		return nil, fmt.Errorf("render: feature set must not be nil")
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	log := opts.logger()

	timeline := BuildTimeline(p.Timing, set.FrameCount())
	if len(timeline) == 0 {
		log.Debug("empty render timeline, producing silence")
		return nil, nil
	}

	f0 := SynthesizePitchCurve(timeline, set.F0, set.SourceBaseHz, p.Pitch)
	envelope := ResampleRows(set.Envelope, timeline)
	aperiodicity := ResampleRows(set.Aperiodicity, timeline)

	ApplyGender(envelope, p.Flags.Gender)
	ApplyBreathiness(aperiodicity, p.Flags.Breathiness)

	for _, proc := range opts.Plugins {
		if err := proc.ProcessFeatures(f0, envelope, aperiodicity, set.SampleRate); err != nil {
			return nil, fmt.Errorf("render: plugin %s feature hook failed: %w", proc.Metadata().Name, err)
		}
	}

	// Post-hook conditioning: a light spectral smoothing pass, and fully
	// aperiodic rows wherever the pitch curve decided a frame is unvoiced,
	// so no stray harmonic energy leaks into consonants.
	for _, row := range envelope {
		smoothRow(row)
	}
	for i, f := range f0 {
		if f == 0 {
			for k := range aperiodicity[i] {
				aperiodicity[i][k] = 1
			}
		}
	}

	engine, err := vocoder.NewEngine(set.SampleRate, set.FFTSize, opts.Engine...)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	out, err := engine.Synthesize(f0, envelope, aperiodicity)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	for _, proc := range opts.Plugins {
		if err := proc.ProcessAudio(out, set.SampleRate); err != nil {
			return nil, fmt.Errorf("render: plugin %s audio hook failed: %w", proc.Metadata().Name, err)
		}
	}

	if p.Volume != 100 {
		gain := p.Volume / 100
		for i := range out {
			out[i] *= gain
		}
	}

	if err := filter.EnhanceVocal(out, set.SampleRate); err != nil {
		log.Warn("post filter chain skipped", "error", err)
	}

	return out, nil
}

// smoothRow runs a width-3 moving average over a spectral row in place,
// taking the harshness out of interpolated envelopes.
func smoothRow(row []float64) {
	if len(row) < 3 {
		return
	}

	prev := row[0]
	for k := 1; k < len(row)-1; k++ {
		cur := row[k]
		row[k] = (prev + cur + row[k+1]) / 3
		prev = cur
	}
}
