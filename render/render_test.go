package render

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-vox/features"
	"github.com/cwbudde/algo-vox/internal/testutil"
	"github.com/cwbudde/algo-vox/note"
	"github.com/cwbudde/algo-vox/plugin"
	"github.com/cwbudde/algo-vox/vocoder"
)

// testSet builds a synthetic feature set: a steady 220 Hz voice with a
// flat envelope, half a second long.
func testSet(t *testing.T) *features.Set {
	t.Helper()

	const (
		sr      = 44100.0
		fftSize = 512
		frames  = 100
	)

	bins := fftSize/2 + 1
	set := &features.Set{
		F0:           make([]float64, frames),
		Envelope:     make([][]float64, frames),
		Aperiodicity: make([][]float64, frames),
		SourceBaseHz: 220,
		FFTSize:      fftSize,
		SampleRate:   sr,
	}
	for i := range frames {
		set.F0[i] = 220
		set.Envelope[i] = testutil.DC(1e-4, bins)
		set.Aperiodicity[i] = testutil.DC(0.1, bins)
	}

	if err := set.Validate(); err != nil {
		t.Fatal(err)
	}
	return set
}

func testParams() Params {
	return Params{
		Timing: Timing{LengthMs: 300, Velocity: 100},
		Pitch:  PitchParams{BaseMidi: 57, Tempo: 120, Modulation: 100},
		Flags:  note.Flags{Breathiness: 50},
		Volume: 100,
	}
}

func testOptions() Options {
	return Options{Engine: []vocoder.EngineOption{vocoder.WithNoiseSeed(1, 2)}}
}

func TestRenderProducesRequestedLength(t *testing.T) {
	set := testSet(t)

	out, err := Render(set, testParams(), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	// 300 ms at 200 frames/s is 60 render frames.
	hop := vocoder.HopSize(set.SampleRate)
	if want := 60 * hop; len(out) != want {
		t.Fatalf("output length %d, want %d", len(out), want)
	}
	testutil.RequireFinite(t, out)
	if testutil.RMS(out) == 0 {
		t.Fatal("render produced silence")
	}
}

func TestRenderEmptyTimelineYieldsEmptyOutput(t *testing.T) {
	set := testSet(t)

	p := testParams()
	p.Timing = Timing{Velocity: 100}

	out, err := Render(set, p, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("degenerate timing produced %d samples", len(out))
	}
}

func TestRenderVolumeScalesOutput(t *testing.T) {
	set := testSet(t)

	loud, err := Render(set, testParams(), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	p := testParams()
	p.Volume = 50
	quiet, err := Render(set, p, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	ratio := testutil.RMS(quiet) / testutil.RMS(loud)
	if math.Abs(ratio-0.5) > 0.05 {
		t.Fatalf("RMS ratio %v, want 0.5", ratio)
	}
}

func TestRenderRejectsInvalidSet(t *testing.T) {
	if _, err := Render(nil, testParams(), Options{}); err == nil {
		t.Fatal("nil set accepted")
	}

	set := testSet(t)
	set.Envelope = set.Envelope[:10]
	if _, err := Render(set, testParams(), Options{}); err == nil {
		t.Fatal("malformed set accepted")
	}
}

type hookProcessor struct {
	name       string
	featureErr error
	audioErr   error

	gain float64

	featureRate float64
	audioRate   float64
}

func (p *hookProcessor) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: p.name, Version: "1.0"}
}

func (p *hookProcessor) ProcessFeatures(f0 []float64, envelope, aperiodicity [][]float64, sampleRate float64) error {
	p.featureRate = sampleRate
	return p.featureErr
}

func (p *hookProcessor) ProcessAudio(samples []float64, sampleRate float64) error {
	p.audioRate = sampleRate
	if p.audioErr != nil {
		return p.audioErr
	}
	if p.gain != 0 {
		for i := range samples {
			samples[i] *= p.gain
		}
	}
	return nil
}

func TestRenderPluginHookFailureAborts(t *testing.T) {
	set := testSet(t)

	opts := testOptions()
	opts.Plugins = []plugin.Processor{&hookProcessor{name: "breaker", featureErr: errors.New("boom")}}

	_, err := Render(set, testParams(), opts)
	if err == nil {
		t.Fatal("feature hook error swallowed")
	}
	if !strings.Contains(err.Error(), "breaker") {
		t.Fatalf("error does not name the plugin: %v", err)
	}

	opts.Plugins = []plugin.Processor{&hookProcessor{name: "breaker", audioErr: errors.New("boom")}}
	if _, err := Render(set, testParams(), opts); err == nil {
		t.Fatal("audio hook error swallowed")
	}
}

func TestRenderPluginAudioHookMutatesOutput(t *testing.T) {
	set := testSet(t)

	base, err := Render(set, testParams(), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Plugins = []plugin.Processor{&hookProcessor{name: "halver", gain: 0.5}}
	halved, err := Render(set, testParams(), opts)
	if err != nil {
		t.Fatal(err)
	}

	ratio := testutil.RMS(halved) / testutil.RMS(base)
	if math.Abs(ratio-0.5) > 0.05 {
		t.Fatalf("RMS ratio %v, want 0.5", ratio)
	}
}

func TestRenderPassesSampleRateToHooks(t *testing.T) {
	set := testSet(t)

	proc := &hookProcessor{name: "rate-check"}
	opts := testOptions()
	opts.Plugins = []plugin.Processor{proc}

	if _, err := Render(set, testParams(), opts); err != nil {
		t.Fatal(err)
	}

	if proc.featureRate != set.SampleRate {
		t.Fatalf("feature hook saw rate %v, want %v", proc.featureRate, set.SampleRate)
	}
	if proc.audioRate != set.SampleRate {
		t.Fatalf("audio hook saw rate %v, want %v", proc.audioRate, set.SampleRate)
	}
}

func TestRenderUnvoicedSourceStillRenders(t *testing.T) {
	set := testSet(t)
	for i := range set.F0 {
		set.F0[i] = 0
	}

	out, err := Render(set, testParams(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireFinite(t, out)
	if testutil.RMS(out) == 0 {
		t.Fatal("unvoiced render produced silence, want shaped noise")
	}
}
