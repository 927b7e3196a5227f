package features

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-vox/internal/testutil"
	"github.com/cwbudde/algo-vox/vocoder"
)

func TestAnalyzeSineSource(t *testing.T) {
	const (
		sr   = 44100.0
		freq = 220.0
	)

	v, err := vocoder.New(sr)
	if err != nil {
		t.Fatal(err)
	}

	samples := testutil.DeterministicSine(freq, sr, 0.5, int(sr/2))
	set, err := Analyze(v, samples)
	if err != nil {
		t.Fatal(err)
	}

	if err := set.Validate(); err != nil {
		t.Fatal(err)
	}

	hop := vocoder.HopSize(sr)
	if want := len(samples) / hop; set.FrameCount() != want {
		t.Fatalf("frame count %d, want %d", set.FrameCount(), want)
	}

	if math.Abs(set.SourceBaseHz-freq) > freq*0.05 {
		t.Fatalf("base pitch %v Hz, want within 5%% of %v", set.SourceBaseHz, freq)
	}

	voiced := 0
	for _, f := range set.F0 {
		if f > 0 {
			voiced++
		}
	}
	if voiced < set.FrameCount()/2 {
		t.Fatalf("only %d of %d frames voiced", voiced, set.FrameCount())
	}
}

func TestAnalyzeSilenceFallsBackToDefaultBase(t *testing.T) {
	v, err := vocoder.New(44100)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Analyze(v, make([]float64, 44100/4))
	if err != nil {
		t.Fatal(err)
	}

	if set.SourceBaseHz != DefaultBaseHz {
		t.Fatalf("base pitch %v, want default %v", set.SourceBaseHz, DefaultBaseHz)
	}
	for i, f := range set.F0 {
		if f != 0 {
			t.Fatalf("frame %d: silence analyzed as %v Hz", i, f)
		}
	}
}

func TestMedianVoiced(t *testing.T) {
	tests := []struct {
		name string
		f0   []float64
		want float64
	}{
		{"odd count", []float64{100, 200, 300}, 200},
		{"even count", []float64{100, 200, 300, 400}, 250},
		{"ignores unvoiced and sub-floor", []float64{0, 40, 200, 0}, 200},
		{"empty", nil, DefaultBaseHz},
		{"all unvoiced", []float64{0, 0, 0}, DefaultBaseHz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianVoiced(tt.f0); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsMalformedSet(t *testing.T) {
	good := func() *Set {
		return &Set{
			F0:           []float64{220},
			Envelope:     [][]float64{make([]float64, 64/2+1)},
			Aperiodicity: [][]float64{make([]float64, 64/2+1)},
			SourceBaseHz: 220,
			FFTSize:      64,
			SampleRate:   44100,
		}
	}

	if err := good().Validate(); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Set)
	}{
		{"frame count mismatch", func(s *Set) { s.Envelope = nil }},
		{"bad fft size", func(s *Set) { s.FFTSize = 1000 }},
		{"bad sample rate", func(s *Set) { s.SampleRate = 0 }},
		{"bad base pitch", func(s *Set) { s.SourceBaseHz = 0 }},
		{"short row", func(s *Set) { s.Aperiodicity[0] = s.Aperiodicity[0][:5] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func writeTestSource(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.wav")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "set"+SidecarSuffix)

	want := &Set{
		F0:           []float64{220, 0, 221},
		Envelope:     [][]float64{make([]float64, 33), make([]float64, 33), make([]float64, 33)},
		Aperiodicity: [][]float64{make([]float64, 33), make([]float64, 33), make([]float64, 33)},
		SourceBaseHz: 220.5,
		FFTSize:      64,
		SampleRate:   44100,
	}
	want.Envelope[0][10] = 0.125

	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.SourceBaseHz != want.SourceBaseHz || got.FFTSize != want.FFTSize {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	testutil.RequireSliceNearlyEqual(t, got.F0, want.F0, 0)
	testutil.RequireSliceNearlyEqual(t, got.Envelope[0], want.Envelope[0], 0)
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken"+SidecarSuffix)
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("garbage cache accepted")
	}
}

func TestLoadOrAnalyzeWritesAndReusesSidecar(t *testing.T) {
	const sr = 44100.0

	v, err := vocoder.New(sr)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	source := writeTestSource(t, dir)
	samples := testutil.DeterministicSine(220, sr, 0.5, int(sr/4))

	first, err := LoadOrAnalyze(v, samples, source, CacheOptions{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(SidecarPath(source)); err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}

	// A second call must come from the sidecar: feed different samples and
	// expect the cached result regardless.
	second, err := LoadOrAnalyze(v, make([]float64, len(samples)), source, CacheOptions{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, second.F0, first.F0, 0)
}

func TestLoadOrAnalyzeVerifyDetectsStaleSidecar(t *testing.T) {
	const sr = 44100.0

	v, err := vocoder.New(sr)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	source := writeTestSource(t, dir)
	samples := testutil.DeterministicSine(220, sr, 0.5, int(sr/4))

	if _, err := LoadOrAnalyze(v, samples, source, CacheOptions{Enabled: true, Verify: true}); err != nil {
		t.Fatal(err)
	}

	// Change the source; without verification the stale sidecar would be
	// trusted, with it the silence must be re-analyzed.
	if err := os.WriteFile(source, []byte("different bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadOrAnalyze(v, make([]float64, len(samples)), source, CacheOptions{Enabled: true, Verify: true})
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range set.F0 {
		if f != 0 {
			t.Fatalf("frame %d: stale cache served voiced frame %v", i, f)
		}
	}
}

func TestLoadOrAnalyzeDisabledSkipsSidecar(t *testing.T) {
	const sr = 44100.0

	v, err := vocoder.New(sr)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	source := writeTestSource(t, dir)

	if _, err := LoadOrAnalyze(v, make([]float64, int(sr/10)), source, CacheOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(SidecarPath(source)); err == nil {
		t.Fatal("sidecar written with cache disabled")
	}
}
