package filter

import (
	"math"
	"testing"
)

const eps = 1e-12

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}
	return out
}

func rms(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range buf {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestSectionPassthrough(t *testing.T) {
	s := NewSection(Coefficients{B0: 1})
	for i, x := range []float64{1, 0, -1, 0.5, 0.25} {
		if y := s.ProcessSample(x); math.Abs(y-x) > eps {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessBlockMatchesProcessSample(t *testing.T) {
	c, err := Highpass(100, 0.707, 44100)
	if err != nil {
		t.Fatal(err)
	}

	in := sine(440, 44100, 256)
	blockOut := append([]float64(nil), in...)
	NewSection(c).ProcessBlock(blockOut)

	s := NewSection(c)
	for i, x := range in {
		want := s.ProcessSample(x)
		if math.Abs(blockOut[i]-want) > eps {
			t.Fatalf("sample %d: block %v, sample %v", i, blockOut[i], want)
		}
	}
}

func TestHighpassAttenuatesLowPassesHigh(t *testing.T) {
	const sr = 44100

	c, err := Highpass(1000, 0.707, sr)
	if err != nil {
		t.Fatal(err)
	}

	low := sine(50, sr, 8192)
	NewSection(c).ProcessBlock(low)
	if got := rms(low[4096:]); got > 0.02 {
		t.Errorf("50 Hz rms after 1 kHz highpass = %v, want < 0.02", got)
	}

	high := sine(8000, sr, 8192)
	NewSection(c).ProcessBlock(high)
	if got := rms(high[4096:]); got < 0.5 {
		t.Errorf("8 kHz rms after 1 kHz highpass = %v, want > 0.5", got)
	}
}

func TestDesignRejectsBadFrequencies(t *testing.T) {
	for _, freq := range []float64{0, -10, 22050, 30000} {
		if _, err := Highpass(freq, 0.707, 44100); err == nil {
			t.Errorf("Highpass(%v): expected error", freq)
		}
	}
	if _, err := Peak(1000, 3, 1, 0); err == nil {
		t.Error("Peak with zero sample rate: expected error")
	}
}

func TestZeroPhasePreservesSymmetry(t *testing.T) {
	// A symmetric input through a zero-phase filter stays symmetric;
	// a single forward pass would skew it.
	const sr = 44100

	c, err := Highpass(60, 0.707, sr)
	if err != nil {
		t.Fatal(err)
	}

	n := 2001
	buf := make([]float64, n)
	for i := range buf {
		x := float64(i-n/2) / 200.0
		buf[i] = math.Exp(-x * x)
	}

	ZeroPhase(NewSection(c), buf)

	for i := 0; i < n/2; i++ {
		if math.Abs(buf[i]-buf[n-1-i]) > 1e-6 {
			t.Fatalf("asymmetry at %d: %v vs %v", i, buf[i], buf[n-1-i])
		}
	}
}

func TestSoftSaturateBoundsOutput(t *testing.T) {
	buf := []float64{-100, -1, -0.1, 0, 0.1, 1, 100}
	SoftSaturate(buf, 1.5)

	for i, x := range buf {
		if math.Abs(x) >= 1 {
			t.Errorf("index %d: |%v| >= 1", i, x)
		}
	}
	if buf[3] != 0 {
		t.Errorf("zero input must stay zero, got %v", buf[3])
	}
	if buf[0] >= 0 || buf[6] <= 0 {
		t.Error("saturation must preserve sign")
	}
}

func TestEnhanceVocalRemovesDC(t *testing.T) {
	const sr = 44100

	buf := make([]float64, 8192)
	for i := range buf {
		buf[i] = 0.5 // pure DC, fully below the rumble cutoff
	}

	if err := EnhanceVocal(buf, sr); err != nil {
		t.Fatal(err)
	}

	if got := rms(buf[2048:6144]); got > 0.01 {
		t.Errorf("DC rms after enhancement = %v, want < 0.01", got)
	}
}

func TestEnhanceVocalEmptyAndOptions(t *testing.T) {
	if err := EnhanceVocal(nil, 44100); err != nil {
		t.Fatalf("empty buffer: %v", err)
	}

	buf := sine(440, 44100, 4096)
	if err := EnhanceVocal(buf, 44100, WithPresence(), WithAir(), WithSaturation()); err != nil {
		t.Fatalf("full chain: %v", err)
	}
	for i, x := range buf {
		if math.IsNaN(x) || math.Abs(x) >= 1 {
			t.Fatalf("index %d: bad sample %v", i, x)
		}
	}
}

func TestEnhanceVocalLowSampleRateFails(t *testing.T) {
	// 100 Hz sample rate puts the 60 Hz cutoff above nyquist.
	buf := sine(10, 100, 64)
	if err := EnhanceVocal(buf, 100); err == nil {
		t.Fatal("expected design failure at 100 Hz sample rate")
	}
}
