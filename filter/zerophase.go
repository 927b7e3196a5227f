package filter

import (
	"fmt"
	"math"
)

// ZeroPhase runs a section over buf forward, then backward, cancelling the
// filter's phase response while applying its magnitude response twice.
// The section state is reset before and after each pass; the whole buffer
// must be in memory.
func ZeroPhase(s *Section, buf []float64) {
	s.Reset()
	s.ProcessBlock(buf)
	s.Reset()

	reverse(buf)
	s.ProcessBlock(buf)
	s.Reset()
	reverse(buf)
}

// SoftSaturate applies sign(x)*(1 - e^(-drive*|x|)) in place. At small
// amplitudes the curve is close to drive*x, so callers normally pre-scale
// to keep unity gain through the linear region.
func SoftSaturate(buf []float64, drive float64) {
	for i, x := range buf {
		y := 1 - math.Exp(-drive*math.Abs(x))
		if x < 0 {
			y = -y
		}
		buf[i] = y
	}
}

// EnhanceOption enables an optional stage of the vocal enhancement chain.
type EnhanceOption func(*enhanceConfig)

type enhanceConfig struct {
	presence   bool
	air        bool
	saturation bool
}

// WithPresence adds a gentle peaking boost around 3 kHz.
func WithPresence() EnhanceOption {
	return func(c *enhanceConfig) {
		c.presence = true
	}
}

// WithAir adds a high-shelf lift above 12 kHz.
func WithAir() EnhanceOption {
	return func(c *enhanceConfig) {
		c.air = true
	}
}

// WithSaturation adds the soft-saturation stage after filtering.
func WithSaturation() EnhanceOption {
	return func(c *enhanceConfig) {
		c.saturation = true
	}
}

const (
	rumbleCutoffHz  = 60.0
	presenceFreqHz  = 3000.0
	presenceGainDB  = 1.5
	airFreqHz       = 12000.0
	airGainDB       = 1.0
	saturationDrive = 1.5
)

// EnhanceVocal runs the fixed post filter chain over buf in place: a
// rumble-removing high-pass, optional presence and air stages, all
// zero-phase, then optional soft saturation. A coefficient construction
// failure aborts the chain and returns the error; callers treat it as
// non-fatal and keep the unfiltered audio.
func EnhanceVocal(buf []float64, sampleRate float64, opts ...EnhanceOption) error {
	if len(buf) == 0 {
		return nil
	}

	var cfg enhanceConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	hpf, err := Highpass(rumbleCutoffHz, 1/math.Sqrt2, sampleRate)
	if err != nil {
		return fmt.Errorf("enhance: highpass design failed: %w", err)
	}
	ZeroPhase(NewSection(hpf), buf)

	if cfg.presence {
		peak, err := Peak(presenceFreqHz, presenceGainDB, 1, sampleRate)
		if err != nil {
			return fmt.Errorf("enhance: presence design failed: %w", err)
		}
		ZeroPhase(NewSection(peak), buf)
	}

	if cfg.air {
		shelf, err := HighShelf(airFreqHz, airGainDB, 1/math.Sqrt2, sampleRate)
		if err != nil {
			return fmt.Errorf("enhance: air shelf design failed: %w", err)
		}
		ZeroPhase(NewSection(shelf), buf)
	}

	if cfg.saturation {
		// Pre-divide by the drive so the linear region stays near unity.
		for i := range buf {
			buf[i] /= saturationDrive
		}
		SoftSaturate(buf, saturationDrive)
	}

	return nil
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
