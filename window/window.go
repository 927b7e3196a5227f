// Package window generates the analysis windows used by the vocoder.
//
// Only the raised-cosine family is provided. Pitch-synchronous analysis needs
// midpoint-aligned evaluation (the window is sampled at (i+0.5)/n rather than
// i/(n-1)) so that very short windows keep nonzero edge weights.
package window

import "math"

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
	midpoint bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// WithMidpoint evaluates the window at sample midpoints, (i+0.5)/n.
// This is the form used for pitch-synchronous analysis windows.
func WithMidpoint() Option {
	return func(c *config) {
		c.midpoint = true
	}
}

// Generate returns n window coefficients of the given type.
// n <= 0 returns nil.
func Generate(t Type, n int, opts ...Option) []float64 {
	if n <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = evaluate(t, phase(i, n, cfg))
	}

	return out
}

// Sum returns the sum of the coefficients. Used to normalize
// pitch-synchronous power spectra.
func Sum(coeffs []float64) float64 {
	sum := 0.0
	for _, w := range coeffs {
		sum += w
	}

	return sum
}

func phase(i, n int, cfg config) float64 {
	switch {
	case cfg.midpoint:
		return (float64(i) + 0.5) / float64(n)
	case cfg.periodic:
		return float64(i) / float64(n)
	case n == 1:
		return 0.5
	default:
		return float64(i) / float64(n-1)
	}
}

func evaluate(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return 0.5 * (1 - math.Cos(2*math.Pi*x))
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*x)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	default:
		return 1
	}
}
