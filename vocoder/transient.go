package vocoder

// TransientDetector flags sudden energy steps (consonant attacks). The
// voicing smoother uses the flags as interpolation barriers so a filled
// pitch gap never bridges an attack.
type TransientDetector struct {
	windowSize int
	step       int
}

// NewTransientDetector creates a detector with the given analysis window
// and step, both in samples.
func NewTransientDetector(windowSize, step int) *TransientDetector {
	return &TransientDetector{windowSize: windowSize, step: step}
}

// Step returns the detector's hop in samples.
func (d *TransientDetector) Step() int {
	return d.step
}

// Detect returns one flag per step: true where chunk energy jumped to more
// than three times the previous chunk's and exceeds a silence floor.
func (d *TransientDetector) Detect(samples []float64) []bool {
	if d.step <= 0 || len(samples) == 0 {
		return nil
	}

	var out []bool
	lastEnergy := 0.0

	for start := 0; start < len(samples); start += d.step {
		end := min(start+d.windowSize, len(samples))

		energy := 0.0
		for _, x := range samples[start:end] {
			energy += x * x
		}

		out = append(out, energy > lastEnergy*3 && energy > 0.01)
		lastEnergy = energy
	}

	return out
}
