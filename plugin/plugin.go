// Package plugin defines the extension points the render pipeline exposes
// and the machinery for discovering and loading external processors.
package plugin

// Metadata identifies a processor.
type Metadata struct {
	Name        string
	Version     string
	Author      string
	Description string
}

// Processor is the contract an external extension implements. The render
// pipeline calls ProcessFeatures once after the per-frame feature arrays
// are finalized and ProcessAudio once after waveform synthesis; both
// mutate their arguments in place. An error from either hook aborts the
// render.
type Processor interface {
	Metadata() Metadata

	// ProcessFeatures may mutate the render-frame F0 track and the
	// envelope and aperiodicity rows. All slices share one frame axis;
	// sampleRate is the rate the rows were analyzed at.
	ProcessFeatures(f0 []float64, envelope, aperiodicity [][]float64, sampleRate float64) error

	// ProcessAudio may mutate the synthesized samples.
	ProcessAudio(samples []float64, sampleRate float64) error
}
