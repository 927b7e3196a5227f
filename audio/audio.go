// Package audio loads and stores the engine's waveforms. Sources of any
// channel count are mixed down to mono float64 on load; rendered output is
// written as 16-bit mono PCM.
package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Load reads a WAV file and returns its samples mixed down to a single
// channel, plus the sample rate.
func Load(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: failed to open %s: %w", path, err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	samples := make([]float64, 0, streamer.Len())
	buf := make([][2]float64, 2048)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, (frame[0]+frame[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, 0, fmt.Errorf("audio: failed to read %s: %w", path, err)
	}

	return samples, float64(format.SampleRate), nil
}

// Save writes samples as 16-bit mono PCM, clamping to [-1, 1]. An empty
// render writes a single silent frame so the output file is always a
// playable WAV.
func Save(path string, samples []float64, sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be > 0: %f", sampleRate)
	}
	if len(samples) == 0 {
		samples = []float64{0}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: failed to create %s: %w", path, err)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(int(sampleRate)),
		NumChannels: 1,
		Precision:   2,
	}

	pos := 0
	streamer := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < len(samples) {
			v := clamp(samples[pos])
			buf[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	if err := wav.Encode(f, streamer, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("audio: failed to encode %s: %w", path, err)
	}

	return f.Close()
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
