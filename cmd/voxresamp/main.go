// Command voxresamp renders one note from a voicebank sample, following
// the classic resampler invocation contract: a fixed tuple of positional
// arguments describing the source, the target note and its timing.
//
// Usage:
//
//	voxresamp [flags] <in.wav> <out.wav> <pitch> <velocity> <flagstring>
//	          <offset> <length> <consonant> <cutoff> <volume>
//	          <modulation> <tempo> [pitchbend]
//
// Pitch is a MIDI note number or a note name such as C#4. Tempo may carry
// a leading "!". All time values are milliseconds; velocity, volume and
// modulation are percentages.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cwbudde/algo-vox/audio"
	"github.com/cwbudde/algo-vox/config"
	"github.com/cwbudde/algo-vox/features"
	"github.com/cwbudde/algo-vox/note"
	"github.com/cwbudde/algo-vox/plugin"
	"github.com/cwbudde/algo-vox/render"
	"github.com/cwbudde/algo-vox/vocoder"
)

func main() {
	configPath := flag.String("config", "voxresamp.toml", "configuration file")
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "voxresamp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	if len(args) < 12 {
		return fmt.Errorf("expected at least 12 arguments, got %d (see -h)", len(args))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	inPath, outPath := args[0], args[1]

	pitch, err := note.ParsePitch(args[2])
	if err != nil {
		return err
	}
	velocity, err := parsePercent("velocity", args[3])
	if err != nil {
		return err
	}
	flags := note.ParseFlags(args[4])

	offset, err := parseMs("offset", args[5])
	if err != nil {
		return err
	}
	length, err := parseMs("length", args[6])
	if err != nil {
		return err
	}
	consonant, err := parseMs("consonant", args[7])
	if err != nil {
		return err
	}
	cutoff, err := parseMs("cutoff", args[8])
	if err != nil {
		return err
	}
	volume, err := parsePercent("volume", args[9])
	if err != nil {
		return err
	}
	modulation, err := parsePercent("modulation", args[10])
	if err != nil {
		return err
	}
	tempo, err := note.ParseTempo(args[11])
	if err != nil {
		return err
	}

	var bend []float64
	if len(args) > 12 {
		bend = note.DecodePitchBend(args[12])
	}

	samples, sampleRate, err := audio.Load(inPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded source", "path", inPath, "samples", len(samples), "rate", sampleRate)

	if len(samples) == 0 {
		logger.Warn("source is empty, writing silence", "path", inPath)
		return audio.Save(outPath, nil, sampleRate)
	}

	voc, err := vocoder.New(sampleRate)
	if err != nil {
		return err
	}

	set, err := features.LoadOrAnalyze(voc, samples, inPath, features.CacheOptions{
		Enabled: cfg.General.AnalysisCache,
		Verify:  cfg.General.VerifyCache,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	plugins, err := loadPlugins(cfg, logger)
	if err != nil {
		return err
	}

	out, err := render.Render(set, render.Params{
		Timing: render.Timing{
			OffsetMs:    offset,
			ConsonantMs: consonant,
			LengthMs:    length,
			CutoffMs:    cutoff,
			Velocity:    velocity,
		},
		Pitch: render.PitchParams{
			BaseMidi:   pitch,
			Bend:       bend,
			Tempo:      tempo,
			Modulation: modulation,
		},
		Flags:  flags,
		Volume: volume,
	}, render.Options{
		Logger:  logger,
		Plugins: plugins,
	})
	if err != nil {
		return err
	}

	if err := audio.Save(outPath, out, sampleRate); err != nil {
		return err
	}
	logger.Debug("wrote output", "path", outPath, "samples", len(out))

	return nil
}

// loadPlugins combines the catalog's enabled entries with explicitly
// configured plugins. Individual load failures are logged and skipped;
// only a broken catalog is fatal.
func loadPlugins(cfg config.Config, logger *slog.Logger) ([]plugin.Processor, error) {
	var paths []string

	if cfg.Catalog.Path != "" {
		catalog, err := plugin.OpenCatalog(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		defer catalog.Close()

		paths, err = catalog.EnabledPaths()
		if err != nil {
			return nil, err
		}
	}

	for _, p := range cfg.Plugins {
		paths = append(paths, p.Path)
	}

	return plugin.OpenAll(paths, logger), nil
}

func parseMs(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func parsePercent(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0: %v", name, v)
	}
	return v, nil
}
