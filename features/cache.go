package features

import (
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cwbudde/algo-vox/vocoder"
)

// SidecarSuffix is appended to the source file path to form the cache path.
const SidecarSuffix = ".voxf"

// SidecarPath returns the cache file path for a source audio file.
func SidecarPath(source string) string {
	return source + SidecarSuffix
}

// CacheOptions controls sidecar behavior for LoadOrAnalyze.
type CacheOptions struct {
	// Enabled turns the sidecar cache on. When off, analysis always runs
	// and no sidecar is read or written.
	Enabled bool

	// Verify re-hashes the source audio and discards a cached Set whose
	// recorded hash no longer matches. Off by default: a present sidecar
	// is trusted even if the audio changed since it was written.
	Verify bool

	// Logger receives cache decisions. Nil discards them.
	Logger *slog.Logger
}

func (o CacheOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Load reads and validates a cached Set. A sidecar that cannot be decoded
// or fails validation is an error; the caller decides whether that is
// fatal.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var set Set
	if err := gob.NewDecoder(f).Decode(&set); err != nil {
		return nil, fmt.Errorf("features: failed to decode cache %s: %w", path, err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("features: cache %s is malformed: %w", path, err)
	}

	return &set, nil
}

// Save writes the Set to the given path. A cache write is a plain single
// file create and write; a torn write surfaces later as a decode failure.
func (s *Set) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("features: failed to create cache %s: %w", path, err)
	}

	if err := gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("features: failed to encode cache %s: %w", path, err)
	}

	return f.Close()
}

// HashFile fingerprints a source audio file for cache verification.
func HashFile(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("features: failed to hash %s: %w", path, err)
	}
	return sha256.Sum256(data), nil
}

// LoadOrAnalyze returns the Set for a source file, reading the sidecar
// cache when present and running the full analysis otherwise. Fresh
// results are written back to the sidecar; a failed cache write is logged
// and does not fail the call.
func LoadOrAnalyze(v *vocoder.Vocoder, samples []float64, sourcePath string, opts CacheOptions) (*Set, error) {
	log := opts.logger()

	if !opts.Enabled {
		return Analyze(v, samples)
	}

	sidecar := SidecarPath(sourcePath)

	set, err := Load(sidecar)
	switch {
	case err == nil:
		if !opts.Verify {
			log.Debug("analysis cache hit", "path", sidecar)
			return set, nil
		}

		hash, hashErr := HashFile(sourcePath)
		if hashErr != nil {
			return nil, hashErr
		}
		if hash == set.SourceHash {
			log.Debug("analysis cache hit", "path", sidecar, "verified", true)
			return set, nil
		}
		log.Warn("analysis cache is stale, re-analyzing", "path", sidecar)

	case errors.Is(err, fs.ErrNotExist):
		log.Debug("analysis cache miss", "path", sidecar)

	default:
		return nil, err
	}

	set, err = Analyze(v, samples)
	if err != nil {
		return nil, err
	}

	if hash, hashErr := HashFile(sourcePath); hashErr == nil {
		set.SourceHash = hash
	} else {
		log.Warn("failed to fingerprint source for cache", "error", hashErr)
	}

	if err := set.Save(sidecar); err != nil {
		log.Warn("failed to write analysis cache", "path", sidecar, "error", err)
	}

	return set, nil
}
