// Package note parses the note parameters a resampler invocation carries:
// pitch names, tempo strings, the free-form flag string, and the encoded
// pitch-bend curve.
package note

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePitch converts a pitch argument to a MIDI note number.
//
// Numeric strings pass through unchanged. Note names follow the grammar
// letter A-G (case-insensitive), optional '#' or 'b' accidental, then a
// signed integer octave: MIDI = (octave+1)*12 + semitone. An empty string
// is an error.
func ParsePitch(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("pitch string is empty")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	var semitone int
	switch s[0] {
	case 'C', 'c':
		semitone = 0
	case 'D', 'd':
		semitone = 2
	case 'E', 'e':
		semitone = 4
	case 'F', 'f':
		semitone = 5
	case 'G', 'g':
		semitone = 7
	case 'A', 'a':
		semitone = 9
	case 'B', 'b':
		semitone = 11
	default:
		return 0, fmt.Errorf("pitch note letter invalid: %q", s[0])
	}

	rest := s[1:]
	if rest != "" {
		switch rest[0] {
		case '#':
			semitone++
			rest = rest[1:]
		case 'b', 'B':
			semitone--
			rest = rest[1:]
		}
	}

	if rest == "" {
		return 0, fmt.Errorf("pitch %q is missing an octave number", s)
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("pitch octave invalid: %q", rest)
	}

	return (octave+1)*12 + semitone, nil
}

// ParseTempo parses a tempo argument. A leading '!' prefix is stripped
// (UTAU hosts prepend it); the remaining value must parse as a positive
// number.
func ParseTempo(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "!")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("tempo value invalid: %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("tempo must be positive: %g", v)
	}

	return v, nil
}

// MIDIToHz converts a MIDI note number to frequency in Hz (A4 = 69 = 440 Hz).
func MIDIToHz(midi float64) float64 {
	return 440 * math.Exp2((midi-69)/12)
}

// HzToMIDI converts a frequency in Hz to a MIDI note number.
func HzToMIDI(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440)
}
