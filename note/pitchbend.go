package note

import (
	"strconv"
	"strings"
)

// Pitch-bend curves travel as a compact string: pairs of base64-alphabet
// characters form 12-bit two's-complement values in 1/100 semitone, and
// "#<count>#" runs repeat the previously decoded value <count> more times.
// This wire format is fixed by the UTAU ecosystem and must decode bit-exact.

// DecodePitchBend decodes an encoded pitch-bend string into semitone
// offsets. Malformed characters decode as zero; a dangling single character
// at the end of a segment is dropped.
func DecodePitchBend(s string) []float64 {
	var out []float64

	for i, chunk := range strings.Split(s, "#") {
		if i%2 == 1 {
			count, err := strconv.Atoi(chunk)
			if err != nil || len(out) == 0 {
				continue
			}
			last := out[len(out)-1]
			for range count {
				out = append(out, last)
			}
			continue
		}

		for j := 0; j+1 < len(chunk); j += 2 {
			v := sixBit(chunk[j])<<6 | sixBit(chunk[j+1])
			if v > 2047 {
				v -= 4096
			}
			out = append(out, float64(v)/100)
		}
	}

	return out
}

// EncodePitchBend encodes semitone offsets into the two-character-per-sample
// wire form. Values are quantized to 1/100 semitone and clamped to the
// representable 12-bit range. No run-length compression is emitted.
func EncodePitchBend(curve []float64) string {
	var b strings.Builder
	b.Grow(2 * len(curve))

	for _, x := range curve {
		v := int(roundHalfAway(x * 100))
		if v < -2048 {
			v = -2048
		}
		if v > 2047 {
			v = 2047
		}
		if v < 0 {
			v += 4096
		}
		b.WriteByte(sixBitChar(v >> 6))
		b.WriteByte(sixBitChar(v & 63))
	}

	return b.String()
}

func sixBit(c byte) int {
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 26
	case c >= '0' && c <= '9':
		return int(c-'0') + 52
	case c == '+':
		return 62
	case c == '/':
		return 63
	default:
		return 0
	}
}

func sixBitChar(v int) byte {
	switch {
	case v < 26:
		return 'A' + byte(v)
	case v < 52:
		return 'a' + byte(v-26)
	case v < 62:
		return '0' + byte(v-52)
	case v == 62:
		return '+'
	default:
		return '/'
	}
}

func roundHalfAway(x float64) float64 {
	if x < 0 {
		return -float64(int(-x + 0.5))
	}
	return float64(int(x + 0.5))
}
