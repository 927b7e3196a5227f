package note

import "strconv"

// DefaultBreathiness is the neutral breathiness value (no aperiodicity mix).
const DefaultBreathiness = 50.0

// Flags holds the recognized voice flags. Gender 0 and breathiness 50 are
// the neutral values.
type Flags struct {
	Gender      float64
	Breathiness float64
}

// ParseFlags scans a free-form flag string. Recognized tokens are 'g'/'G'
// and 'b'/'B', each followed by an optionally-signed decimal number. '/'
// separators and unrecognized characters are skipped. ParseFlags never
// fails; missing or malformed tokens keep their defaults.
func ParseFlags(s string) Flags {
	f := Flags{Gender: 0, Breathiness: DefaultBreathiness}

	i := 0
	for i < len(s) {
		switch s[i] {
		case 'g', 'G':
			v, next, ok := scanNumber(s, i+1)
			if ok {
				f.Gender = v
			}
			i = next
		case 'b', 'B':
			v, next, ok := scanNumber(s, i+1)
			if ok {
				f.Breathiness = v
			}
			i = next
		default:
			i++
		}
	}

	return f
}

// scanNumber reads an optionally-signed decimal starting at position start.
// It returns the parsed value, the position after the numeric run, and
// whether a valid number was found.
func scanNumber(s string, start int) (float64, int, bool) {
	end := start
	for end < len(s) && isNumberByte(s[end]) {
		end++
	}

	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0, end, false
	}

	return v, end, true
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '+' || b == '.'
}
