package note_test

import (
	"fmt"

	"github.com/cwbudde/algo-vox/note"
)

func ExampleParsePitch() {
	midi, _ := note.ParsePitch("C#4")
	fmt.Printf("midi=%d hz=%.2f\n", midi, note.MIDIToHz(float64(midi)))

	// Output:
	// midi=61 hz=277.18
}

func ExampleParseFlags() {
	f := note.ParseFlags("g-10B70")
	fmt.Printf("gender=%.0f breathiness=%.0f\n", f.Gender, f.Breathiness)

	// Output:
	// gender=-10 breathiness=70
}

func ExampleDecodePitchBend() {
	curve := note.DecodePitchBend("AAAB#2#")
	fmt.Println(curve)

	// Output:
	// [0 0.01 0.01 0.01]
}
