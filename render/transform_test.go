package render

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vox/internal/testutil"
)

func TestResampleTrack(t *testing.T) {
	track := []float64{0, 10, 20}

	tests := []struct {
		pos  float64
		want float64
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.75, 17.5},
		{2, 20},
		{5, 20}, // clamps past the end
	}

	for _, tt := range tests {
		got := ResampleTrack(track, []float64{tt.pos})
		if math.Abs(got[0]-tt.want) > 1e-12 {
			t.Fatalf("position %v: got %v, want %v", tt.pos, got[0], tt.want)
		}
	}
}

func TestResampleRowsBlends(t *testing.T) {
	rows := [][]float64{
		{0, 0, 0},
		{1, 2, 3},
	}

	out := ResampleRows(rows, []float64{0, 0.5, 1})

	testutil.RequireSliceNearlyEqual(t, out[0], []float64{0, 0, 0}, 0)
	testutil.RequireSliceNearlyEqual(t, out[1], []float64{0.5, 1, 1.5}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, out[2], []float64{1, 2, 3}, 0)

	// Output rows are copies; mutating them must not touch the source.
	out[2][0] = 99
	if rows[1][0] != 1 {
		t.Fatal("resampled row aliases the source")
	}
}

func TestApplyGender(t *testing.T) {
	row := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append([]float64(nil), row...)

	ApplyGender([][]float64{row}, 0)
	testutil.RequireSliceNearlyEqual(t, row, orig, 0)

	// +120 doubles the read ratio: bin k reads source bin 2k, clamped.
	ApplyGender([][]float64{row}, 120)
	want := []float64{1, 3, 5, 7, 8, 8, 8, 8}
	testutil.RequireSliceNearlyEqual(t, row, want, 1e-12)
}

func TestApplyBreathiness(t *testing.T) {
	mkRows := func() [][]float64 {
		return [][]float64{{0, 0.5, 1}}
	}

	neutral := mkRows()
	ApplyBreathiness(neutral, 50)
	testutil.RequireSliceNearlyEqual(t, neutral[0], []float64{0, 0.5, 1}, 0)

	full := mkRows()
	ApplyBreathiness(full, 100)
	testutil.RequireSliceNearlyEqual(t, full[0], []float64{1, 1, 1}, 1e-12)

	partial := mkRows()
	ApplyBreathiness(partial, 75)
	testutil.RequireSliceNearlyEqual(t, partial[0], []float64{0.75, 0.875, 1}, 1e-12)
}
