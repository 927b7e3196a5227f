package vocoder

import (
	"math"
	"sort"
)

// VoicingState labels one analysis frame as voiced or unvoiced.
type VoicingState int

const (
	StateVoiced VoicingState = iota
	StateUnvoiced
)

// VoicingSmoother cleans voiced/unvoiced decisions with a two-state hidden
// Markov model and median-filters the pitch track. The emission scores are
// asymmetric: a pitched observation inside an unvoiced region ("humming" on
// a breathy consonant) is punished harder than a missing pitch inside a
// voiced region.
type VoicingSmoother struct {
	logVV, logVU float64
	logUV, logUU float64
	floorHz      float64
}

// NewVoicingSmoother creates a smoother with the fixed transition model
// P(V->V)=0.95, P(U->U)=0.85.
func NewVoicingSmoother() *VoicingSmoother {
	const pVV, pUU = 0.95, 0.85

	return &VoicingSmoother{
		logVV:   math.Log(pVV),
		logVU:   math.Log(1 - pVV),
		logUV:   math.Log(1 - pUU),
		logUU:   math.Log(pUU),
		floorHz: VoicingFloorHz,
	}
}

func (v *VoicingSmoother) emissionLogProb(f0 float64, state VoicingState) float64 {
	if state == StateVoiced {
		if f0 >= v.floorHz {
			return -0.5
		}
		return -15.0
	}

	if f0 < v.floorHz {
		return -0.05
	}
	return -8.0
}

// Decode runs exact Viterbi decoding over the raw F0 track and returns the
// maximum-likelihood state per frame.
func (v *VoicingSmoother) Decode(f0 []float64) []VoicingState {
	n := len(f0)
	if n == 0 {
		return nil
	}

	score := make([][2]float64, n)
	backptr := make([][2]int, n)

	// Initial-state scores favor the state matching frame 0's observation.
	initV, initU := -0.3, -2.0
	if f0[0] < v.floorHz {
		initV, initU = -2.0, -0.3
	}
	score[0][0] = initV + v.emissionLogProb(f0[0], StateVoiced)
	score[0][1] = initU + v.emissionLogProb(f0[0], StateUnvoiced)

	trans := [2][2]float64{
		{v.logVV, v.logVU},
		{v.logUV, v.logUU},
	}

	for t := 1; t < n; t++ {
		for j := range 2 {
			bestScore := math.Inf(-1)
			bestPrev := 0
			for i := range 2 {
				s := score[t-1][i] + trans[i][j]
				if s > bestScore {
					bestScore = s
					bestPrev = i
				}
			}
			score[t][j] = bestScore + v.emissionLogProb(f0[t], VoicingState(j))
			backptr[t][j] = bestPrev
		}
	}

	path := make([]VoicingState, n)
	cur := 0
	if score[n-1][1] >= score[n-1][0] {
		cur = 1
	}
	path[n-1] = VoicingState(cur)
	for t := n - 2; t >= 0; t-- {
		cur = backptr[t+1][cur]
		path[t] = VoicingState(cur)
	}

	return path
}

// Smooth returns a cleaned copy of the F0 track: unvoiced frames are zeroed,
// voiced frames below the floor are filled by interpolating between the
// nearest reliable neighbors, and a median filter removes isolated spikes.
func (v *VoicingSmoother) Smooth(f0 []float64) []float64 {
	return v.SmoothWithBarriers(f0, nil)
}

// SmoothWithBarriers is Smooth with interpolation barriers: the neighbor
// search for a missed voiced frame does not cross an index where barriers
// is true, so pitch is never smeared across a detected transient. barriers
// may be nil or shorter than f0.
func (v *VoicingSmoother) SmoothWithBarriers(f0 []float64, barriers []bool) []float64 {
	n := len(f0)
	out := make([]float64, n)
	states := v.Decode(f0)

	barrier := func(i int) bool {
		return i < len(barriers) && barriers[i]
	}

	// A single dropped frame between two voiced frames is a detector miss,
	// not a real unvoiced segment; relabel it so the fill below applies.
	// Gaps at a transient boundary stay unvoiced.
	for i := 1; i < n-1; i++ {
		if states[i] == StateUnvoiced &&
			states[i-1] == StateVoiced && states[i+1] == StateVoiced &&
			!barrier(i) && !barrier(i+1) {
			states[i] = StateVoiced
		}
	}

	for i := range n {
		if states[i] == StateUnvoiced {
			continue
		}
		if f0[i] >= v.floorHz {
			out[i] = f0[i]
			continue
		}

		// The decoder says voiced but the detector missed. Fill from the
		// nearest reliable frames on either side, stopping at barriers.
		prev, next := -1, -1
		for j := i - 1; j >= 0; j-- {
			if barrier(j + 1) {
				break
			}
			if f0[j] >= v.floorHz {
				prev = j
				break
			}
		}
		for j := i + 1; j < n; j++ {
			if barrier(j) {
				break
			}
			if f0[j] >= v.floorHz {
				next = j
				break
			}
		}

		switch {
		case prev >= 0 && next >= 0:
			alpha := float64(i-prev) / float64(next-prev)
			out[i] = lerp(f0[prev], f0[next], alpha)
		case prev >= 0:
			out[i] = f0[prev]
		case next >= 0:
			out[i] = f0[next]
		default:
			out[i] = 0
		}
	}

	v.medianFilter(out)

	return out
}

// medianFilter replaces each positive value by the median of the positive
// values within radius 2, leaving zero runs untouched.
func (v *VoicingSmoother) medianFilter(f0 []float64) {
	const radius = 2

	n := len(f0)
	src := append([]float64(nil), f0...)
	win := make([]float64, 0, 2*radius+1)

	for i := range n {
		if src[i] <= 0 {
			continue
		}

		win = win[:0]
		for j := max(i-radius, 0); j < min(i+radius+1, n); j++ {
			if src[j] > 0 {
				win = append(win, src[j])
			}
		}
		if len(win) == 0 {
			continue
		}

		sort.Float64s(win)
		f0[i] = win[len(win)/2]
	}
}
