package acoustic

import (
	"math"

	"github.com/brigittebigi/sppas-sub001/internal/mathutil"
)

// Mixture is one weighted Gaussian component with diagonal covariance.
type Mixture struct {
	Index    int
	Weight   float64
	Mean     []float64 // [dim]
	Variance []float64 // [dim] diagonal covariance
	GConst   float64   // dim*log(2π) + sum(log(Variance))
}

// ComputeGConst returns the HTK gconst of a diagonal-covariance Gaussian.
func ComputeGConst(variance []float64) float64 {
	g := float64(len(variance)) * math.Log(2*math.Pi)
	for _, v := range variance {
		g += math.Log(v)
	}
	return g
}

// UpdateGConst recomputes GConst from the current variance.
// Must be called after updating Variance.
func (m *Mixture) UpdateGConst() {
	m.GConst = ComputeGConst(m.Variance)
}

// LogProb computes the log density of observation x under this Gaussian,
// ignoring the mixture weight.
func (m *Mixture) LogProb(x []float64) float64 {
	maha := 0.0
	for i := range x {
		d := x[i] - m.Mean[i]
		maha += d * d / m.Variance[i]
	}
	return -0.5 * (maha + m.GConst)
}

// Stream is the list of mixtures of one observation stream.
type Stream struct {
	Index    int
	Mixtures []Mixture
}

// State is the output distribution of an emitting HMM state.
type State struct {
	Streams []Stream
}

// LogLikelihood computes log P(x | state) = log sum_k w_k * N(x; μ_k, σ_k)
// over the first stream.
func (s *State) LogLikelihood(x []float64) float64 {
	if len(s.Streams) == 0 {
		return mathutil.LogZero
	}
	logSum := mathutil.LogZero
	for i := range s.Streams[0].Mixtures {
		mix := &s.Streams[0].Mixtures[i]
		if mix.Weight <= 0 {
			continue
		}
		logSum = mathutil.LogAdd(logSum, math.Log(mix.Weight)+mix.LogProb(x))
	}
	return logSum
}

// VecSize returns the dimension of the first mixture, or 0 if the state is empty.
func (s *State) VecSize() int {
	if len(s.Streams) == 0 || len(s.Streams[0].Mixtures) == 0 {
		return 0
	}
	return len(s.Streams[0].Mixtures[0].Mean)
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := &State{Streams: make([]Stream, len(s.Streams))}
	for i, st := range s.Streams {
		c.Streams[i] = Stream{Index: st.Index, Mixtures: make([]Mixture, len(st.Mixtures))}
		for j, m := range st.Mixtures {
			c.Streams[i].Mixtures[j] = Mixture{
				Index:    m.Index,
				Weight:   m.Weight,
				Mean:     cloneVec(m.Mean),
				Variance: cloneVec(m.Variance),
				GConst:   m.GConst,
			}
		}
	}
	return c
}

// compatible reports whether s and o have the same stream, mixture and
// vector layout.
func (s *State) compatible(o *State) bool {
	if len(s.Streams) != len(o.Streams) {
		return false
	}
	for i := range s.Streams {
		a, b := s.Streams[i].Mixtures, o.Streams[i].Mixtures
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if len(a[j].Mean) != len(b[j].Mean) || len(a[j].Variance) != len(b[j].Variance) {
				return false
			}
		}
	}
	return true
}

// interpolate sets s to gamma*s + (1-gamma)*o. s and o must be compatible.
func (s *State) interpolate(o *State, gamma float64) {
	for i := range s.Streams {
		for j := range s.Streams[i].Mixtures {
			a := &s.Streams[i].Mixtures[j]
			b := &o.Streams[i].Mixtures[j]
			a.Weight = mathutil.Lerp(a.Weight, b.Weight, gamma)
			mathutil.LerpVec(a.Mean, a.Mean, b.Mean, gamma)
			mathutil.LerpVec(a.Variance, a.Variance, b.Variance, gamma)
			a.UpdateGConst()
		}
	}
}

func cloneVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	c := make([]float64, len(v))
	copy(c, v)
	return c
}
