package acoustic

import (
	"fmt"

	"github.com/brigittebigi/sppas-sub001/internal/mathutil"
)

// HMM is a named phone model: a left-to-right HMM whose first and last
// states are non-emitting. Emitting states are numbered 2..NumStates-1.
type HMM struct {
	Name       string
	Definition Definition
}

// Definition holds the body of an HMM. Each state and the transition matrix
// are either inline or a placeholder naming a macro ("ST_..." / "T_...").
type Definition struct {
	Options    *Options
	NumStates  int
	States     []StateSlot
	Transition TransitionSlot
}

// StateSlot is one emitting state of an HMM definition.
// Exactly one of Macro and State is set.
type StateSlot struct {
	Index int
	Macro string
	State *State
}

// Resolved reports whether the state is inline.
func (s StateSlot) Resolved() bool {
	return s.State != nil
}

// TransitionSlot is the transition matrix of an HMM definition.
// Exactly one of Macro and Transition is set.
type TransitionSlot struct {
	Macro      string
	Transition *Transition
}

// Resolved reports whether the transition matrix is inline.
func (t TransitionSlot) Resolved() bool {
	return t.Transition != nil
}

// Transition is a square matrix of transition probabilities.
type Transition struct {
	Matrix [][]float64 // [NumStates][NumStates]
}

// Dim returns the matrix dimension.
func (t *Transition) Dim() int {
	return len(t.Matrix)
}

// Clone returns a deep copy of the matrix.
func (t *Transition) Clone() *Transition {
	if t == nil {
		return nil
	}
	c := &Transition{Matrix: make([][]float64, len(t.Matrix))}
	for i, row := range t.Matrix {
		c.Matrix[i] = cloneVec(row)
	}
	return c
}

// DefaultStayProbabilities returns the self-loop probabilities of the three
// emitting states of a prototype. The slice is fresh on every call.
func DefaultStayProbabilities() []float64 {
	return []float64{0.6, 0.6, 0.7}
}

// NewTransition creates a left-to-right transition matrix with one emitting
// state per stay probability. Without arguments, DefaultStayProbabilities is used.
func NewTransition(stay ...float64) *Transition {
	if len(stay) == 0 {
		stay = DefaultStayProbabilities()
	}
	n := len(stay) + 2
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	m[0][1] = 1.0
	for i, p := range stay {
		m[i+1][i+1] = p
		m[i+1][i+2] = 1.0 - p
	}
	return &Transition{Matrix: m}
}

// NewGaussianState creates a single-mixture state with zero mean and unit variance.
func NewGaussianState(vecSize int) *State {
	mix := Mixture{
		Index:    1,
		Weight:   1.0,
		Mean:     make([]float64, vecSize),
		Variance: make([]float64, vecSize),
	}
	for i := range mix.Variance {
		mix.Variance[i] = 1.0
	}
	mix.UpdateGConst()
	return &State{Streams: []Stream{{Index: 1, Mixtures: []Mixture{mix}}}}
}

// NewProtoHMM creates a prototype HMM with three emitting states, as used
// to initialize the training of a new phone.
func NewProtoHMM(name string, vecSize int) *HMM {
	return newLeftToRight(name, vecSize, DefaultStayProbabilities())
}

// NewSPHMM creates the short pause model: one emitting state that can be skipped.
func NewSPHMM(vecSize int) *HMM {
	h := newLeftToRight("sp", vecSize, []float64{0.6})
	h.Definition.Transition.Transition.Matrix[0][2] = 0.3
	h.Definition.Transition.Transition.Matrix[0][1] = 0.7
	return h
}

func newLeftToRight(name string, vecSize int, stay []float64) *HMM {
	h := &HMM{Name: name}
	h.Definition.NumStates = len(stay) + 2
	for i := range stay {
		h.Definition.States = append(h.Definition.States, StateSlot{
			Index: i + 2,
			State: NewGaussianState(vecSize),
		})
	}
	h.Definition.Transition = TransitionSlot{Transition: NewTransition(stay...)}
	return h
}

// Clone returns a deep copy of the HMM.
func (h *HMM) Clone() *HMM {
	c := &HMM{Name: h.Name}
	d := h.Definition
	c.Definition.Options = d.Options.Clone()
	c.Definition.NumStates = d.NumStates
	if d.States != nil {
		c.Definition.States = make([]StateSlot, len(d.States))
		for i, s := range d.States {
			c.Definition.States[i] = StateSlot{Index: s.Index, Macro: s.Macro, State: s.State.Clone()}
		}
	}
	c.Definition.Transition = TransitionSlot{
		Macro:      d.Transition.Macro,
		Transition: d.Transition.Transition.Clone(),
	}
	return c
}

// IsResolved reports whether every state and the transition are inline.
func (h *HMM) IsResolved() bool {
	for _, s := range h.Definition.States {
		if !s.Resolved() {
			return false
		}
	}
	return h.Definition.Transition.Resolved()
}

// Validate checks the structural consistency of the definition.
func (h *HMM) Validate() error {
	d := h.Definition
	if d.NumStates < 3 {
		return fmt.Errorf("hmm %q: %d states, want at least 3", h.Name, d.NumStates)
	}
	if len(d.States) != d.NumStates-2 {
		return fmt.Errorf("hmm %q: %d emitting states, want %d", h.Name, len(d.States), d.NumStates-2)
	}
	for _, s := range d.States {
		if s.Index < 2 || s.Index > d.NumStates-1 {
			return fmt.Errorf("hmm %q: state index %d out of range", h.Name, s.Index)
		}
		if s.Resolved() == (s.Macro != "") {
			return fmt.Errorf("hmm %q: state %d must be either inline or a macro", h.Name, s.Index)
		}
	}
	t := d.Transition
	if t.Resolved() == (t.Macro != "") {
		return fmt.Errorf("hmm %q: transition must be either inline or a macro", h.Name)
	}
	if t.Resolved() && t.Transition.Dim() != d.NumStates {
		return fmt.Errorf("hmm %q: transition dim %d, want %d", h.Name, t.Transition.Dim(), d.NumStates)
	}
	return nil
}

// StaticLinearInterpolation sets every Gaussian parameter, mixture weight
// and transition probability of h to gamma*h + (1-gamma)*other.
// Gconsts are recomputed from the interpolated variances.
//
// It returns false and leaves h unchanged when the two HMMs do not share
// the same structure or when either still references macros.
func (h *HMM) StaticLinearInterpolation(other *HMM, gamma float64) bool {
	if gamma < 0 || gamma > 1 {
		return false
	}
	if !h.compatible(other) {
		return false
	}
	for i := range h.Definition.States {
		h.Definition.States[i].State.interpolate(other.Definition.States[i].State, gamma)
	}
	a := h.Definition.Transition.Transition.Matrix
	b := other.Definition.Transition.Transition.Matrix
	for i := range a {
		mathutil.LerpVec(a[i], a[i], b[i], gamma)
	}
	return true
}

func (h *HMM) compatible(o *HMM) bool {
	if o == nil || !h.IsResolved() || !o.IsResolved() {
		return false
	}
	a, b := h.Definition, o.Definition
	if a.NumStates != b.NumStates || len(a.States) != len(b.States) {
		return false
	}
	for i := range a.States {
		if a.States[i].Index != b.States[i].Index {
			return false
		}
		if !a.States[i].State.compatible(b.States[i].State) {
			return false
		}
	}
	ta, tb := a.Transition.Transition.Matrix, b.Transition.Transition.Matrix
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if len(ta[i]) != len(tb[i]) {
			return false
		}
	}
	return true
}
