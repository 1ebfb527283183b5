package acoustic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransition(t *testing.T) {
	tr := NewTransition()
	require.Equal(t, 5, tr.Dim())
	assert.Equal(t, 1.0, tr.Matrix[0][1], "entry -> first state")

	stay := []float64{0.6, 0.6, 0.7}
	for i, p := range stay {
		assert.Equal(t, p, tr.Matrix[i+1][i+1], "stay[%d]", i)
		row := 0.0
		for _, v := range tr.Matrix[i+1] {
			row += v
		}
		assert.InDelta(t, 1.0, row, 1e-12, "row %d", i+1)
	}
	// exit state has no outgoing transition
	assert.Equal(t, make([]float64, 5), tr.Matrix[4])
}

func TestDefaultStayProbabilitiesIsFresh(t *testing.T) {
	d := DefaultStayProbabilities()
	d[0] = 0.1
	assert.Equal(t, 0.6, DefaultStayProbabilities()[0])
	assert.Equal(t, 0.6, NewTransition().Matrix[1][1])
}

func TestNewProtoHMM(t *testing.T) {
	h := NewProtoHMM("proto", 13)
	require.NoError(t, h.Validate())
	assert.Equal(t, 5, h.Definition.NumStates)
	for i, s := range h.Definition.States {
		assert.Equal(t, i+2, s.Index, "state %d index", i)
		assert.Equal(t, 13, s.State.VecSize(), "state %d vecsize", i)
	}
}

func TestNewSPHMM(t *testing.T) {
	h := NewSPHMM(3)
	require.NoError(t, h.Validate())
	m := h.Definition.Transition.Transition.Matrix
	assert.InDelta(t, 1.0, m[0][1]+m[0][2], 1e-12, "entry row %v", m[0])
	assert.NotZero(t, m[0][2], "sp must be skippable")
}

func TestCloneIsDeep(t *testing.T) {
	h := NewProtoHMM("a", 2)
	c := h.Clone()
	c.Definition.States[0].State.Streams[0].Mixtures[0].Mean[0] = 5
	c.Definition.Transition.Transition.Matrix[1][1] = 0.1
	assert.Equal(t, 0.0, h.Definition.States[0].State.Streams[0].Mixtures[0].Mean[0], "Clone shares mean vectors")
	assert.Equal(t, 0.6, h.Definition.Transition.Transition.Matrix[1][1], "Clone shares the transition matrix")
}

func TestStaticLinearInterpolation(t *testing.T) {
	a := NewProtoHMM("a", 2)
	b := NewProtoHMM("a", 2)
	for _, s := range b.Definition.States {
		mix := &s.State.Streams[0].Mixtures[0]
		mix.Mean = []float64{2, 4}
		mix.Variance = []float64{3, 3}
		mix.UpdateGConst()
	}

	require.True(t, a.StaticLinearInterpolation(b, 0.5))
	mix := a.Definition.States[1].State.Streams[0].Mixtures[0]
	assert.Equal(t, []float64{1, 2}, mix.Mean)
	assert.Equal(t, []float64{2, 2}, mix.Variance)
	assert.InDelta(t, ComputeGConst([]float64{2, 2}), mix.GConst, 1e-12, "gconst not recomputed")
}

func TestStaticLinearInterpolation_Incompatible(t *testing.T) {
	tests := []struct {
		name  string
		other *HMM
		gamma float64
	}{
		{"state count", NewSPHMM(2), 0.5},
		{"vector size", NewProtoHMM("a", 3), 0.5},
		{"gamma", NewProtoHMM("a", 2), 2},
		{"nil", nil, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewProtoHMM("a", 2)
			assert.False(t, a.StaticLinearInterpolation(tt.other, tt.gamma))
			assert.Equal(t, 1.0, a.Definition.States[0].State.Streams[0].Mixtures[0].Variance[0], "hmm modified")
		})
	}

	unresolved := NewProtoHMM("a", 2)
	unresolved.Definition.Transition = TransitionSlot{Macro: "T_a"}
	assert.False(t, NewProtoHMM("a", 2).StaticLinearInterpolation(unresolved, 0.5))
}

func TestValidate(t *testing.T) {
	h := NewProtoHMM("a", 2)
	h.Definition.States[0].Macro = "ST_a_2"
	assert.Error(t, h.Validate(), "slot with both macro and state")

	h = NewProtoHMM("a", 2)
	h.Definition.States[2].Index = 9
	assert.Error(t, h.Validate(), "out of range index")
}
