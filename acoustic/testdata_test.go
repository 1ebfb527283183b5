package acoustic

import (
	"os"
	"path/filepath"
	"testing"
)

// testHmmdefs has global options, a shared state macro, a transition macro
// and two phones: "a" refers to macros, "b" is fully inline.
const testHmmdefs = `~o
<STREAMINFO> 1 2
<VECSIZE> 2<NULLD><MFCC_0_D><DIAGC>
~s "ST_a_2"
<MEAN> 2
 1.0e+00 2.0e+00
<VARIANCE> 2
 1.0e+00 1.0e+00
<GCONST> 3.675754e+00
~t "T_a"
<TRANSP> 3
 0.0 1.0 0.0
 0.0 0.6 0.4
 0.0 0.0 0.0
~h "a"
<BEGINHMM>
<NUMSTATES> 3
<STATE> 2
~s "ST_a_2"
~t "T_a"
<ENDHMM>
~h "b"
<BEGINHMM>
<NUMSTATES> 3
<STATE> 2
<NUMMIXES> 2
<MIXTURE> 1 0.25
<MEAN> 2
 0.0 0.0
<VARIANCE> 2
 1.0 1.0
<MIXTURE> 2 0.75
<MEAN> 2
 3.0 3.0
<VARIANCE> 2
 2.0 2.0
<TRANSP> 3
 0.0 1.0 0.0
 0.0 0.5 0.5
 0.0 0.0 0.0
<ENDHMM>
`

// singleHMM returns a one-state HMM with the given mean and stay probability.
func singleHMM(name string, mean0, mean1, stay float64) *HMM {
	h := &HMM{Name: name}
	h.Definition.NumStates = 3
	st := NewGaussianState(2)
	st.Streams[0].Mixtures[0].Mean = []float64{mean0, mean1}
	h.Definition.States = []StateSlot{{Index: 2, State: st}}
	h.Definition.Transition = TransitionSlot{Transition: NewTransition(stay)}
	return h
}

func writeModelDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
