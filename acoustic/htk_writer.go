package acoustic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteHTK writes macros then HMMs in HTK-ASCII format.
func WriteHTK(w io.Writer, macros []*Macro, hmms []*HMM) error {
	bw := bufio.NewWriter(w)
	for _, m := range macros {
		writeMacro(bw, m)
	}
	for _, h := range hmms {
		writeHMM(bw, h)
	}
	return bw.Flush()
}

// WriteHTKFile writes macros and HMMs to path.
func WriteHTKFile(path string, macros []*Macro, hmms []*HMM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTK(f, macros, hmms); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func quote(name string) string {
	return `"` + name + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'e', 6, 64)
}

func writeVector(w *bufio.Writer, tag string, v []float64) {
	fmt.Fprintf(w, "<%s> %d\n", tag, len(v))
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = formatFloat(f)
	}
	fmt.Fprintf(w, " %s\n", strings.Join(parts, " "))
}

func writeOptions(w *bufio.Writer, o *Options) {
	if o.HMMSetID != "" {
		fmt.Fprintf(w, "<HMMSETID> %s\n", quote(o.HMMSetID))
	}
	if len(o.StreamInfo) > 0 {
		fmt.Fprintf(w, "<STREAMINFO> %d", len(o.StreamInfo))
		for _, s := range o.StreamInfo {
			fmt.Fprintf(w, " %d", s)
		}
		fmt.Fprintln(w)
	}
	if o.VecSize > 0 {
		fmt.Fprintf(w, "<VECSIZE> %d", o.VecSize)
	}
	for _, kind := range []string{o.DurKind, o.ParmKind, o.CovKind} {
		if kind != "" {
			fmt.Fprintf(w, "<%s>", kind)
		}
	}
	fmt.Fprintln(w)
}

func writeState(w *bufio.Writer, s *State) {
	multi := len(s.Streams) > 1
	nummixes := multi
	for _, st := range s.Streams {
		if len(st.Mixtures) > 1 {
			nummixes = true
		}
	}
	if nummixes {
		fmt.Fprint(w, "<NUMMIXES>")
		for _, st := range s.Streams {
			fmt.Fprintf(w, " %d", len(st.Mixtures))
		}
		fmt.Fprintln(w)
	}
	for _, st := range s.Streams {
		if multi {
			fmt.Fprintf(w, "<STREAM> %d\n", st.Index)
		}
		for _, m := range st.Mixtures {
			if len(st.Mixtures) > 1 {
				fmt.Fprintf(w, "<MIXTURE> %d %s\n", m.Index, formatFloat(m.Weight))
			}
			writeVector(w, "MEAN", m.Mean)
			writeVector(w, "VARIANCE", m.Variance)
			fmt.Fprintf(w, "<GCONST> %s\n", formatFloat(m.GConst))
		}
	}
}

func writeTransition(w *bufio.Writer, t *Transition) {
	fmt.Fprintf(w, "<TRANSP> %d\n", t.Dim())
	for _, row := range t.Matrix {
		parts := make([]string, len(row))
		for i, f := range row {
			parts[i] = formatFloat(f)
		}
		fmt.Fprintf(w, " %s\n", strings.Join(parts, " "))
	}
}

func writeMacro(w *bufio.Writer, m *Macro) {
	if m.Kind == MacroOptions {
		fmt.Fprintln(w, "~o")
	} else {
		fmt.Fprintf(w, "~%c %s\n", m.Kind, quote(m.Name))
	}
	switch m.Kind {
	case MacroOptions:
		writeOptions(w, m.Options)
	case MacroState:
		writeState(w, m.State)
	case MacroTransition:
		writeTransition(w, m.Transition)
	case MacroVariance:
		writeVector(w, "VARIANCE", m.Vector)
	case MacroMean:
		writeVector(w, "MEAN", m.Vector)
	}
}

func writeHMM(w *bufio.Writer, h *HMM) {
	d := h.Definition
	fmt.Fprintf(w, "~h %s\n", quote(h.Name))
	fmt.Fprintln(w, "<BEGINHMM>")
	if d.Options != nil {
		writeOptions(w, d.Options)
	}
	fmt.Fprintf(w, "<NUMSTATES> %d\n", d.NumStates)
	for _, s := range d.States {
		fmt.Fprintf(w, "<STATE> %d\n", s.Index)
		if s.Resolved() {
			writeState(w, s.State)
		} else {
			fmt.Fprintf(w, "~s %s\n", quote(s.Macro))
		}
	}
	if d.Transition.Resolved() {
		writeTransition(w, d.Transition.Transition)
	} else {
		fmt.Fprintf(w, "~t %s\n", quote(d.Transition.Macro))
	}
	fmt.Fprintln(w, "<ENDHMM>")
}
