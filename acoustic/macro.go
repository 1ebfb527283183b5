package acoustic

import (
	"sort"
	"strings"
)

// MacroKind is the HTK macro type letter.
type MacroKind byte

const (
	MacroOptions    MacroKind = 'o'
	MacroState      MacroKind = 's'
	MacroTransition MacroKind = 't'
	MacroVariance   MacroKind = 'v'
	MacroMean       MacroKind = 'u'
	MacroHMM        MacroKind = 'h'
)

// Macro is a named, reusable definition shared by several HMMs.
// Only the field matching Kind is set.
type Macro struct {
	Kind       MacroKind
	Name       string
	Options    *Options
	State      *State
	Transition *Transition
	Vector     []float64 // MacroVariance, MacroMean
}

// Clone returns a deep copy of the macro.
func (m *Macro) Clone() *Macro {
	return &Macro{
		Kind:       m.Kind,
		Name:       m.Name,
		Options:    m.Options.Clone(),
		State:      m.State.Clone(),
		Transition: m.Transition.Clone(),
		Vector:     cloneVec(m.Vector),
	}
}

// Options are the global options of an HMM set.
type Options struct {
	HMMSetID   string
	StreamInfo []int // stream vector sizes
	VecSize    int
	DurKind    string // e.g. NULLD
	ParmKind   string // e.g. MFCC_D_N_Z_0
	CovKind    string // e.g. DIAGC
}

// Clone returns a deep copy, or nil for nil options.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	c := *o
	if o.StreamInfo != nil {
		c.StreamInfo = append([]int(nil), o.StreamInfo...)
	}
	return &c
}

// NormalizeParmKind returns a canonical form of an HTK parameter kind:
// upper case, base kind first, qualifiers sorted. "mfcc_0_d" and
// "MFCC_D_0" both become "MFCC_0_D".
func NormalizeParmKind(kind string) string {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(kind)), "_")
	if len(parts) > 1 {
		sort.Strings(parts[1:])
	}
	return strings.Join(parts, "_")
}

var durKinds = map[string]bool{
	"NULLD": true, "POISSOND": true, "GAMMAD": true, "GEND": true,
}

var covKinds = map[string]bool{
	"DIAGC": true, "INVDIAGC": true, "FULLC": true, "LLTC": true, "XFORMC": true,
}
