package acoustic

import (
	"fmt"
	"math"
	"strings"

	"github.com/brigittebigi/sppas-sub001/lexicon"
)

// AcModel is an HTK acoustic model: global macros, phone HMMs, the tied
// list and the phone replacement table.
type AcModel struct {
	Macros   []*Macro
	HMMs     []*HMM
	TiedList *TiedList
	Repl     *lexicon.Mapping
}

// MergeStats counts what happened to each HMM of the merged model.
type MergeStats struct {
	Appended     int // absent from the receiving model
	Interpolated int // shared, interpolated
	Kept         int // shared, left unchanged
	Changed      int // shared, replaced
}

func (s MergeStats) String() string {
	return fmt.Sprintf("appended=%d interpolated=%d kept=%d changed=%d",
		s.Appended, s.Interpolated, s.Kept, s.Changed)
}

// NewAcModel creates an empty model.
func NewAcModel() *AcModel {
	return &AcModel{
		TiedList: NewTiedList(),
		Repl:     lexicon.NewMapping(),
	}
}

// Clone returns a deep copy of the model.
func (m *AcModel) Clone() *AcModel {
	c := &AcModel{
		Macros:   make([]*Macro, len(m.Macros)),
		HMMs:     make([]*HMM, len(m.HMMs)),
		TiedList: m.TiedList.Clone(),
		Repl:     lexicon.NewMapping(),
	}
	for i, mac := range m.Macros {
		c.Macros[i] = mac.Clone()
	}
	for i, h := range m.HMMs {
		c.HMMs[i] = h.Clone()
	}
	if m.Repl != nil {
		addRepl(c.Repl, m.Repl)
		c.Repl.SetReverse(m.Repl.Reverse())
	}
	return c
}

// Options returns the global options of the model, or nil if there is no ~o macro.
func (m *AcModel) Options() *Options {
	for _, mac := range m.Macros {
		if mac.Kind == MacroOptions {
			return mac.Options
		}
	}
	return nil
}

// ParameterKind returns the normalized parameter kind of the model, e.g.
// "MFCC_0_D_N_Z", or "" when unknown.
func (m *AcModel) ParameterKind() string {
	if o := m.Options(); o != nil && o.ParmKind != "" {
		return NormalizeParmKind(o.ParmKind)
	}
	return ""
}

// CheckParameterKind verifies that other was trained on the same kind of
// features. Models without global options are accepted.
func (m *AcModel) CheckParameterKind(other *AcModel) error {
	if other == nil {
		return fmt.Errorf("%w: nil model", ErrIncompatibleModel)
	}
	a, b := m.Options(), other.Options()
	if a == nil || b == nil {
		return nil
	}
	if a.ParmKind != "" && b.ParmKind != "" && NormalizeParmKind(a.ParmKind) != NormalizeParmKind(b.ParmKind) {
		return fmt.Errorf("%w: parameter kind %s vs %s", ErrIncompatibleModel, a.ParmKind, b.ParmKind)
	}
	if a.VecSize != 0 && b.VecSize != 0 && a.VecSize != b.VecSize {
		return fmt.Errorf("%w: vector size %d vs %d", ErrIncompatibleModel, a.VecSize, b.VecSize)
	}
	return nil
}

// GetHMM returns the HMM called name, or nil.
func (m *AcModel) GetHMM(name string) *HMM {
	if i := m.indexHMM(name); i >= 0 {
		return m.HMMs[i]
	}
	return nil
}

func (m *AcModel) indexHMM(name string) int {
	for i, h := range m.HMMs {
		if h.Name == name {
			return i
		}
	}
	return -1
}

// AppendHMM adds an HMM. Its name must be a valid phone, biphone or
// triphone name not already used in the model.
func (m *AcModel) AppendHMM(h *HMM) error {
	if !ValidName(h.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, h.Name)
	}
	if m.indexHMM(h.Name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateHMM, h.Name)
	}
	if err := h.Validate(); err != nil {
		return err
	}
	m.HMMs = append(m.HMMs, h)
	return nil
}

// PopHMM removes and returns the HMM called name.
func (m *AcModel) PopHMM(name string) (*HMM, error) {
	i := m.indexHMM(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrHMMNotFound, name)
	}
	h := m.HMMs[i]
	m.HMMs = append(m.HMMs[:i], m.HMMs[i+1:]...)
	return h, nil
}

// Names returns the HMM names in model order.
func (m *AcModel) Names() []string {
	out := make([]string, len(m.HMMs))
	for i, h := range m.HMMs {
		out[i] = h.Name
	}
	return out
}

func (m *AcModel) macro(kind MacroKind, name string) *Macro {
	for _, mac := range m.Macros {
		if mac.Kind == kind && mac.Name == name {
			return mac
		}
	}
	return nil
}

// FillHMMs replaces every state and transition placeholder with a copy of
// the macro it names, then drops the state and transition macros.
// Nothing is modified when a placeholder cannot be resolved.
func (m *AcModel) FillHMMs() error {
	for _, h := range m.HMMs {
		for _, s := range h.Definition.States {
			if !s.Resolved() && m.macro(MacroState, s.Macro) == nil {
				return fmt.Errorf("%w: state %q in hmm %q", ErrMacroNotFound, s.Macro, h.Name)
			}
		}
		t := h.Definition.Transition
		if !t.Resolved() && m.macro(MacroTransition, t.Macro) == nil {
			return fmt.Errorf("%w: transition %q in hmm %q", ErrMacroNotFound, t.Macro, h.Name)
		}
	}

	for _, h := range m.HMMs {
		for i, s := range h.Definition.States {
			if !s.Resolved() {
				h.Definition.States[i] = StateSlot{
					Index: s.Index,
					State: m.macro(MacroState, s.Macro).State.Clone(),
				}
			}
		}
		if t := h.Definition.Transition; !t.Resolved() {
			h.Definition.Transition = TransitionSlot{
				Transition: m.macro(MacroTransition, t.Macro).Transition.Clone(),
			}
		}
	}

	kept := m.Macros[:0]
	for _, mac := range m.Macros {
		if mac.Kind != MacroState && mac.Kind != MacroTransition {
			kept = append(kept, mac)
		}
	}
	for i := len(kept); i < len(m.Macros); i++ {
		m.Macros[i] = nil
	}
	m.Macros = kept
	return nil
}

// ReplacePhones maps every phone of the tied list, of the HMM names and of
// the state and transition macro names through the replacement table,
// forward or in reverse. It does nothing if the table is empty.
// Tied-list entries that collide with an entry already mapped (two names
// mapped to the same one) are dropped and returned in their original form.
func (m *AcModel) ReplacePhones(reverse bool) (dropped []string) {
	if m.Repl == nil || m.Repl.IsEmpty() {
		return nil
	}
	if m.TiedList == nil {
		m.TiedList = NewTiedList()
	}
	// fn never fails; WithReverse only scopes the direction.
	_ = m.Repl.WithReverse(reverse, func() error {
		mapName := func(s string) string {
			return m.Repl.Map(s, Delimiters...)
		}

		tl := NewTiedList()
		for _, o := range m.TiedList.Observed() {
			if !tl.AddObserved(mapName(o)) {
				dropped = append(dropped, o)
			}
		}
		for _, k := range m.TiedList.TiedNames() {
			o, _ := m.TiedList.Tied(k)
			if !tl.AddTied(mapName(k), mapName(o)) {
				dropped = append(dropped, k)
			}
		}
		m.TiedList = tl

		for _, h := range m.HMMs {
			h.Name = mapName(h.Name)
			for i, s := range h.Definition.States {
				if !s.Resolved() {
					h.Definition.States[i].Macro = mapMacroName(s.Macro, mapName)
				}
			}
			if t := h.Definition.Transition; !t.Resolved() {
				h.Definition.Transition.Macro = mapMacroName(t.Macro, mapName)
			}
		}
		for _, mac := range m.Macros {
			if mac.Kind == MacroState || mac.Kind == MacroTransition {
				mac.Name = mapMacroName(mac.Name, mapName)
			}
		}
		return nil
	})
	return dropped
}

// mapMacroName maps the phone part of a macro name: "ST_a_2" -> "ST_A_2".
func mapMacroName(name string, mapName func(string) string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return name
	}
	parts[1] = mapName(parts[1])
	return strings.Join(parts, "_")
}

// MergeModel merges other into m. HMMs missing from m are appended; shared
// HMMs are kept (gamma == 1), replaced (gamma == 0) or interpolated with
// weight gamma on m. Tied lists and replacement tables are united.
// Both models have their macros inlined first; other itself is not modified.
func (m *AcModel) MergeModel(other *AcModel, gamma float64) (MergeStats, error) {
	var stats MergeStats
	if math.IsNaN(gamma) || gamma < 0 || gamma > 1 {
		return stats, fmt.Errorf("%w: got %v", ErrInvalidGamma, gamma)
	}
	if err := m.CheckParameterKind(other); err != nil {
		return stats, err
	}

	cp := other.Clone()
	if err := cp.FillHMMs(); err != nil {
		return stats, fmt.Errorf("fill merged model: %w", err)
	}
	if err := m.FillHMMs(); err != nil {
		return stats, err
	}

	for _, h := range cp.HMMs {
		i := m.indexHMM(h.Name)
		switch {
		case i < 0:
			m.HMMs = append(m.HMMs, h)
			stats.Appended++
		case gamma == 1.0:
			stats.Kept++
		case gamma == 0.0:
			m.HMMs[i] = h
			stats.Changed++
		case m.HMMs[i].StaticLinearInterpolation(h, gamma):
			stats.Interpolated++
		default:
			stats.Kept++
		}
	}

	if m.TiedList == nil {
		m.TiedList = NewTiedList()
	}
	m.TiedList.Merge(other.TiedList)
	if m.Repl == nil {
		m.Repl = lexicon.NewMapping()
	}
	addRepl(m.Repl, other.Repl)
	return stats, nil
}

// addRepl adds the pairs of src missing from dst.
func addRepl(dst, src *lexicon.Mapping) {
	if src == nil {
		return
	}
	for _, k := range src.Keys() {
		for _, v := range src.Values(k) {
			if !dst.IsKeyValue(k, v) {
				dst.Add(k, v)
			}
		}
	}
}
