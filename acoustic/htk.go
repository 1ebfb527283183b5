package acoustic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// HTK-ASCII model files ("hmmdefs", "macros") are a sequence of macros:
//
//	~o <STREAMINFO> 1 25 <VECSIZE> 25<NULLD><MFCC_D_N_Z_0><DIAGC>
//	~s "ST_a_2" <MEAN> 25 ... <VARIANCE> 25 ... <GCONST> 7.1e+01
//	~t "T_a" <TRANSP> 5 ...
//	~h "a" <BEGINHMM> <NUMSTATES> 5 <STATE> 2 ~s "ST_a_2" ... ~t "T_a" <ENDHMM>

type tokenKind int

const (
	tokTag    tokenKind = iota // <NAME>, text is the upper-cased name
	tokMacro                   // ~x, text is the letter
	tokString                  // "quoted", text is unquoted
	tokWord                    // number or bare name
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokTag:
		return "<" + t.text + ">"
	case tokMacro:
		return "~" + t.text
	case tokString:
		return strconv.Quote(t.text)
	}
	return t.text
}

// htkLexer splits an HTK-ASCII stream into tokens. Tags may be glued to the
// previous token, as in "25<NULLD>".
type htkLexer struct {
	scanner *bufio.Scanner
	line    int
	peeked  *token
	err     error
}

func newHTKLexer(r io.Reader) *htkLexer {
	l := &htkLexer{line: 1}
	l.scanner = bufio.NewScanner(r)
	l.scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	l.scanner.Split(l.split)
	return l
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func (l *htkLexer) split(data []byte, atEOF bool) (int, []byte, error) {
	i := 0
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	skip := func(n int) int {
		l.line += bytes.Count(data[:n], []byte{'\n'})
		return n
	}
	if i == len(data) {
		return skip(i), nil, nil
	}

	start := i
	switch data[start] {
	case '<':
		if end := bytes.IndexByte(data[start:], '>'); end >= 0 {
			return skip(start) + end + 1, data[start : start+end+1], nil
		}
	case '"':
		if end := bytes.IndexByte(data[start+1:], '"'); end >= 0 {
			return skip(start) + end + 2, data[start : start+end+2], nil
		}
	case '~':
		if start+1 < len(data) {
			return skip(start) + 2, data[start : start+2], nil
		}
	default:
		j := start
		for j < len(data) && !isSpace(data[j]) && data[j] != '<' && data[j] != '"' {
			j++
		}
		if j < len(data) || atEOF {
			return skip(start) + j - start, data[start:j], nil
		}
	}
	if atEOF {
		return 0, nil, fmt.Errorf("%w: line %d: unterminated %q", ErrSyntax, l.line, data[start:])
	}
	return skip(start), nil, nil
}

func (l *htkLexer) peek() (token, bool) {
	if l.peeked != nil {
		return *l.peeked, true
	}
	if l.err != nil || !l.scanner.Scan() {
		if l.err == nil {
			l.err = l.scanner.Err()
		}
		return token{}, false
	}
	raw := l.scanner.Text()
	t := token{line: l.line}
	switch raw[0] {
	case '<':
		t.kind = tokTag
		t.text = strings.ToUpper(raw[1 : len(raw)-1])
	case '~':
		t.kind = tokMacro
		t.text = strings.ToLower(raw[1:])
	case '"':
		t.kind = tokString
		t.text = raw[1 : len(raw)-1]
	default:
		t.kind = tokWord
		t.text = raw
	}
	l.peeked = &t
	return t, true
}

func (l *htkLexer) next() (token, error) {
	t, ok := l.peek()
	if !ok {
		if l.err != nil {
			return token{}, l.err
		}
		return token{}, fmt.Errorf("%w: line %d: %w", ErrSyntax, l.line, io.ErrUnexpectedEOF)
	}
	l.peeked = nil
	return t, nil
}

// peekTag returns the upper-cased tag name of the next token, or "" if the
// next token is not a tag.
func (l *htkLexer) peekTag() string {
	t, ok := l.peek()
	if !ok || t.kind != tokTag {
		return ""
	}
	return t.text
}

func (l *htkLexer) peekMacro(kind MacroKind) bool {
	t, ok := l.peek()
	return ok && t.kind == tokMacro && t.text == string(kind)
}

func syntaxError(t token, want string) error {
	return fmt.Errorf("%w: line %d: expected %s, got %s", ErrSyntax, t.line, want, t)
}

func (l *htkLexer) expectTag(name string) error {
	t, err := l.next()
	if err != nil {
		return err
	}
	if t.kind != tokTag || t.text != name {
		return syntaxError(t, "<"+name+">")
	}
	return nil
}

func (l *htkLexer) name() (string, error) {
	t, err := l.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokString && t.kind != tokWord {
		return "", syntaxError(t, "name")
	}
	return t.text, nil
}

func (l *htkLexer) int() (int, error) {
	t, err := l.next()
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(t.text)
	if t.kind != tokWord || convErr != nil {
		return 0, syntaxError(t, "integer")
	}
	return n, nil
}

func (l *htkLexer) float() (float64, error) {
	t, err := l.next()
	if err != nil {
		return 0, err
	}
	f, convErr := strconv.ParseFloat(t.text, 64)
	if t.kind != tokWord || convErr != nil {
		return 0, syntaxError(t, "number")
	}
	return f, nil
}

func (l *htkLexer) floats(n int) ([]float64, error) {
	v := make([]float64, n)
	for i := range v {
		f, err := l.float()
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

// taggedVector reads "<TAG> n v1 ... vn".
func (l *htkLexer) taggedVector(tag string) ([]float64, error) {
	if err := l.expectTag(tag); err != nil {
		return nil, err
	}
	n, err := l.int()
	if err != nil {
		return nil, err
	}
	return l.floats(n)
}

// structuralTags end an options block.
var structuralTags = map[string]bool{
	"BEGINHMM": true, "ENDHMM": true, "NUMSTATES": true, "STATE": true,
	"NUMMIXES": true, "STREAM": true, "MIXTURE": true, "MEAN": true,
	"VARIANCE": true, "GCONST": true, "TRANSP": true, "SWEIGHTS": true,
	"TMIX": true, "DURATION": true, "INVCOVAR": true, "LLTCOVAR": true,
	"XFORM": true,
}

func (l *htkLexer) isOptionTag() bool {
	tag := l.peekTag()
	return tag != "" && !structuralTags[tag]
}

func (l *htkLexer) options() (*Options, error) {
	if !l.isOptionTag() {
		t, _ := l.peek()
		return nil, syntaxError(t, "global option")
	}
	o := &Options{}
	for l.isOptionTag() {
		t, _ := l.next()
		switch {
		case t.text == "STREAMINFO":
			n, err := l.int()
			if err != nil {
				return nil, err
			}
			o.StreamInfo = make([]int, n)
			for i := range o.StreamInfo {
				if o.StreamInfo[i], err = l.int(); err != nil {
					return nil, err
				}
			}
		case t.text == "VECSIZE":
			n, err := l.int()
			if err != nil {
				return nil, err
			}
			o.VecSize = n
		case t.text == "HMMSETID":
			id, err := l.name()
			if err != nil {
				return nil, err
			}
			o.HMMSetID = id
		case durKinds[t.text]:
			o.DurKind = t.text
		case covKinds[t.text]:
			o.CovKind = t.text
		default:
			o.ParmKind = t.text
		}
	}
	return o, nil
}

func (l *htkLexer) transition() (*Transition, error) {
	if err := l.expectTag("TRANSP"); err != nil {
		return nil, err
	}
	n, err := l.int()
	if err != nil {
		return nil, err
	}
	tr := &Transition{Matrix: make([][]float64, n)}
	for i := range tr.Matrix {
		if tr.Matrix[i], err = l.floats(n); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// stateBuilder accumulates the streams and mixtures of a state body.
type stateBuilder struct {
	st   *State
	cur  *Mixture
	gset bool
	line int
}

func (b *stateBuilder) stream(index int) {
	b.finish()
	b.st.Streams = append(b.st.Streams, Stream{Index: index})
}

func (b *stateBuilder) mixture(index int, weight float64) {
	b.finish()
	if len(b.st.Streams) == 0 {
		b.st.Streams = append(b.st.Streams, Stream{Index: 1})
	}
	s := &b.st.Streams[len(b.st.Streams)-1]
	s.Mixtures = append(s.Mixtures, Mixture{Index: index, Weight: weight})
	b.cur = &s.Mixtures[len(s.Mixtures)-1]
	b.gset = false
}

func (b *stateBuilder) current() *Mixture {
	if b.cur == nil {
		b.mixture(1, 1.0)
	}
	return b.cur
}

func (b *stateBuilder) finish() {
	if b.cur != nil && !b.gset {
		b.cur.UpdateGConst()
	}
	b.cur = nil
}

func (b *stateBuilder) validate() error {
	for _, s := range b.st.Streams {
		if len(s.Mixtures) == 0 {
			return fmt.Errorf("%w: line %d: stream %d has no mixture", ErrSyntax, b.line, s.Index)
		}
		for _, m := range s.Mixtures {
			if len(m.Mean) == 0 || len(m.Mean) != len(m.Variance) {
				return fmt.Errorf("%w: line %d: mixture %d: mean/variance size mismatch", ErrSyntax, b.line, m.Index)
			}
		}
	}
	if len(b.st.Streams) == 0 {
		return fmt.Errorf("%w: line %d: empty state", ErrSyntax, b.line)
	}
	return nil
}

func (l *htkLexer) state() (*State, error) {
	b := &stateBuilder{st: &State{}, line: l.line}
	if l.peekTag() == "NUMMIXES" {
		l.next()
		for {
			t, ok := l.peek()
			if !ok || t.kind != tokWord {
				break
			}
			if _, err := l.int(); err != nil {
				return nil, err
			}
		}
	}
	for {
		switch l.peekTag() {
		case "STREAM":
			l.next()
			idx, err := l.int()
			if err != nil {
				return nil, err
			}
			b.stream(idx)
		case "MIXTURE":
			l.next()
			idx, err := l.int()
			if err != nil {
				return nil, err
			}
			w, err := l.float()
			if err != nil {
				return nil, err
			}
			b.mixture(idx, w)
		case "MEAN":
			v, err := l.taggedVector("MEAN")
			if err != nil {
				return nil, err
			}
			b.current().Mean = v
		case "VARIANCE":
			v, err := l.taggedVector("VARIANCE")
			if err != nil {
				return nil, err
			}
			b.current().Variance = v
		case "GCONST":
			l.next()
			g, err := l.float()
			if err != nil {
				return nil, err
			}
			b.current().GConst = g
			b.gset = true
		case "SWEIGHTS", "TMIX", "DURATION", "INVCOVAR", "LLTCOVAR", "XFORM":
			t, _ := l.next()
			return nil, fmt.Errorf("%w: line %d: unsupported %s", ErrSyntax, t.line, t)
		default:
			if l.peekMacro(MacroVariance) || l.peekMacro(MacroMean) {
				t, _ := l.next()
				return nil, fmt.Errorf("%w: line %d: unsupported %s reference in state", ErrSyntax, t.line, t)
			}
			b.finish()
			if err := b.validate(); err != nil {
				return nil, err
			}
			return b.st, nil
		}
	}
}

func (l *htkLexer) hmm(name string) (*HMM, error) {
	if err := l.expectTag("BEGINHMM"); err != nil {
		return nil, err
	}
	h := &HMM{Name: name}
	if l.isOptionTag() {
		o, err := l.options()
		if err != nil {
			return nil, err
		}
		h.Definition.Options = o
	}
	if err := l.expectTag("NUMSTATES"); err != nil {
		return nil, err
	}
	n, err := l.int()
	if err != nil {
		return nil, err
	}
	h.Definition.NumStates = n

	for l.peekTag() == "STATE" {
		l.next()
		idx, err := l.int()
		if err != nil {
			return nil, err
		}
		slot := StateSlot{Index: idx}
		if l.peekMacro(MacroState) {
			l.next()
			if slot.Macro, err = l.name(); err != nil {
				return nil, err
			}
		} else if slot.State, err = l.state(); err != nil {
			return nil, err
		}
		h.Definition.States = append(h.Definition.States, slot)
	}

	if l.peekMacro(MacroTransition) {
		l.next()
		if h.Definition.Transition.Macro, err = l.name(); err != nil {
			return nil, err
		}
	} else if h.Definition.Transition.Transition, err = l.transition(); err != nil {
		return nil, err
	}

	if err := l.expectTag("ENDHMM"); err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return h, nil
}

// ReadHTK parses an HTK-ASCII stream into its macros and HMMs, in file order.
func ReadHTK(r io.Reader) ([]*Macro, []*HMM, error) {
	l := newHTKLexer(r)
	var macros []*Macro
	var hmms []*HMM

	for {
		t, ok := l.peek()
		if !ok {
			break
		}
		if t.kind != tokMacro {
			return nil, nil, syntaxError(t, "macro header")
		}
		l.next()

		kind := MacroKind(t.text[0])
		var name string
		var err error
		if kind != MacroOptions {
			if name, err = l.name(); err != nil {
				return nil, nil, err
			}
		}

		m := &Macro{Kind: kind, Name: name}
		switch kind {
		case MacroOptions:
			m.Options, err = l.options()
		case MacroState:
			m.State, err = l.state()
		case MacroTransition:
			m.Transition, err = l.transition()
		case MacroVariance:
			m.Vector, err = l.taggedVector("VARIANCE")
		case MacroMean:
			m.Vector, err = l.taggedVector("MEAN")
		case MacroHMM:
			var h *HMM
			if h, err = l.hmm(name); err != nil {
				return nil, nil, err
			}
			hmms = append(hmms, h)
			continue
		default:
			return nil, nil, fmt.Errorf("%w: line %d: unsupported macro %s", ErrSyntax, t.line, t)
		}
		if err != nil {
			return nil, nil, err
		}
		macros = append(macros, m)
	}

	if l.err != nil {
		return nil, nil, l.err
	}
	return macros, hmms, nil
}

// ReadHTKFile is a convenience wrapper that opens a file path.
func ReadHTKFile(path string) ([]*Macro, []*HMM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadHTK(f)
}
