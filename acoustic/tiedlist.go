package acoustic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/brigittebigi/sppas-sub001/lexicon"
)

// TiedList lists the phones observed in the training data and maps each
// unseen ("tied") phone to the observed phone whose parameters it shares.
type TiedList struct {
	observed map[string]bool
	tied     map[string]string // tied -> observed
}

// NewTiedList creates an empty tied list.
func NewTiedList() *TiedList {
	return &TiedList{
		observed: make(map[string]bool),
		tied:     make(map[string]string),
	}
}

// Len returns the number of observed plus tied entries.
func (t *TiedList) Len() int {
	return len(t.observed) + len(t.tied)
}

// IsEmpty reports whether the list has no entry.
func (t *TiedList) IsEmpty() bool {
	return t.Len() == 0
}

// IsObserved reports whether name is an observed entry.
func (t *TiedList) IsObserved(name string) bool {
	return t.observed[name]
}

// IsTied reports whether name is a tied entry.
func (t *TiedList) IsTied(name string) bool {
	_, ok := t.tied[name]
	return ok
}

// Observed returns the observed entries, sorted.
func (t *TiedList) Observed() []string {
	out := make([]string, 0, len(t.observed))
	for o := range t.observed {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// Tied returns the observed entry name is tied to.
func (t *TiedList) Tied(name string) (string, bool) {
	o, ok := t.tied[name]
	return o, ok
}

// TiedNames returns the tied entries, sorted.
func (t *TiedList) TiedNames() []string {
	out := make([]string, 0, len(t.tied))
	for k := range t.tied {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AddObserved adds an observed entry. It returns false if name is already
// observed or tied.
func (t *TiedList) AddObserved(name string) bool {
	if t.observed[name] || t.IsTied(name) {
		return false
	}
	t.observed[name] = true
	return true
}

// AddTied ties name to an observed entry. If observed is empty, the observed
// entry sharing the same centre phone and the most contexts is chosen.
// It returns false if name is already known or no observed entry fits.
func (t *TiedList) AddTied(name, observed string) bool {
	if t.observed[name] || t.IsTied(name) {
		return false
	}
	if observed == "" {
		observed = t.closestObserved(name)
		if observed == "" {
			return false
		}
	}
	t.tied[name] = observed
	return true
}

// closestObserved returns the observed entry with the same centre phone as
// name at the smallest phone edit distance; ties go to the first in sorted order.
func (t *TiedList) closestObserved(name string) string {
	want := ParseContext(name)
	wantPhones := []string{want.Left, want.Center, want.Right}
	best := ""
	bestDist := -1
	for _, o := range t.Observed() {
		c := ParseContext(o)
		if c.Center != want.Center {
			continue
		}
		d := lexicon.EditDistance(wantPhones, []string{c.Left, c.Center, c.Right})
		if bestDist < 0 || d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// Remove deletes name from the observed or tied entries. When an observed
// entry is removed, the entries tied to it are removed too.
func (t *TiedList) Remove(name string) bool {
	if t.observed[name] {
		delete(t.observed, name)
		for k, o := range t.tied {
			if o == name {
				delete(t.tied, k)
			}
		}
		return true
	}
	if t.IsTied(name) {
		delete(t.tied, name)
		return true
	}
	return false
}

// Merge adds the observed and tied entries of other that t does not know yet.
func (t *TiedList) Merge(other *TiedList) {
	if other == nil {
		return
	}
	for o := range other.observed {
		if t.IsTied(o) {
			delete(t.tied, o)
		}
		t.observed[o] = true
	}
	for k, o := range other.tied {
		t.AddTied(k, o)
	}
}

// Clone returns a deep copy. A nil list clones to an empty one.
func (t *TiedList) Clone() *TiedList {
	c := NewTiedList()
	if t == nil {
		return c
	}
	for o := range t.observed {
		c.observed[o] = true
	}
	for k, o := range t.tied {
		c.tied[k] = o
	}
	return c
}

// ReadTiedList reads a tied list: one observed entry per line, or
// "tied observed" per line.
func ReadTiedList(r io.Reader) (*TiedList, error) {
	t := NewTiedList()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		switch len(fields) {
		case 0:
			continue
		case 1:
			t.AddObserved(fields[0])
		case 2:
			t.tied[fields[0]] = fields[1]
		default:
			return nil, fmt.Errorf("line %d: expected 1 or 2 fields, got %d", lineNum, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// A tied entry may be listed before the observed entry it points to.
	for k := range t.tied {
		if t.observed[k] {
			delete(t.tied, k)
		}
	}
	return t, nil
}

// Write writes observed entries, then "tied observed" lines, both sorted.
func (t *TiedList) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, o := range t.Observed() {
		fmt.Fprintln(bw, o)
	}
	for _, k := range t.TiedNames() {
		fmt.Fprintf(bw, "%s %s\n", k, t.tied[k])
	}
	return bw.Flush()
}

// ReadTiedListFile is a convenience wrapper that opens a file path.
func ReadTiedListFile(path string) (*TiedList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTiedList(f)
}

// WriteFile writes the tied list to path.
func (t *TiedList) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
