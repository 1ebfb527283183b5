package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mapping is a reversible key→value substitution table, used to rename
// phones whose symbols are not accepted by an acoustic-model toolkit.
// A key may map to several values; the first one added wins when mapping.
//
// The reverse flag selects the direction used by MapEntry and Map:
// forward maps keys to values, reverse maps values back to keys.
type Mapping struct {
	keys    []string            // insertion order
	values  map[string][]string // key -> values
	reverse bool
}

// NewMapping creates an empty mapping in forward direction.
func NewMapping() *Mapping {
	return &Mapping{
		values: make(map[string][]string),
	}
}

// Add adds a key→value pair. Adding an existing pair is a no-op.
// Keys and values must be non-empty and must not contain whitespace.
func (m *Mapping) Add(key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("lexicon: empty mapping entry %q -> %q", key, value)
	}
	if strings.ContainsAny(key, " \t\r\n") || strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("lexicon: whitespace in mapping entry %q -> %q", key, value)
	}
	if m.IsKeyValue(key, value) {
		return nil
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], value)
	return nil
}

// Remove deletes a key and all its values. It returns false if key was absent.
func (m *Mapping) Remove(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// IsKey reports whether key is in the table.
func (m *Mapping) IsKey(key string) bool {
	_, ok := m.values[key]
	return ok
}

// IsKeyValue reports whether the exact key→value pair is in the table.
func (m *Mapping) IsKeyValue(key, value string) bool {
	for _, v := range m.values[key] {
		if v == value {
			return true
		}
	}
	return false
}

// Values returns the values of key, in insertion order.
func (m *Mapping) Values(key string) []string {
	return m.values[key]
}

// Keys returns all keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of key→value pairs.
func (m *Mapping) Len() int {
	n := 0
	for _, vs := range m.values {
		n += len(vs)
	}
	return n
}

// IsEmpty reports whether the table has no entries.
func (m *Mapping) IsEmpty() bool {
	return len(m.keys) == 0
}

// Reverse reports the current direction.
func (m *Mapping) Reverse() bool {
	return m.reverse
}

// SetReverse sets the direction used by MapEntry and Map.
func (m *Mapping) SetReverse(reverse bool) {
	m.reverse = reverse
}

// WithReverse runs fn with the direction set to reverse and restores the
// previous direction when fn returns or panics.
func (m *Mapping) WithReverse(reverse bool, fn func() error) error {
	old := m.reverse
	m.reverse = reverse
	defer func() { m.reverse = old }()
	return fn()
}

// MapEntry maps a single entry in the current direction.
// Entries without a mapping are returned unchanged.
func (m *Mapping) MapEntry(entry string) string {
	if !m.reverse {
		if vs := m.values[entry]; len(vs) > 0 {
			return vs[0]
		}
		return entry
	}
	for _, k := range m.keys {
		for _, v := range m.values[k] {
			if v == entry {
				return k
			}
		}
	}
	return entry
}

// Map splits s on the given delimiters, maps every component with
// MapEntry and joins the result back with the original delimiters.
// For example, with delimiters "-" and "+", "a-b+c" maps a, b and c.
func (m *Mapping) Map(s string, delimiters ...string) string {
	if len(delimiters) == 0 {
		return m.MapEntry(s)
	}
	var b strings.Builder
	start := 0
	for i := 0; i < len(s); {
		d := delimiterAt(s, i, delimiters)
		if d == "" {
			i++
			continue
		}
		if i > start {
			b.WriteString(m.MapEntry(s[start:i]))
		}
		b.WriteString(d)
		i += len(d)
		start = i
	}
	if start < len(s) {
		b.WriteString(m.MapEntry(s[start:]))
	}
	return b.String()
}

func delimiterAt(s string, i int, delimiters []string) string {
	for _, d := range delimiters {
		if d != "" && strings.HasPrefix(s[i:], d) {
			return d
		}
	}
	return ""
}

// Read reads a mapping table: one "key value" pair per line.
// Empty lines and lines starting with ";;" are ignored.
func Read(r io.Reader) (*Mapping, error) {
	m := NewMapping()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNum, len(fields))
		}
		if err := m.Add(fields[0], fields[1]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Write writes the table, one "key value" pair per line, in insertion order.
func (m *Mapping) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, k := range m.keys {
		for _, v := range m.values[k] {
			if _, err := fmt.Fprintf(bw, "%s %s\n", k, v); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// SaveFile writes the table to path.
func (m *Mapping) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
