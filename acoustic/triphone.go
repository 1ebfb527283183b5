package acoustic

import "strings"

// Context delimiters. A phone name never contains them; they separate the
// left and right contexts of biphones and triphones: "l-c+r", "l-c", "c+r".
const (
	LeftDelimiter  = "-"
	RightDelimiter = "+"
)

// Delimiters lists the context delimiters, for use with lexicon.Mapping.Map.
var Delimiters = []string{LeftDelimiter, RightDelimiter}

// Context is a phone with optional left and right contexts.
type Context struct {
	Left   string
	Center string
	Right  string
}

// ParseContext splits a monophone, biphone or triphone name.
// For "i-k+u", returns Context{"i", "k", "u"}.
func ParseContext(name string) Context {
	var c Context
	rest := name
	if i := strings.Index(rest, LeftDelimiter); i >= 0 {
		c.Left = rest[:i]
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, RightDelimiter); i >= 0 {
		c.Right = rest[i+1:]
		rest = rest[:i]
	}
	c.Center = rest
	return c
}

// String joins the context back into its "l-c+r" form.
func (c Context) String() string {
	s := c.Center
	if c.Left != "" {
		s = c.Left + LeftDelimiter + s
	}
	if c.Right != "" {
		s = s + RightDelimiter + c.Right
	}
	return s
}

// IsMonophone reports whether the context has neither left nor right part.
func (c Context) IsMonophone() bool {
	return c.Left == "" && c.Right == ""
}

// ValidPhone reports whether p can be used as an atomic phone name.
func ValidPhone(p string) bool {
	if p == "" {
		return false
	}
	return !strings.ContainsAny(p, LeftDelimiter+RightDelimiter+" \t\r\n\"")
}

// ValidName reports whether name is a valid monophone, biphone or triphone name.
func ValidName(name string) bool {
	c := ParseContext(name)
	if !ValidPhone(c.Center) {
		return false
	}
	if strings.Contains(name, LeftDelimiter) && !ValidPhone(c.Left) {
		return false
	}
	if strings.Contains(name, RightDelimiter) && !ValidPhone(c.Right) {
		return false
	}
	return true
}
