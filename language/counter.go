package language

import (
	"fmt"
	"sort"
	"strings"
)

// Counter accumulates n-gram counts of every order from 1 to Order.
type Counter struct {
	order     int
	counts    []map[string]int
	vocab     map[string]bool
	markers   bool
	sentences int
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithVocab restricts counting to a fixed vocabulary: other words are
// counted as <unk>.
func WithVocab(words []string) CounterOption {
	return func(c *Counter) {
		c.vocab = make(map[string]bool, len(words))
		for _, w := range words {
			c.vocab[w] = true
		}
	}
}

// WithoutMarkers disables the automatic <s> and </s> around sentences.
func WithoutMarkers() CounterOption {
	return func(c *Counter) {
		c.markers = false
	}
}

// NewCounter creates a counter for n-grams up to order.
func NewCounter(order int, opts ...CounterOption) (*Counter, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrOrder, order)
	}
	c := &Counter{order: order, markers: true}
	c.counts = make([]map[string]int, order)
	for i := range c.counts {
		c.counts[i] = make(map[string]int)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Order returns the highest n-gram order counted.
func (c *Counter) Order() int { return c.order }

// Sentences returns the number of sentences added.
func (c *Counter) Sentences() int { return c.sentences }

// AddSentence counts every n-gram of a tokenized sentence.
// Empty sentences are ignored.
func (c *Counter) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	seq := make([]string, 0, len(words)+2)
	if c.markers {
		seq = append(seq, StartMarker)
	}
	for _, w := range words {
		if c.vocab != nil && !c.vocab[w] {
			w = Unknown
		}
		seq = append(seq, w)
	}
	if c.markers {
		seq = append(seq, EndMarker)
	}

	for i := range seq {
		for k := 1; k <= c.order && k <= i+1; k++ {
			c.counts[k-1][joinKey(seq[i+1-k:i+1])]++
		}
	}
	c.sentences++
}

// AddText splits each line of text on whitespace and adds it as a sentence.
func (c *Counter) AddText(text string) {
	for _, line := range strings.Split(text, "\n") {
		c.AddSentence(strings.Fields(line))
	}
}

// Count returns the number of occurrences of an n-gram.
func (c *Counter) Count(words ...string) int {
	if len(words) == 0 || len(words) > c.order {
		return 0
	}
	return c.counts[len(words)-1][joinKey(words)]
}

// NGrams returns the sorted n-grams of the given order.
func (c *Counter) NGrams(order int) []string {
	if order < 1 || order > c.order {
		return nil
	}
	keys := make([]string, 0, len(c.counts[order-1]))
	for k := range c.counts[order-1] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Shrink removes the n-grams of order 2 and above seen fewer than
// minCount times. Unigrams are kept so the vocabulary stays complete.
func (c *Counter) Shrink(minCount int) {
	for k := 2; k <= c.order; k++ {
		for key, n := range c.counts[k-1] {
			if n < minCount {
				delete(c.counts[k-1], key)
			}
		}
	}
}
