package language

import (
	"io"
)

// Builder accumulates sentences and builds a Witten-Bell N-gram language model.
type Builder struct {
	counter *Counter
}

// NewBuilder creates a new N-gram builder. Orders below 1 are raised to 1.
func NewBuilder(order int, opts ...CounterOption) *Builder {
	if order < 1 {
		order = 1
	}
	c, _ := NewCounter(order, opts...)
	return &Builder{counter: c}
}

// AddSentence adds a tokenized sentence. <s> and </s> are added automatically.
func (b *Builder) AddSentence(words []string) {
	b.counter.AddSentence(words)
}

// Counter exposes the accumulated counts.
func (b *Builder) Counter() *Counter {
	return b.counter
}

// Model estimates the Witten-Bell back-off model.
func (b *Builder) Model() (*NGramModel, error) {
	return Build(b.counter, MethodWittenBell)
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
// Uses Witten-Bell smoothing.
func (b *Builder) WriteARPA(w io.Writer) error {
	m, err := b.Model()
	if err != nil {
		return err
	}
	return m.WriteARPA(w)
}
