package language

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/brigittebigi/sppas-sub001/internal/mathutil"
)

// Sentence markers and the unknown-word token.
const (
	StartMarker = "<s>"
	EndMarker   = "</s>"
	Unknown     = "<unk>"
)

var (
	// ErrOrder is returned for an n-gram order below 1.
	ErrOrder = errors.New("language: invalid n-gram order")

	// ErrMethod is returned for an unknown estimation method.
	ErrMethod = errors.New("language: unknown estimation method")
)

// NGramModel represents a back-off n-gram language model of any order.
// Grams[k-1] holds the k-grams, keyed by their words joined with a space.
type NGramModel struct {
	Order int
	Grams []map[string]ngramEntry

	// OOVLogProb is the natural log probability given to words missing from
	// the unigrams when the model has no <unk> entry. 0 means LogZero.
	OOVLogProb float64
}

type ngramEntry struct {
	LogProb    float64 // natural log
	LogBackoff float64 // natural log
}

// NewNGramModel creates an empty n-gram model.
func NewNGramModel(order int) *NGramModel {
	m := &NGramModel{Order: order}
	m.Grams = make([]map[string]ngramEntry, order)
	for i := range m.Grams {
		m.Grams[i] = make(map[string]ngramEntry)
	}
	return m
}

func joinKey(words []string) string {
	return strings.Join(words, " ")
}

func splitKey(key string) []string {
	return strings.Split(key, " ")
}

// Size returns the number of n-grams of the given order.
func (m *NGramModel) Size(order int) int {
	if order < 1 || order > len(m.Grams) {
		return 0
	}
	return len(m.Grams[order-1])
}

func (m *NGramModel) entry(words []string) (ngramEntry, bool) {
	if len(words) == 0 || len(words) > len(m.Grams) {
		return ngramEntry{}, false
	}
	e, ok := m.Grams[len(words)-1][joinKey(words)]
	return e, ok
}

func (m *NGramModel) set(words []string, e ngramEntry) {
	for len(m.Grams) < len(words) {
		m.Grams = append(m.Grams, make(map[string]ngramEntry))
	}
	if len(words) > m.Order {
		m.Order = len(words)
	}
	m.Grams[len(words)-1][joinKey(words)] = e
}

// LogProb returns the natural log probability of a word given its history.
// Uses backoff when the exact n-gram is not found.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	n := m.Order - 1
	if n > len(history) {
		n = len(history)
	}
	if n < 0 {
		n = 0
	}
	return m.backoff(history[len(history)-n:], word)
}

func (m *NGramModel) backoff(history []string, word string) float64 {
	if len(history) == 0 {
		return m.logProbUnigram(word)
	}
	ngram := append(append(make([]string, 0, len(history)+1), history...), word)
	if e, ok := m.entry(ngram); ok {
		return e.LogProb
	}
	bo := 0.0
	if e, ok := m.entry(history); ok {
		bo = e.LogBackoff
	}
	return bo + m.backoff(history[1:], word)
}

func (m *NGramModel) logProbUnigram(word string) float64 {
	if e, ok := m.entry([]string{word}); ok {
		return e.LogProb
	}
	if e, ok := m.entry([]string{Unknown}); ok {
		return e.LogProb
	}
	if m.OOVLogProb != 0 {
		return m.OOVLogProb
	}
	return mathutil.LogZero
}

// SentenceLogProb returns the total log probability of a sentence (word sequence).
// Automatically adds <s> at the beginning and </s> at the end.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{StartMarker}
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	total += m.LogProb(history, EndMarker)
	return total
}

// Perplexity returns exp(-L/N) over the sentences, where L is the total
// log probability and N counts every word plus one </s> per sentence.
func (m *NGramModel) Perplexity(sentences [][]string) float64 {
	total := 0.0
	n := 0
	for _, s := range sentences {
		total += m.SentenceLogProb(s)
		n += len(s) + 1
	}
	if n == 0 {
		return 0
	}
	return math.Exp(-total / float64(n))
}

// Vocab returns all words in the unigram vocabulary, sorted.
func (m *NGramModel) Vocab() []string {
	if len(m.Grams) == 0 {
		return nil
	}
	words := make([]string, 0, len(m.Grams[0]))
	for w := range m.Grams[0] {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
