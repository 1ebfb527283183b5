package language

import (
	"fmt"
	"math"

	"github.com/brigittebigi/sppas-sub001/internal/mathutil"
)

// Method names an n-gram probability estimator.
type Method string

const (
	MethodRaw        Method = "raw"        // counts
	MethodLogRaw     Method = "lograw"     // log10 of counts
	MethodML         Method = "ml"         // maximum likelihood
	MethodLogML      Method = "logml"      // log10 maximum likelihood
	MethodWittenBell Method = "wittenbell" // log10 Witten-Bell with backoff weights
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodRaw, MethodLogRaw, MethodML, MethodLogML, MethodWittenBell:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMethod, s)
}

// Prob is one estimated n-gram value with its backoff weight.
// Both are base-10 logs for the log methods and linear otherwise.
type Prob struct {
	Value   float64
	Backoff float64
}

// Estimate computes one table per order from the counts: tables[k-1] holds
// the k-grams keyed like Counter.NGrams.
func Estimate(c *Counter, method Method) ([]map[string]Prob, error) {
	switch method {
	case MethodRaw, MethodLogRaw:
		return rawTables(c, method == MethodLogRaw), nil
	case MethodML, MethodLogML:
		return mlTables(c, method == MethodLogML), nil
	case MethodWittenBell:
		return wittenBellTables(c), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrMethod, method)
}

// Build estimates a back-off model from the counts. Only probability
// methods (ml, logml, wittenbell) can build a model.
func Build(c *Counter, method Method) (*NGramModel, error) {
	switch method {
	case MethodML, MethodLogML:
		method = MethodLogML
	case MethodWittenBell:
	default:
		return nil, fmt.Errorf("%w: %q cannot build a model", ErrMethod, method)
	}
	tables, err := Estimate(c, method)
	if err != nil {
		return nil, err
	}
	m := NewNGramModel(c.order)
	for k, table := range tables {
		for key, p := range table {
			m.Grams[k][key] = ngramEntry{
				LogProb:    p.Value * math.Ln10,
				LogBackoff: p.Backoff * math.Ln10,
			}
		}
	}
	return m, nil
}

func rawTables(c *Counter, logScale bool) []map[string]Prob {
	tables := make([]map[string]Prob, c.order)
	for k := range c.counts {
		tables[k] = make(map[string]Prob, len(c.counts[k]))
		for key, n := range c.counts[k] {
			v := float64(n)
			if logScale {
				v = mathutil.Log10(v)
			}
			tables[k][key] = Prob{Value: v}
		}
	}
	return tables
}

// histories sums, for each order, the counts and distinct continuations of
// every history: N(h) and T(h).
type histories struct {
	total []map[string]int
	types []map[string]int
	next  []map[string][]string
}

func countHistories(c *Counter) histories {
	h := histories{
		total: make([]map[string]int, c.order),
		types: make([]map[string]int, c.order),
		next:  make([]map[string][]string, c.order),
	}
	for k := range c.counts {
		h.total[k] = make(map[string]int)
		h.types[k] = make(map[string]int)
		h.next[k] = make(map[string][]string)
		for key, n := range c.counts[k] {
			words := splitKey(key)
			hist := joinKey(words[:len(words)-1])
			h.total[k][hist] += n
			h.types[k][hist]++
			h.next[k][hist] = append(h.next[k][hist], words[len(words)-1])
		}
	}
	return h
}

func mlTables(c *Counter, logScale bool) []map[string]Prob {
	h := countHistories(c)
	tables := make([]map[string]Prob, c.order)
	for k := range c.counts {
		tables[k] = make(map[string]Prob, len(c.counts[k]))
		for key, n := range c.counts[k] {
			words := splitKey(key)
			v := float64(n) / float64(h.total[k][joinKey(words[:len(words)-1])])
			if logScale {
				v = mathutil.Log10(v)
			}
			tables[k][key] = Prob{Value: v}
		}
	}
	return tables
}

// wittenBellTables estimates P(w|h) = C(h,w) / (N(h) + T(h)) for orders
// above 1 and MLE unigrams. The backoff weight of h redistributes the
// leftover mass over the lower order:
// bow(h) = (1 - sum P(w|h)) / (1 - sum P_bo(w|h[1:])) for the seen w.
func wittenBellTables(c *Counter) []map[string]Prob {
	h := countHistories(c)

	probs := make([]map[string]float64, c.order)
	for k := range c.counts {
		probs[k] = make(map[string]float64, len(c.counts[k]))
		for key, n := range c.counts[k] {
			words := splitKey(key)
			hist := joinKey(words[:len(words)-1])
			denom := h.total[k][hist]
			if k > 0 {
				denom += h.types[k][hist]
			}
			probs[k][key] = float64(n) / float64(denom)
		}
	}

	bows := make([]map[string]float64, c.order)
	for k := range bows {
		bows[k] = make(map[string]float64)
	}

	var backedOff func(hist []string, w string) float64
	backedOff = func(hist []string, w string) float64 {
		if len(hist) == 0 {
			return probs[0][w]
		}
		ngram := append(append(make([]string, 0, len(hist)+1), hist...), w)
		if p, ok := probs[len(hist)][joinKey(ngram)]; ok {
			return p
		}
		bo := 1.0
		if b, ok := bows[len(hist)-1][joinKey(hist)]; ok {
			bo = b
		}
		return bo * backedOff(hist[1:], w)
	}

	// Lower orders first: the denominator of bow(h) needs bow(h[1:]).
	for k := 1; k < c.order; k++ {
		for hist, nexts := range h.next[k] {
			histWords := splitKey(hist)
			sumHigh, sumLow := 0.0, 0.0
			for _, w := range nexts {
				sumHigh += probs[k][hist+" "+w]
				sumLow += backedOff(histWords[1:], w)
			}
			if sumLow < 1.0 {
				bows[k-1][hist] = (1.0 - sumHigh) / (1.0 - sumLow)
			}
		}
	}

	tables := make([]map[string]Prob, c.order)
	for k := range probs {
		tables[k] = make(map[string]Prob, len(probs[k]))
		for key, p := range probs[k] {
			var bo float64
			if b, ok := bows[k][key]; ok && b > 0 {
				bo = math.Log10(b)
			}
			tables[k][key] = Prob{Value: mathutil.Log10(p), Backoff: bo}
		}
	}
	return tables
}
