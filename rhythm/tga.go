// Package rhythm implements time-group analysis (TGA): syllables are
// grouped into time groups delimited by silences and the duration of the
// syllables of each group is described by a few statistics.
package rhythm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brigittebigi/sppas-sub001/internal/mathutil"
)

// ErrEmptyGroup is returned when a time group has no duration.
var ErrEmptyGroup = errors.New("rhythm: empty time group")

// DefaultPrefix names the time groups tg_1, tg_2, ...
const DefaultPrefix = "tg_"

// DefaultSilences are the labels that close a time group. An empty label
// is always a silence.
var DefaultSilences = []string{"#", "+", "sil", "sp"}

// Interval is a labelled time span in seconds.
type Interval struct {
	Begin float64
	End   float64
	Label string
}

// Duration returns End - Begin.
func (i Interval) Duration() float64 { return i.End - i.Begin }

// Group is a named sequence of syllables with no silence between them.
type Group struct {
	Name      string
	Syllables []Interval
}

// Durations returns the syllable durations in order.
func (g Group) Durations() []float64 {
	d := make([]float64, len(g.Syllables))
	for i, s := range g.Syllables {
		d[i] = s.Duration()
	}
	return d
}

// Begin returns the start time of the group.
func (g Group) Begin() float64 {
	if len(g.Syllables) == 0 {
		return 0
	}
	return g.Syllables[0].Begin
}

// End returns the end time of the group.
func (g Group) End() float64 {
	if len(g.Syllables) == 0 {
		return 0
	}
	return g.Syllables[len(g.Syllables)-1].End
}

type segmentConfig struct {
	prefix string
}

// SegmentOption configures Segment.
type SegmentOption func(*segmentConfig)

// WithPrefix sets the prefix of the group names.
func WithPrefix(prefix string) SegmentOption {
	return func(c *segmentConfig) {
		c.prefix = prefix
	}
}

// Segment splits a syllable tier into time groups. Each interval labelled
// with one of silences (compared after trimming spaces) closes the current
// group; groups are numbered from 1 in time order.
func Segment(syllables []Interval, silences []string, opts ...SegmentOption) []Group {
	cfg := segmentConfig{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	silent := make(map[string]bool, len(silences)+1)
	silent[""] = true
	for _, s := range silences {
		silent[strings.TrimSpace(s)] = true
	}

	var groups []Group
	var cur []Interval
	flush := func() {
		if len(cur) == 0 {
			return
		}
		groups = append(groups, Group{
			Name:      fmt.Sprintf("%s%d", cfg.prefix, len(groups)+1),
			Syllables: cur,
		})
		cur = nil
	}
	for _, syl := range syllables {
		if silent[strings.TrimSpace(syl.Label)] {
			flush()
			continue
		}
		cur = append(cur, syl)
	}
	flush()
	return groups
}

// Regression is a linear fit of the durations against their position.
type Regression struct {
	Intercept float64
	Slope     float64
}

// Analysis holds the syllable durations of named time groups.
type Analysis struct {
	names     []string
	durations map[string][]float64
}

// NewAnalysis builds an analysis from segmented groups.
func NewAnalysis(groups []Group) (*Analysis, error) {
	a := &Analysis{durations: make(map[string][]float64, len(groups))}
	for _, g := range groups {
		if err := a.Add(g.Name, g.Durations()...); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Add appends durations to a group, creating it if needed.
func (a *Analysis) Add(name string, durations ...float64) error {
	if len(durations) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyGroup, name)
	}
	if a.durations == nil {
		a.durations = make(map[string][]float64)
	}
	if _, ok := a.durations[name]; !ok {
		a.names = append(a.names, name)
	}
	a.durations[name] = append(a.durations[name], durations...)
	return nil
}

// Names returns the group names in insertion order.
func (a *Analysis) Names() []string {
	return append([]string(nil), a.names...)
}

// Durations returns a copy of the durations of a group.
func (a *Analysis) Durations(name string) []float64 {
	return append([]float64(nil), a.durations[name]...)
}

func (a *Analysis) each(fn func([]float64) float64) map[string]float64 {
	out := make(map[string]float64, len(a.names))
	for _, n := range a.names {
		out[n] = fn(a.durations[n])
	}
	return out
}

// Len returns the number of syllables of each group.
func (a *Analysis) Len() map[string]int {
	out := make(map[string]int, len(a.names))
	for _, n := range a.names {
		out[n] = len(a.durations[n])
	}
	return out
}

// Total returns the summed duration of each group.
func (a *Analysis) Total() map[string]float64 { return a.each(mathutil.Sum) }

// Mean returns the mean syllable duration of each group.
func (a *Analysis) Mean() map[string]float64 { return a.each(mathutil.Mean) }

// Median returns the median syllable duration of each group.
func (a *Analysis) Median() map[string]float64 { return a.each(mathutil.Median) }

// Stdev returns the population standard deviation of each group.
func (a *Analysis) Stdev() map[string]float64 { return a.each(mathutil.Stdev) }

// NPVI returns the normalized pairwise variability index of each group.
func (a *Analysis) NPVI() map[string]float64 { return a.each(mathutil.NPVI) }

// InterceptSlopeOriginal fits the durations against positions 1..n.
func (a *Analysis) InterceptSlopeOriginal() map[string]Regression {
	return a.regress(1)
}

// InterceptSlope fits the durations against positions 0..n-1, as
// AnnotationPro does.
func (a *Analysis) InterceptSlope() map[string]Regression {
	return a.regress(0)
}

func (a *Analysis) regress(first int) map[string]Regression {
	out := make(map[string]Regression, len(a.names))
	for _, n := range a.names {
		ys := a.durations[n]
		xs := make([]float64, len(ys))
		for i := range xs {
			xs[i] = float64(first + i)
		}
		intercept, slope := mathutil.LinearRegression(xs, ys)
		out[n] = Regression{Intercept: intercept, Slope: slope}
	}
	return out
}

// Stats gathers every statistic of one group.
type Stats struct {
	Name     string
	Len      int
	Total    float64
	Mean     float64
	Median   float64
	Stdev    float64
	NPVI     float64
	Original Regression
	AnnotPro Regression
}

// Report returns the statistics of every group in insertion order.
func (a *Analysis) Report() []Stats {
	orig := a.InterceptSlopeOriginal()
	ap := a.InterceptSlope()
	out := make([]Stats, 0, len(a.names))
	for _, n := range a.names {
		d := a.durations[n]
		out = append(out, Stats{
			Name:     n,
			Len:      len(d),
			Total:    mathutil.Sum(d),
			Mean:     mathutil.Mean(d),
			Median:   mathutil.Median(d),
			Stdev:    mathutil.Stdev(d),
			NPVI:     mathutil.NPVI(d),
			Original: orig[n],
			AnnotPro: ap[n],
		})
	}
	return out
}
