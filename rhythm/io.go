package rhythm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadDurations reads "group duration" lines into an analysis. Blank lines
// and lines starting with ';;' are ignored.
func ReadDurations(r io.Reader) (*Analysis, error) {
	a := &Analysis{}
	err := scanLines(r, func(lineNo int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: want 2 fields, got %d", lineNo, len(fields))
		}
		d, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		return a.Add(fields[0], d)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ReadIntervals reads "begin end [label]" lines. A missing label is empty,
// which Segment treats as a silence.
func ReadIntervals(r io.Reader) ([]Interval, error) {
	var out []Interval
	err := scanLines(r, func(lineNo int, fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("line %d: want begin end [label]", lineNo)
		}
		b, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: begin: %w", lineNo, err)
		}
		e, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: end: %w", lineNo, err)
		}
		if e < b {
			return fmt.Errorf("line %d: end %g before begin %g", lineNo, e, b)
		}
		out = append(out, Interval{Begin: b, End: e, Label: strings.Join(fields[2:], " ")})
		return nil
	})
	return out, err
}

func scanLines(r io.Reader, fn func(lineNo int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		if err := fn(lineNo, strings.Fields(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// WriteReport writes one tab-separated line per group with a header.
func WriteReport(w io.Writer, stats []Stats) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "group\tlen\ttotal\tmean\tmedian\tstdev\tnpvi\tintercept\tslope\tintercept_ap\tslope_ap")
	for _, s := range stats {
		fmt.Fprintf(bw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			s.Name, s.Len, s.Total, s.Mean, s.Median, s.Stdev, s.NPVI,
			s.Original.Intercept, s.Original.Slope, s.AnnotPro.Intercept, s.AnnotPro.Slope)
	}
	return bw.Flush()
}
