package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// LoadARPA reads a language model in ARPA format.
// Log probabilities in ARPA files are base-10; they are converted to natural log.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	// Skip until \data\ section
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "\\data\\" {
			break
		}
	}

	// Parse ngram counts
	maxOrder := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ngram ") {
			parts := strings.SplitN(line[6:], "=", 2)
			if len(parts) == 2 {
				order, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
				if order > maxOrder {
					maxOrder = order
				}
			}
			continue
		}
		break
	}
	if maxOrder < 1 {
		return nil, fmt.Errorf("%w: no ngram counts in \\data\\ section", ErrOrder)
	}
	model := NewNGramModel(maxOrder)

	// Parse n-gram sections
	for {
		line := strings.TrimSpace(scanner.Text())

		if line == "\\end\\" {
			break
		}

		if strings.HasPrefix(line, "\\") && strings.HasSuffix(line, ":") {
			// e.g., \1-grams:
			orderStr := strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:")
			order, err := strconv.Atoi(orderStr)
			if err != nil || order < 1 || order > maxOrder {
				// Skip this section header
				if !scanner.Scan() {
					break
				}
				continue
			}

			for scanner.Scan() {
				entry := strings.TrimSpace(scanner.Text())
				if entry == "" {
					continue
				}
				if strings.HasPrefix(entry, "\\") {
					break
				}
				if err := parseNGramLine(model, order, entry); err != nil {
					return nil, fmt.Errorf("parse n-gram line %q: %w", entry, err)
				}
			}
			continue
		}

		if !scanner.Scan() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return model, nil
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return fmt.Errorf("too few fields for %d-gram: %q", order, line)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}
	// Convert base-10 to natural log
	logProb *= math.Ln10

	words := fields[1 : order+1]

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
		logBackoff = bo * math.Ln10
	}

	model.set(words, ngramEntry{LogProb: logProb, LogBackoff: logBackoff})
	return nil
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
// N-grams are sorted within each section; backoffs equal to zero are omitted.
func (m *NGramModel) WriteARPA(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "\\data\\")
	for k := 1; k <= len(m.Grams); k++ {
		fmt.Fprintf(bw, "ngram %d=%d\n", k, len(m.Grams[k-1]))
	}
	fmt.Fprintln(bw)

	for k := 1; k <= len(m.Grams); k++ {
		keys := make([]string, 0, len(m.Grams[k-1]))
		for key := range m.Grams[k-1] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(bw, "\\%d-grams:\n", k)
		for _, key := range keys {
			e := m.Grams[k-1][key]
			lp := e.LogProb / math.Ln10
			if e.LogBackoff != 0 && k < len(m.Grams) {
				fmt.Fprintf(bw, "%.6f\t%s\t%.6f\n", lp, key, e.LogBackoff/math.Ln10)
			} else {
				fmt.Fprintf(bw, "%.6f\t%s\n", lp, key)
			}
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "\\end\\")
	return bw.Flush()
}
