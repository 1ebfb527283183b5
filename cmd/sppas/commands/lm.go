package commands

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brigittebigi/sppas-sub001/language"
)

func (a *app) newLMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lm",
		Short: "Build and evaluate n-gram language models",
	}
	cmd.AddCommand(a.newLMBuildCmd(), a.newLMEvalCmd())
	return cmd
}

// forEachInput calls fn with stdin when paths is empty, else with each file.
func forEachInput(in io.Reader, paths []string, fn func(io.Reader) error) error {
	if len(paths) == 0 {
		return fn(in)
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		err = fn(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	return nil
}

// readSentences returns one tokenized sentence per non-empty line.
func readSentences(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	var out [][]string
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out, scanner.Err()
}

// createOutput opens path for writing, or returns w when path is empty.
func createOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func (a *app) newLMBuildCmd() *cobra.Command {
	var output, method string
	var order, minCount int
	cmd := &cobra.Command{
		Use:   "build [input-files...]",
		Short: "Estimate an n-gram model from tokenized text",
		Long: `Estimate an n-gram model from tokenized text: one sentence per line,
words separated by spaces. Reads stdin when no file is given.

Methods wittenbell, ml and logml write an ARPA model. Methods raw and
lograw write the count tables, one "value<TAB>ngram" line per n-gram.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("order") {
				order = a.cfg.LM.Order
			}
			if !flags.Changed("method") {
				method = a.cfg.LM.Method
			}
			if !flags.Changed("min-count") {
				minCount = a.cfg.LM.MinCount
			}
			m, err := language.ParseMethod(method)
			if err != nil {
				return err
			}
			var opts []language.CounterOption
			if !a.cfg.LM.Markers {
				opts = append(opts, language.WithoutMarkers())
			}
			counter, err := language.NewCounter(order, opts...)
			if err != nil {
				return err
			}

			err = forEachInput(cmd.InOrStdin(), args, func(r io.Reader) error {
				sentences, err := readSentences(r)
				for _, s := range sentences {
					counter.AddSentence(s)
				}
				return err
			})
			if err != nil {
				return err
			}
			if minCount > 1 {
				counter.Shrink(minCount)
			}

			w, closeOut, err := createOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := writeEstimate(w, counter, m); err != nil {
				closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}
			log.Info().
				Int("order", order).
				Str("method", string(m)).
				Int("sentences", counter.Sentences()).
				Msg("language model built")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&order, "order", 3, "n-gram order")
	cmd.Flags().StringVar(&method, "method", "wittenbell", "raw, lograw, ml, logml or wittenbell")
	cmd.Flags().IntVar(&minCount, "min-count", 1, "drop n-grams (order 2 and above) seen fewer times")
	return cmd
}

func writeEstimate(w io.Writer, c *language.Counter, m language.Method) error {
	if m == language.MethodRaw || m == language.MethodLogRaw {
		tables, err := language.Estimate(c, m)
		if err != nil {
			return err
		}
		bw := bufio.NewWriter(w)
		for k := 1; k <= c.Order(); k++ {
			for _, key := range c.NGrams(k) {
				fmt.Fprintf(bw, "%g\t%s\n", tables[k-1][key].Value, key)
			}
		}
		return bw.Flush()
	}
	model, err := language.Build(c, m)
	if err != nil {
		return err
	}
	return model.WriteARPA(w)
}

func (a *app) newLMEvalCmd() *cobra.Command {
	var oov float64
	cmd := &cobra.Command{
		Use:   "eval <model.arpa> [input-files...]",
		Short: "Compute the perplexity of tokenized text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open language model: %w", err)
			}
			model, err := language.LoadARPA(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("load language model: %w", err)
			}
			if oov != 0 {
				model.OOVLogProb = oov * math.Ln10 // convert log10 to natural log
			}

			var sentences [][]string
			err = forEachInput(cmd.InOrStdin(), args[1:], func(r io.Reader) error {
				s, err := readSentences(r)
				sentences = append(sentences, s...)
				return err
			})
			if err != nil {
				return err
			}

			words := 0
			logProb := 0.0
			for _, s := range sentences {
				words += len(s)
				logProb += model.SentenceLogProb(s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sentences:  %d\n", len(sentences))
			fmt.Fprintf(out, "words:      %d\n", words)
			fmt.Fprintf(out, "logprob:    %.4f\n", logProb/math.Ln10)
			fmt.Fprintf(out, "perplexity: %.4f\n", model.Perplexity(sentences))
			return nil
		},
	}
	cmd.Flags().Float64Var(&oov, "oov-logprob", 0, "log10 probability of unknown words (0 = none)")
	return cmd
}
