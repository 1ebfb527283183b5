package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brigittebigi/sppas-sub001/rhythm"
)

func (a *app) newTGACmd() *cobra.Command {
	var syllables bool
	cmd := &cobra.Command{
		Use:   "tga [file]",
		Short: "Time-group analysis of syllable durations",
		Long: `Print the statistics of each time group.

By default the input has one "group duration" line per syllable. With
--syllables it has "begin end label" lines: the groups are delimited by
the silence labels of tga.silences. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var analysis *rhythm.Analysis
			if syllables {
				intervals, err := rhythm.ReadIntervals(in)
				if err != nil {
					return fmt.Errorf("read syllables: %w", err)
				}
				groups := rhythm.Segment(intervals, a.cfg.TGA.Silences, rhythm.WithPrefix(a.cfg.TGA.Prefix))
				if analysis, err = rhythm.NewAnalysis(groups); err != nil {
					return err
				}
			} else {
				var err error
				if analysis, err = rhythm.ReadDurations(in); err != nil {
					return fmt.Errorf("read durations: %w", err)
				}
			}

			report := analysis.Report()
			log.Debug().Int("groups", len(report)).Msg("time groups analysed")
			return rhythm.WriteReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&syllables, "syllables", false, "input is a syllable tier to segment")
	return cmd
}
