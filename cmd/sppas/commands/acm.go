package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brigittebigi/sppas-sub001/acoustic"
)

func (a *app) newACMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acm",
		Short: "Manage HTK-ASCII acoustic models",
		Long: `Manage HTK-ASCII acoustic models.

A model directory holds hmmdefs and, optionally, macros, tiedlist and
monophones.repl.`,
	}
	cmd.AddCommand(
		a.newACMInfoCmd(),
		a.newACMMergeCmd(),
		a.newACMFillCmd(),
		a.newACMReplaceCmd(),
		a.newACMProtoCmd(),
		a.newACMPackCmd(),
		a.newACMUnpackCmd(),
	)
	return cmd
}

// loadModel reads a model directory and logs the optional files that
// could not be used.
func loadModel(dir string) (*acoustic.AcModel, error) {
	m := acoustic.NewAcModel()
	res, err := m.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, aux := range []acoustic.AuxResult{res.Macros, res.TiedList, res.Repl} {
		switch aux.Status {
		case acoustic.AuxCorrupt:
			log.Warn().Err(aux.Err).Str("file", aux.Path).Msg("ignoring corrupt file")
		case acoustic.AuxMissing:
			log.Debug().Str("file", aux.Path).Msg("optional file not found")
		}
	}
	log.Debug().Str("dir", dir).Int("hmms", len(m.HMMs)).Msg("model loaded")
	return m, nil
}

func (a *app) newACMInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <dir>",
		Short: "Describe a model directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			kind := m.ParameterKind()
			if kind == "" {
				kind = "-"
			}
			vecSize := 0
			if o := m.Options(); o != nil {
				vecSize = o.VecSize
			}
			fmt.Fprintf(out, "parameter kind: %s\n", kind)
			fmt.Fprintf(out, "vector size:    %d\n", vecSize)
			fmt.Fprintf(out, "macros:         %d\n", len(m.Macros))
			fmt.Fprintf(out, "hmms:           %d\n", len(m.HMMs))
			fmt.Fprintf(out, "observed:       %d\n", len(m.TiedList.Observed()))
			fmt.Fprintf(out, "tied:           %d\n", len(m.TiedList.TiedNames()))
			fmt.Fprintf(out, "replacements:   %d\n", m.Repl.Len())
			for _, name := range m.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func (a *app) newACMMergeCmd() *cobra.Command {
	var output string
	var gamma float64
	cmd := &cobra.Command{
		Use:   "merge <dir> <other-dir>",
		Short: "Merge a second model into a first one",
		Long: `Merge the HMMs of <other-dir> into the model of <dir>.

HMMs missing from <dir> are appended. Shared HMMs are interpolated:
new = gamma*self + (1-gamma)*other. Gamma defaults to acm.gamma.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("gamma") {
				gamma = a.cfg.ACM.Gamma
			}
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			other, err := loadModel(args[1])
			if err != nil {
				return err
			}
			stats, err := m.MergeModel(other, gamma)
			if err != nil {
				return err
			}
			log.Info().
				Int("appended", stats.Appended).
				Int("interpolated", stats.Interpolated).
				Int("kept", stats.Kept).
				Int("changed", stats.Changed).
				Float64("gamma", gamma).
				Msg("models merged")
			if err := m.Save(output); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output model directory (required)")
	cmd.Flags().Float64Var(&gamma, "gamma", 0.5, "weight of the first model, in [0,1]")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) newACMFillCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fill <dir>",
		Short: "Inline the state and transition macros into the HMMs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			if err := m.FillHMMs(); err != nil {
				return err
			}
			log.Info().Int("hmms", len(m.HMMs)).Msg("macros filled")
			return m.Save(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output model directory (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) newACMReplaceCmd() *cobra.Command {
	var output string
	var reverse bool
	cmd := &cobra.Command{
		Use:   "replace <dir>",
		Short: "Rename phones with monophones.repl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			if m.Repl.IsEmpty() {
				log.Warn().Str("dir", args[0]).Msg("no phone replacement table, names unchanged")
			}
			for _, name := range m.ReplacePhones(reverse) {
				log.Warn().Str("entry", name).Msg("tied-list entry collides after replacement, dropped")
			}
			return m.Save(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output model directory (required)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "map replacement values back to keys")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) newACMProtoCmd() *cobra.Command {
	var output, name string
	var vecSize int
	var sp bool
	cmd := &cobra.Command{
		Use:   "proto",
		Short: "Write a prototype HMM",
		Long: `Write a 5-state left-to-right prototype HMM with zero means and unit
variances, or the 3-state short-pause model with --sp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("vecsize") {
				vecSize = a.cfg.ACM.VecSize
			}
			if vecSize < 1 {
				return fmt.Errorf("--vecsize must be positive, got %d", vecSize)
			}
			var h *acoustic.HMM
			if sp {
				h = acoustic.NewSPHMM(vecSize)
			} else {
				h = acoustic.NewProtoHMM(name, vecSize)
			}
			m := acoustic.NewAcModel()
			if err := m.AppendHMM(h); err != nil {
				return err
			}
			return m.SaveHTK(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output HTK file (required)")
	cmd.Flags().StringVar(&name, "name", "proto", "HMM name")
	cmd.Flags().IntVar(&vecSize, "vecsize", 25, "observation vector size")
	cmd.Flags().BoolVar(&sp, "sp", false, "write the short-pause model")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) newACMPackCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pack <dir>",
		Short: "Store a model directory as a single binary snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := m.Encode(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output snapshot file (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) newACMUnpackCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "unpack <file>",
		Short: "Restore a model directory from a binary snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			m, err := acoustic.Decode(f)
			if err != nil {
				return err
			}
			return m.Save(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output model directory (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
