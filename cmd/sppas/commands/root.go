package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brigittebigi/sppas-sub001/internal/config"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sppas",
		Short: "Acoustic model, language model and rhythm tools",
		Long: `sppas - command line tools for speech annotation resources.

  acm   read, merge, fill and rewrite HTK-ASCII acoustic models
  lm    count n-grams, estimate ARPA models and compute perplexity
  tga   time-group analysis of syllable durations

Examples:
  sppas acm merge fra-model spk-model -o merged --gamma 0.7
  sppas lm build corpus.txt --order 3 -o model.arpa
  sppas tga --syllables syllables.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.sppas/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(a.newACMCmd(), a.newLMCmd(), a.newTGACmd())
	return root
}

func (a *app) setup(logOut io.Writer) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
	}
	if err := setupLogger(cfg.Logging.Level, logOut); err != nil {
		return err
	}
	a.cfg = cfg
	log.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}

func setupLogger(level string, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
	return nil
}
