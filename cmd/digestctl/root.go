package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"daily-digest/internal/app"
	"daily-digest/internal/config"
	"daily-digest/internal/observability/logging"
)

// session holds the components built for one command invocation.
type session struct {
	logger     *slog.Logger
	components *app.Components
}

func newRootCmd() *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:          "digestctl",
		Short:        "Fetch daily digests and manage their upstream sources",
		SilenceUsage: true,
		Long: `digestctl uses the same catalog, status store and fetch settings as the API
server, read from the same environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			s.logger = newLogger(cmd.ErrOrStderr(), debug)
			slog.SetDefault(s.logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if s.components != nil {
				s.components.Close()
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML file (overrides CATALOG_FILE)")

	rootCmd.AddCommand(
		newFetchCmd(s),
		newTypesCmd(s),
		newSourcesCmd(s),
		newActionCmd(s, actionEnable),
		newActionCmd(s, actionDisable),
		newActionCmd(s, actionReset),
		newParsersCmd(s),
	)
	return rootCmd
}

// newLogger logs to w so command output on stdout stays machine readable.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewTextLogger(w, level)
}

// build wires the components on first use.
func (s *session) build(cmd *cobra.Command) (*app.Components, error) {
	if s.components != nil {
		return s.components, nil
	}
	cfg, err := config.LoadAppConfig(s.logger, nil)
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.CatalogFile = path
	}
	c, err := app.Build(cmd.Context(), cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.components = c
	return c, nil
}
