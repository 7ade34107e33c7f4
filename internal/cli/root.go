package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optstrat/internal/config"
	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/logging"
	"optstrat/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Store     store.DataStore

	table *contracts.Table
}

// newRootCmd creates the root command for the CLI.
// Configuration, logging and the store are set up before any subcommand runs.
func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optstrat",
		Short: "Option strategy payoff calculator",
		Long: `optstrat values multi-leg option strategies at expiry.

Legs are given explicitly or resolved from contract reference data
(CSV or JSON, optionally imported into a local SQLite store). Positions
on the same contract are merged, and the combined payoff is evaluated
over a range of underlying prices.

Use 'optstrat payoff --help' to get started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optstrat)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newContractsCmd(app))
	rootCmd.AddCommand(newStrategyCmd(app))

	return rootCmd
}

// setup loads configuration, builds the logger and opens the store.
func (a *App) setup(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		dir = config.DefaultConfigDir()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.Config = cfg
	a.ConfigDir = dir

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		cfg.Log.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(cfg.Log).With().Str("cmd", cmd.Name()).Logger()
	if debug {
		logging.SetDebugLevel()
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	cmd.SetContext(logging.WithLogger(contextOf(cmd), a.Logger))

	if cfg.Store.Enabled {
		dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", cfg.Store.Path).Msg("Failed to initialize store, some features may be unavailable")
		} else {
			a.Store = dataStore
			a.Logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
		}
	}
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// requireStore returns the store or an error naming the command that needs it.
func (a *App) requireStore(what string) (store.DataStore, error) {
	if a.Store == nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "%s needs the store; check [store] in %s", what, config.TemplatePath(a.ConfigDir))
	}
	return a.Store, nil
}

// contractSource prefers imported contracts and falls back to the reference file.
func (a *App) contractSource(ctx context.Context) (contracts.Source, error) {
	if a.Store != nil {
		n, err := a.Store.CountContracts(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Counting stored contracts failed")
		} else if n > 0 {
			a.Logger.Debug().Int("count", n).Msg("Using stored contracts")
			return a.Store, nil
		}
	}

	if a.table == nil {
		table, err := contracts.Load(a.Config.Contracts.Path)
		if err != nil {
			return nil, fmt.Errorf("loading contract reference data: %w", err)
		}
		a.Logger.Debug().Str("path", a.Config.Contracts.Path).Int("count", table.Len()).Msg("Loaded reference file")
		a.table = table
	}
	return a.table, nil
}

// output builds an Output honoring the UI settings.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil {
		out.colorEnabled = out.colorEnabled && a.Config.UI.ColorEnabled
		out.currency = a.Config.UI.Currency
	}
	return out
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("optstrat v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			path := config.TemplatePath(app.ConfigDir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, app *App) error {
	cfg := app.Config
	output.Bold("Reference Data")
	output.Printf("  Contracts file:  %s\n", cfg.Contracts.Path)
	output.Printf("  Store enabled:   %v\n", cfg.Store.Enabled)
	output.Printf("  Store path:      %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Payoff")
	output.Printf("  Step:            %s\n", FormatPrice(cfg.Payoff.Step))
	output.Printf("  Padding:         %.0f%%\n", cfg.Payoff.Padding*100)
	output.Printf("  Multiplier:      %s\n", FormatPrice(cfg.Payoff.Multiplier))
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  Console:         %v\n", cfg.Log.Console)
	if cfg.Log.File {
		output.Printf("  File:            %s\n", cfg.Log.FilePath)
	}
	return nil
}

// Execute runs the root command with args, writing to out.
func Execute(logger zerolog.Logger, args []string, out io.Writer) error {
	return execute(&App{Logger: logger}, args, out)
}

// execute closes the store whether or not the command fails.
func execute(app *App, args []string, out io.Writer) error {
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warn().Err(err).Msg("Closing store failed")
		}
	}()

	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.Execute()
}
