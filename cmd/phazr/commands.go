package phazr

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/phazr/internal/version"
	"github.com/arthur-debert/phazr/pkg/config"
	"github.com/arthur-debert/phazr/pkg/display"
	"github.com/arthur-debert/phazr/pkg/handlers"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/runlock"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dryRun     bool
	verbosity  int

	// registry lets tests swap in their own handlers.
	registry *handlers.Registry

	// loadedFrom is the configuration file loadConfig resolved.
	loadedFrom string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	rootCmd := &cobra.Command{
		Use:   "phazr",
		Short: MsgRootShort,
		Long:  MsgRootLong,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultFile, MsgFlagConfig)
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)

	rootCmd.AddGroup(&cobra.Group{ID: "run", Title: "RUN:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "INSPECT:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newSetupCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newListPhasesCmd(opts))
	rootCmd.AddCommand(newListVersionsCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newMergeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig finds and loads the configuration named by --config and
// applies the command-line overrides.
func (o *globalOptions) loadConfig() (*types.Config, error) {
	path, err := config.Find(o.configPath)
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	log.Info().Str("path", path).Msg("Loading configuration")
	o.loadedFrom = path

	overrides := make(map[string]interface{})
	if o.dryRun {
		overrides["execution.dry_run"] = true
	}
	if o.verbosity > 0 {
		overrides["execution.verbose"] = true
	}
	cfg, err := config.LoadWithOverrides(path, overrides)
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// logger tags engine logs with the command and the configuration file.
func (o *globalOptions) logger(cmd *cobra.Command) *zerolog.Logger {
	l := logging.WithFields(map[string]interface{}{
		"command": cmd.Name(),
		"config":  o.loadedFrom,
	})
	return &l
}

func (o *globalOptions) handlers() *handlers.Registry {
	if o.registry != nil {
		return o.registry
	}
	return handlers.NewDefaultRegistry()
}

func (o *globalOptions) display(cmd *cobra.Command, cfg *types.Config) *display.Display {
	return display.New(cmd.OutOrStdout(), cfg.Execution.Verbose)
}

// signalContext cancels on SIGINT or SIGTERM so in-flight operations are
// interrupted and a partial summary can still be printed.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// lock takes the run lock when execution.lock_file is set. Dry runs never
// lock.
func lock(ctx context.Context, cfg *types.Config) (*runlock.Lock, error) {
	if cfg.Execution.LockFile == "" || cfg.Execution.DryRun {
		return nil, nil
	}
	l, err := runlock.Acquire(ctx, cfg.Execution.LockFile, 0)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", l.Path()).Msg("Run lock acquired")
	return l, nil
}

func release(l *runlock.Lock) {
	if err := l.Release(); err != nil {
		log.Warn().Err(err).Msg("Failed to release run lock")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}
