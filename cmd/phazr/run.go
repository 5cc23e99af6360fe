package phazr

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/orchestrator"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSetupCmd(opts *globalOptions) *cobra.Command {
	var (
		versionLabel string
		maxParallel  int
	)

	cmd := &cobra.Command{
		Use:     "setup",
		Short:   MsgSetupShort,
		Long:    MsgSetupLong,
		Example: MsgSetupExample,
		GroupID: "run",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			d := opts.display(cmd, cfg)

			orch, err := orchestrator.New(orchestrator.Options{
				Config:      cfg,
				Registry:    opts.handlers(),
				Version:     versionLabel,
				MaxParallel: maxParallel,
				Logger:      opts.logger(cmd),
			})
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			l, err := lock(ctx, cfg)
			if err != nil {
				return err
			}
			defer release(l)

			d.Print(d.Header())
			if orch.DryRun() {
				d.Print(d.Layers(orch.Layers()))
			}
			d.Info("Running version %s", orch.Version().Label)

			summary, runErr := orch.Run(ctx)
			if runErr != nil && errors.IsConfigurationError(runErr) {
				return runErr
			}

			for _, p := range summary.Phases {
				if p.Status.Executed() {
					d.Print(d.PhaseResult(p))
				}
			}
			d.Print(d.RunSummary(summary))

			log.Info().
				Str("run_id", summary.RunID).
				Bool("success", summary.Success()).
				Msg("Setup finished")

			if runErr != nil {
				d.Warning(MsgInterruptedRerun)
				return runErr
			}
			if !summary.Success() {
				return fmt.Errorf(MsgErrRunFailed, strings.Join(summary.Failed(), ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&versionLabel, "version", "V", "", MsgFlagVersion)
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, MsgFlagParallel)
	return cmd
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		versionLabel string
		ignoreDeps   bool
	)

	cmd := &cobra.Command{
		Use:               "run PHASE",
		Short:             MsgRunShort,
		Long:              MsgRunLong,
		Example:           MsgRunExample,
		GroupID:           "run",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: opts.phaseNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if _, ok := cfg.Phase(name); !ok {
				return fmt.Errorf(MsgErrPhaseMissing, name, strings.Join(phaseNames(cfg), ", "))
			}
			d := opts.display(cmd, cfg)

			orch, err := orchestrator.New(orchestrator.Options{
				Config:             cfg,
				Registry:           opts.handlers(),
				Version:            versionLabel,
				IgnoreDependencies: ignoreDeps,
				Logger:             opts.logger(cmd),
			})
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			l, err := lock(ctx, cfg)
			if err != nil {
				return err
			}
			defer release(l)

			d.Info(MsgRunningPhase, name, orch.Version().Label)

			result, err := orch.RunPhase(ctx, name)
			if result == nil {
				return err
			}
			d.Print(d.PhaseResult(*result))
			if err != nil {
				return err
			}
			if !result.Success && result.Status != types.PhaseDisabled {
				return fmt.Errorf(MsgErrPhaseFailed, name, result.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&versionLabel, "version", "V", "", MsgFlagVersion)
	cmd.Flags().BoolVar(&ignoreDeps, "ignore-deps", false, MsgFlagIgnoreDeps)
	return cmd
}

// phaseNamesCompletion provides shell completion for phase names
func (o *globalOptions) phaseNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return phaseNames(cfg), cobra.ShellCompDirectiveNoFileComp
}

func phaseNames(cfg *types.Config) []string {
	names := make([]string, 0, len(cfg.Phases))
	for _, p := range cfg.Phases {
		names = append(names, p.Name)
	}
	return names
}
