package phazr

import (
	"fmt"

	"github.com/arthur-debert/phazr/pkg/config"
	"github.com/arthur-debert/phazr/pkg/dag"
	"github.com/arthur-debert/phazr/pkg/orchestrator"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/arthur-debert/phazr/pkg/validators"
	"github.com/spf13/cobra"
)

func newListPhasesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list-phases",
		Short:   MsgListPhasesShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			d := opts.display(cmd, cfg)

			if len(cfg.Phases) == 0 {
				d.Warning(MsgNoPhases)
				return nil
			}
			d.Print(d.PhasesTable(cfg.Phases))

			// The plan is informational here; validate reports graph errors.
			if g, err := dag.Build(cfg.Phases); err == nil {
				d.Print(d.Layers(g.Layers()))
			} else {
				d.Warning("%v", err)
			}
			return nil
		},
	}
}

func newListVersionsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list-versions",
		Short:   MsgListVersionsShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			d := opts.display(cmd, cfg)
			d.Print(d.Versions(cfg))
			return nil
		},
	}
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		Short:   MsgValidateShort,
		Long:    MsgValidateLong,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			d := opts.display(cmd, cfg)
			d.Print(d.Header())
			d.Info("Validating configuration...")

			var selected types.Version
			issues := config.Validate(cfg)
			if len(issues) == 0 {
				// The orchestrator adds what the file alone cannot show:
				// operation types with no registered handler.
				orch, err := orchestrator.New(orchestrator.Options{Config: cfg, Registry: opts.handlers(), Logger: opts.logger(cmd)})
				if err != nil {
					issues = append(issues, err.Error())
				} else {
					selected = orch.Version()
					for _, issue := range orch.Issues() {
						issues = append(issues, issue.Error())
					}
				}
			}
			if len(issues) > 0 {
				d.Print(d.Issues(issues))
				return fmt.Errorf(MsgErrInvalid, len(issues))
			}
			d.Success(MsgConfigValid)

			ctx, stop := signalContext(cmd)
			defer stop()

			report := validators.New(cfg.Environment, cfg.Execution, validators.Options{
				Logger:  opts.logger(cmd),
				Version: selected,
			}).Validate(ctx)
			d.Print(d.Validation(report))
			if !report.AllPassed {
				return fmt.Errorf(MsgErrPrereqs)
			}
			return nil
		},
	}
}

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "merge FILE...",
		Short:   MsgMergeShort,
		Long:    MsgMergeLong,
		Example: MsgMergeExample,
		GroupID: "misc",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.ErrOrStderr(), MsgMerging+"\n", len(args))

			cfg, err := config.Merge(args...)
			if err != nil {
				return err
			}

			if output != "" {
				if err := config.Save(cfg, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), MsgMergedSaved+"\n", output)
				return nil
			}

			data, err := config.Marshal(cfg, "yaml")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", MsgFlagOutput)
	return cmd
}
