package phazr

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort         = "DAG-based workflow orchestration"
	MsgSetupShort        = "Run the full workflow"
	MsgRunShort          = "Run a single phase"
	MsgListPhasesShort   = "List configured phases"
	MsgListVersionsShort = "List available versions"
	MsgValidateShort     = "Validate configuration and prerequisites"
	MsgMergeShort        = "Merge configuration files"
	MsgVersionShort      = "Print version information"

	// Status messages
	MsgLoadingConfig    = "Loading configuration from %s"
	MsgConfigValid      = "Configuration is valid"
	MsgRunningPhase     = "Running phase %s for version %s"
	MsgNoPhases         = "No phases configured"
	MsgMerging          = "Merging %d configuration files..."
	MsgMergedSaved      = "Merged configuration saved to %s"
	MsgVersionFormat    = "phazr version %s\n  commit: %s\n  built:  %s\n"
	MsgInterruptedRerun = "Run interrupted; re-run to finish the remaining phases"

	// Error messages
	MsgErrLoadConfig   = "failed to load configuration: %w"
	MsgErrPhaseMissing = "phase %q not found; available phases: %s"
	MsgErrRunFailed    = "run failed: %s"
	MsgErrPhaseFailed  = "phase %s finished with status %s"
	MsgErrInvalid      = "configuration has %d issue(s)"
	MsgErrPrereqs      = "prerequisite validation failed"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun     = "Preview operations without executing them"
	MsgFlagConfig     = "Configuration file path"
	MsgFlagVersion    = "Version label to use (default: execution.default_version or the first label)"
	MsgFlagIgnoreDeps = "Run the phase even if its dependencies have not completed"
	MsgFlagOutput     = "Output file path (format by extension)"
	MsgFlagParallel   = "Maximum phases running at once (0 means unbounded)"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/setup-long.txt
	msgSetupLongRaw string
	MsgSetupLong    = strings.TrimSpace(msgSetupLongRaw)

	//go:embed msgs/setup-example.txt
	msgSetupExampleRaw string
	MsgSetupExample    = strings.TrimRight(msgSetupExampleRaw, "\n")

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/validate-long.txt
	msgValidateLongRaw string
	MsgValidateLong    = strings.TrimSpace(msgValidateLongRaw)

	//go:embed msgs/merge-long.txt
	msgMergeLongRaw string
	MsgMergeLong    = strings.TrimSpace(msgMergeLongRaw)

	//go:embed msgs/merge-example.txt
	msgMergeExampleRaw string
	MsgMergeExample    = strings.TrimRight(msgMergeExampleRaw, "\n")

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
