// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the dry-run flag purpose.
	DryRunFlagUsage = "Print the steps of the task without running them"
	// KeepGoingFlagName exposes the shared keep-going flag name.
	KeepGoingFlagName = "keep-going"
	// KeepGoingFlagShorthand provides the shorthand for the keep-going flag.
	KeepGoingFlagShorthand = "k"
	// KeepGoingFlagUsage describes the keep-going flag purpose.
	KeepGoingFlagUsage = "Run every step even after one fails; the first failure still decides the exit status"
	// MetricsFileFlagName exposes the shared metrics-file flag name.
	MetricsFileFlagName = "metrics-file"
	// MetricsFileFlagUsage describes the metrics-file flag purpose.
	MetricsFileFlagUsage = "Write Prometheus metrics for the run to this file (textfile collector format)"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun      bool
	KeepGoing   bool
	MetricsFile string
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun      ExecutionFlagDefinition
	KeepGoing   ExecutionFlagDefinition
	MetricsFile ExecutionFlagDefinition
}

// DefaultExecutionFlagDefinitions enables every execution flag with its standard name and usage.
func DefaultExecutionFlagDefinitions() ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		DryRun:      ExecutionFlagDefinition{Name: DryRunFlagName, Usage: DryRunFlagUsage, Enabled: true},
		KeepGoing:   ExecutionFlagDefinition{Name: KeepGoingFlagName, Usage: KeepGoingFlagUsage, Shorthand: KeepGoingFlagShorthand, Enabled: true},
		MetricsFile: ExecutionFlagDefinition{Name: MetricsFileFlagName, Usage: MetricsFileFlagUsage, Enabled: true},
	}
}

// BindExecutionFlags attaches standardized execution flags to the provided command using persistent scope.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) {
	if command == nil {
		return
	}

	persistentFlagSet := command.PersistentFlags()

	bindToggleFlag(persistentFlagSet, definitions.DryRun, defaults.DryRun)
	bindToggleFlag(persistentFlagSet, definitions.KeepGoing, defaults.KeepGoing)
	bindStringFlag(persistentFlagSet, definitions.MetricsFile, defaults.MetricsFile)
}

func bindToggleFlag(flagSet *pflag.FlagSet, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil || !definition.Enabled || len(definition.Name) == 0 {
		return
	}
	if flagSet.Lookup(definition.Name) != nil {
		return
	}
	flagSet.BoolP(definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}

func bindStringFlag(flagSet *pflag.FlagSet, definition ExecutionFlagDefinition, defaultValue string) {
	if flagSet == nil || !definition.Enabled || len(definition.Name) == 0 {
		return
	}
	if flagSet.Lookup(definition.Name) != nil {
		return
	}
	flagSet.StringP(definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}
