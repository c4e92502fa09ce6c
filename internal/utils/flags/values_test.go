package flags_test

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/internal/utils"
	"github.com/tyemirov/chores/internal/utils/flags"
)

func newCommandWithExecutionFlags() (*cobra.Command, *cobra.Command) {
	rootCommand := &cobra.Command{Use: "chores"}
	flags.BindExecutionFlags(rootCommand, flags.ExecutionDefaults{}, flags.DefaultExecutionFlagDefinitions())
	childCommand := &cobra.Command{Use: "run", RunE: func(*cobra.Command, []string) error { return nil }}
	rootCommand.AddCommand(childCommand)
	return rootCommand, childCommand
}

func TestCollectExecutionFlagsReadsInheritedValues(t *testing.T) {
	rootCommand, childCommand := newCommandWithExecutionFlags()
	require.NoError(t, rootCommand.PersistentFlags().Set(flags.KeepGoingFlagName, "true"))
	require.NoError(t, rootCommand.PersistentFlags().Set(flags.MetricsFileFlagName, " metrics.prom "))

	executionFlags := flags.CollectExecutionFlags(childCommand)
	require.True(t, executionFlags.KeepGoing)
	require.True(t, executionFlags.KeepGoingSet)
	require.False(t, executionFlags.DryRun)
	require.False(t, executionFlags.DryRunSet)
	require.Equal(t, "metrics.prom", executionFlags.MetricsFile)
	require.True(t, executionFlags.MetricsFileSet)
}

func TestBoolFlagReportsUndefinedFlag(t *testing.T) {
	command := &cobra.Command{Use: "bare"}

	_, _, lookupError := flags.BoolFlag(command, flags.DryRunFlagName)
	require.ErrorIs(t, lookupError, flags.ErrFlagNotDefined)
}

func TestResolveExecutionFlagsPrefersContext(t *testing.T) {
	_, childCommand := newCommandWithExecutionFlags()
	stored := utils.ExecutionFlags{DryRun: true, DryRunSet: true}
	childCommand.SetContext(utils.NewCommandContextAccessor().WithExecutionFlags(context.Background(), stored))

	resolved, available := flags.ResolveExecutionFlags(childCommand)
	require.True(t, available)
	require.True(t, resolved.DryRun)
}

func TestResolveExecutionFlagsWithoutOverrides(t *testing.T) {
	_, childCommand := newCommandWithExecutionFlags()

	_, available := flags.ResolveExecutionFlags(childCommand)
	require.False(t, available)
}
