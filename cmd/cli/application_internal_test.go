package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/internal/execshell"
)

type recordingCommandRunner struct {
	commands  []execshell.CommandSpec
	exitCodes map[string]int
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.CommandSpec) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command.Clone())
	return execshell.ExecutionResult{ExitCode: runner.exitCodes[command.String()]}, nil
}

func newInternalTestApplication(t *testing.T, runner execshell.CommandRunner, arguments ...string) (*Application, *bytes.Buffer) {
	t.Helper()
	t.Setenv(configurationSearchPathEnvironmentVariableConstant, t.TempDir())
	output := &bytes.Buffer{}
	application := NewApplication()
	application.commandRunner = runner
	application.SetArguments(arguments)
	application.SetStreams(output, &bytes.Buffer{}, nil)
	return application, output
}

func TestEmbeddedLintTaskRunsToolsInOrder(t *testing.T) {
	runner := &recordingCommandRunner{}
	application, output := newInternalTestApplication(t, runner, "lint")

	require.NoError(t, application.Execute())
	require.Len(t, runner.commands, 5)

	executedCommands := make([]string, 0, len(runner.commands))
	for _, command := range runner.commands {
		executedCommands = append(executedCommands, command.String())
	}
	require.Equal(t, []string{
		"npx cspell .* * **/*",
		"npx remark -r .remarkrc .",
		"pylint --rcfile .pylintrc --fail-under=8 src tests",
		"bandit -c .bandit -r src",
		"mypy .",
	}, executedCommands)
	require.Contains(t, output.String(), "[lint 5/5] mypy: mypy .\n")
}

func TestEmbeddedFormatTaskStopsAtFailingFormatter(t *testing.T) {
	runner := &recordingCommandRunner{exitCodes: map[string]int{"black .": 3}}
	application, _ := newInternalTestApplication(t, runner, "format")

	executionError := application.Execute()
	require.Error(t, executionError)
	require.Len(t, runner.commands, 2)

	var exitCoder interface{ ExitCode() int }
	require.ErrorAs(t, executionError, &exitCoder)
	require.Equal(t, 3, exitCoder.ExitCode())
}

func TestEmbeddedConfigurationDeclaresTasks(t *testing.T) {
	content, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(t, "yaml", configurationType)
	for _, taskName := range []string{"name: lint", "name: format", "name: test"} {
		require.True(t, strings.Contains(string(content), taskName), taskName)
	}
}

func TestResolveConfigurationSearchPathsHonorsOverride(t *testing.T) {
	firstDirectory := t.TempDir()
	secondDirectory := t.TempDir()
	t.Setenv(configurationSearchPathEnvironmentVariableConstant, firstDirectory+string(os.PathListSeparator)+" "+string(os.PathListSeparator)+secondDirectory)

	application := &Application{}
	require.Equal(t, []string{firstDirectory, secondDirectory}, application.resolveConfigurationSearchPaths())
}

func TestResolveConfigurationSearchPathsIncludesUserDirectories(t *testing.T) {
	homeDirectory := t.TempDir()
	xdgDirectory := filepath.Join(t.TempDir(), "xdg")
	t.Setenv(configurationSearchPathEnvironmentVariableConstant, "")
	t.Setenv("HOME", homeDirectory)
	t.Setenv("XDG_CONFIG_HOME", xdgDirectory)

	application := &Application{}
	searchPaths := application.resolveConfigurationSearchPaths()
	require.Equal(t, defaultConfigurationSearchPathConstant, searchPaths[0])
	require.Contains(t, searchPaths, filepath.Join(xdgDirectory, "chores"))
	require.Contains(t, searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant))
}

func TestConfigurationFailurePolicyAppliesWithoutFlag(t *testing.T) {
	configurationPath := filepath.Join(t.TempDir(), configurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte("common:\n  failure_policy: continue\n"), 0o600))

	runner := &recordingCommandRunner{exitCodes: map[string]int{"prettier . --ignore-path ../.gitignore --write": 1}}
	application, _ := newInternalTestApplication(t, runner, "--config", configurationPath, "format")

	require.Error(t, application.Execute())
	require.Len(t, runner.commands, 4)

	runner.commands = nil
	haltingApplication, _ := newInternalTestApplication(t, runner, "--config", configurationPath, "--keep-going=false", "format")
	require.Error(t, haltingApplication.Execute())
	require.Len(t, runner.commands, 1)
}
