package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tyemirov/chores/internal/tasks"
	"github.com/tyemirov/chores/pkg/taskrunner"
)

const (
	runCommandUseNameConstant                                        = "run <task>"
	runCommandShortDescriptionConstant                               = "Run a named task"
	runCommandLongDescriptionConstant                                = "run executes every step of the named task in order and stops at the first failing step. The exit status is the failing step's status, or 1 when the step could not be started."
	listCommandUseNameConstant                                       = "list"
	listCommandAliasConstant                                         = "ls"
	listCommandShortDescriptionConstant                              = "List registered tasks"
	listCommandLongDescriptionConstant                               = "list prints every task with its description and steps, sorted by name."
	listOutputFlagNameConstant                                       = "output"
	listOutputFlagShorthandConstant                                  = "o"
	listOutputFlagUsageConstant                                      = "Output format (text or yaml)."
	listOutputTextConstant                                           = "text"
	listOutputYAMLConstant                                           = "yaml"
	listUnsupportedOutputTemplateConstant                            = "unsupported list output %q (expected %s or %s)"
	listTaskLineTemplateConstant                                     = "%s\t%s\t%s\n"
	listStepSeparatorConstant                                        = " -> "
	initCommandUseNameConstant                                       = "init"
	initCommandShortDescriptionConstant                              = "Write the default configuration file"
	initCommandLongDescriptionConstant                               = "init writes the embedded default configuration to ./config.yaml (scope local) or $HOME/.chores/config.yaml (scope user)."
	initScopeFlagNameConstant                                        = "scope"
	initScopeFlagUsageConstant                                       = "Where to write the configuration (local or user)."
	versionCommandUseNameConstant                                    = "version"
	versionCommandShortDescriptionConstant                           = "Print the chores version"
	versionCommandLongDescriptionConstant                            = "version prints the current chores release identifier."
	configurationInitializationDefaultScopeConstant                  = "local"
	configurationInitializationForceFlagNameConstant                 = "force"
	configurationInitializationForceFlagUsageConstant                = "Overwrite an existing configuration file when initializing."
	configurationInitializationScopeLocalConstant                    = "local"
	configurationInitializationScopeUserConstant                     = "user"
	configurationInitializationUnsupportedScopeTemplateConstant      = "unsupported initialization scope %q"
	configurationInitializationWorkingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	configurationInitializationWorkingDirectoryEmptyErrorConstant    = "working directory is empty"
	configurationInitializationHomeDirectoryErrorTemplateConstant    = "unable to determine user home directory: %w"
	configurationInitializationHomeDirectoryEmptyErrorConstant       = "user home directory is empty"
	configurationInitializationContentUnavailableErrorConstant       = "embedded configuration content is unavailable"
	configurationInitializationDirectoryErrorTemplateConstant        = "unable to ensure configuration directory %s: %w"
	configurationInitializationExistingFileTemplateConstant          = "configuration file already exists at %s (use --force to overwrite)"
	configurationInitializationExistingDirectoryTemplateConstant     = "configuration path %s is a directory"
	configurationInitializationDirectoryConflictTemplateConstant     = "configuration directory path %s is not a directory"
	configurationInitializationWriteErrorTemplateConstant            = "unable to write configuration file %s: %w"
	configurationInitializationSuccessMessageConstant                = "configuration file created"
	configurationInitializationOutputTemplateConstant                = "wrote %s\n"
	configurationDirectoryPermissionConstant                         = 0o755
	configurationFilePermissionConstant                              = 0o600
	metricsWriteErrorTemplateConstant                                = "unable to write metrics file %s: %w"
	metricsWriteFailedMessageConstant                                = "metrics write failed"
	metricsWrittenMessageConstant                                    = "metrics written"
	metricsFileFieldConstant                                         = "metrics_file"
)

type configurationInitializationPlan struct {
	DirectoryPath string
	FilePath      string
}

func (application *Application) registerCommands(cobraCommand *cobra.Command) {
	runCommand := &cobra.Command{
		Use:           runCommandUseNameConstant,
		Short:         runCommandShortDescriptionConstant,
		Long:          runCommandLongDescriptionConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runTask(command, arguments[0])
		},
	}
	cobraCommand.AddCommand(runCommand)

	listCommand := &cobra.Command{
		Use:           listCommandUseNameConstant,
		Aliases:       []string{listCommandAliasConstant},
		Short:         listCommandShortDescriptionConstant,
		Long:          listCommandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.listTasks(command)
		},
	}
	listCommand.Flags().StringVarP(&application.listOutputFormat, listOutputFlagNameConstant, listOutputFlagShorthandConstant, listOutputTextConstant, listOutputFlagUsageConstant)
	cobraCommand.AddCommand(listCommand)

	initCommand := &cobra.Command{
		Use:           initCommandUseNameConstant,
		Short:         initCommandShortDescriptionConstant,
		Long:          initCommandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.handleConfigurationInitialization(command)
		},
	}
	initCommand.Flags().StringVar(&application.initializationScope, initScopeFlagNameConstant, configurationInitializationDefaultScopeConstant, initScopeFlagUsageConstant)
	initCommand.Flags().BoolVar(&application.initializationForced, configurationInitializationForceFlagNameConstant, false, configurationInitializationForceFlagUsageConstant)
	cobraCommand.AddCommand(initCommand)

	versionCommand := &cobra.Command{
		Use:           versionCommandUseNameConstant,
		Short:         versionCommandShortDescriptionConstant,
		Long:          versionCommandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	}
	cobraCommand.AddCommand(versionCommand)
}

// runTask runs the named task and converts a failed result into the error
// returned to main. Step failures surface as *tasks.StepFailureError so the
// exit status can follow the failing step.
func (application *Application) runTask(command *cobra.Command, taskName string) error {
	registry, registryError := application.taskRegistry()
	if registryError != nil {
		return registryError
	}

	executionFlags, _ := application.commandContextAccessor.ExecutionFlags(command.Context())
	failurePolicy, policyError := tasks.ParseFailurePolicy(application.configuration.Common.FailurePolicy)
	if policyError != nil {
		return tasks.ConfigurationError{Cause: policyError}
	}
	if executionFlags.KeepGoingSet {
		failurePolicy = tasks.FailurePolicyHalt
		if executionFlags.KeepGoing {
			failurePolicy = tasks.FailurePolicyContinue
		}
	}

	var metrics *tasks.Metrics
	var recorder tasks.Recorder
	if len(executionFlags.MetricsFile) > 0 {
		metrics = tasks.NewMetrics()
		recorder = metrics
	}

	taskLogger := application.taskLogger(command.Context())
	dependencies, dependenciesError := taskrunner.BuildDependencies(
		taskrunner.DependenciesConfig{
			LoggerProvider: func() *zap.Logger { return taskLogger },
			Registry:       registry,
			CommandRunner:  application.commandRunner,
			Recorder:       recorder,
		},
		taskrunner.DependenciesOptions{
			Command:       command,
			FailurePolicy: failurePolicy,
			DryRun:        executionFlags.DryRun,
		},
	)
	if dependenciesError != nil {
		return dependenciesError
	}

	result, runError := taskrunner.Resolve(nil, dependencies).RunTask(command.Context(), taskName)

	if metrics != nil && len(result.RunID) > 0 {
		if writeError := metrics.WriteTextfile(executionFlags.MetricsFile); writeError != nil {
			application.logger.Warn(metricsWriteFailedMessageConstant, zap.String(metricsFileFieldConstant, executionFlags.MetricsFile), zap.Error(writeError))
			if runError == nil && result.Succeeded {
				return fmt.Errorf(metricsWriteErrorTemplateConstant, executionFlags.MetricsFile, writeError)
			}
		} else {
			application.logger.Debug(metricsWrittenMessageConstant, zap.String(metricsFileFieldConstant, executionFlags.MetricsFile))
		}
	}

	if runError != nil {
		return runError
	}
	return result.Err()
}

// taskLogger tags task logs with the configuration file and log level the
// invocation resolved.
func (application *Application) taskLogger(executionContext context.Context) *zap.Logger {
	logger := application.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if configurationFilePath, available := application.commandContextAccessor.ConfigurationFilePath(executionContext); available && len(configurationFilePath) > 0 {
		logger = logger.With(zap.String(configurationFileFieldConstant, configurationFilePath))
	}
	if logLevel, available := application.commandContextAccessor.LogLevel(executionContext); available {
		logger = logger.With(zap.String(configurationLogLevelFieldConstant, logLevel))
	}
	return logger
}

func (application *Application) listTasks(command *cobra.Command) error {
	registry, registryError := application.taskRegistry()
	if registryError != nil {
		return registryError
	}

	outputFormat := strings.ToLower(strings.TrimSpace(application.listOutputFormat))
	switch outputFormat {
	case "", listOutputTextConstant:
		return writeTaskTable(command.OutOrStdout(), registry.Tasks())
	case listOutputYAMLConstant:
		return writeTaskYAML(command.OutOrStdout(), registry.Tasks())
	default:
		return fmt.Errorf(listUnsupportedOutputTemplateConstant, application.listOutputFormat, listOutputTextConstant, listOutputYAMLConstant)
	}
}

func writeTaskTable(writer io.Writer, registeredTasks []tasks.Task) error {
	tableWriter := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	for _, task := range registeredTasks {
		stepNames := make([]string, 0, len(task.Steps))
		for _, step := range task.Steps {
			stepNames = append(stepNames, step.Name)
		}
		if _, writeError := fmt.Fprintf(tableWriter, listTaskLineTemplateConstant, task.Name, task.Description, strings.Join(stepNames, listStepSeparatorConstant)); writeError != nil {
			return writeError
		}
	}
	return tableWriter.Flush()
}

type listedStep struct {
	Name      string   `yaml:"name"`
	Command   string   `yaml:"command"`
	Arguments []string `yaml:"arguments,omitempty"`
}

type listedTask struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Steps       []listedStep `yaml:"steps"`
}

func writeTaskYAML(writer io.Writer, registeredTasks []tasks.Task) error {
	listedTasks := make([]listedTask, 0, len(registeredTasks))
	for _, task := range registeredTasks {
		entry := listedTask{Name: task.Name, Description: task.Description}
		for _, step := range task.Steps {
			entry.Steps = append(entry.Steps, listedStep{
				Name:      step.Name,
				Command:   step.Command.Executable,
				Arguments: step.Command.Arguments,
			})
		}
		listedTasks = append(listedTasks, entry)
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(map[string][]listedTask{"tasks": listedTasks}); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

func (application *Application) handleConfigurationInitialization(command *cobra.Command) error {
	initializationScope := strings.TrimSpace(application.initializationScope)
	if len(initializationScope) == 0 {
		initializationScope = configurationInitializationDefaultScopeConstant
	}

	initializationPlan, planError := application.resolveConfigurationInitializationPlan(initializationScope)
	if planError != nil {
		return planError
	}

	configurationContent, _ := EmbeddedDefaultConfiguration()
	if len(configurationContent) == 0 {
		return errors.New(configurationInitializationContentUnavailableErrorConstant)
	}

	if writeError := application.writeConfigurationFile(initializationPlan, configurationContent); writeError != nil {
		return writeError
	}

	application.logger.Info(
		configurationInitializationSuccessMessageConstant,
		zap.String(configurationFileFieldConstant, initializationPlan.FilePath),
	)
	fmt.Fprintf(command.OutOrStdout(), configurationInitializationOutputTemplateConstant, initializationPlan.FilePath)

	return nil
}

func (application *Application) resolveConfigurationInitializationPlan(initializationScope string) (configurationInitializationPlan, error) {
	normalizedScope := strings.ToLower(strings.TrimSpace(initializationScope))
	switch normalizedScope {
	case "", configurationInitializationScopeLocalConstant:
		workingDirectoryPath, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationWorkingDirectoryErrorTemplateConstant, workingDirectoryError)
		}

		trimmedWorkingDirectoryPath := strings.TrimSpace(workingDirectoryPath)
		if len(trimmedWorkingDirectoryPath) == 0 {
			return configurationInitializationPlan{}, fmt.Errorf(
				configurationInitializationWorkingDirectoryErrorTemplateConstant,
				errors.New(configurationInitializationWorkingDirectoryEmptyErrorConstant),
			)
		}

		return configurationInitializationPlan{
			DirectoryPath: trimmedWorkingDirectoryPath,
			FilePath:      filepath.Join(trimmedWorkingDirectoryPath, configurationFileNameConstant),
		}, nil
	case configurationInitializationScopeUserConstant:
		userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir()
		if userHomeDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationHomeDirectoryErrorTemplateConstant, userHomeDirectoryError)
		}

		trimmedHomeDirectoryPath := strings.TrimSpace(userHomeDirectoryPath)
		if len(trimmedHomeDirectoryPath) == 0 {
			return configurationInitializationPlan{}, fmt.Errorf(
				configurationInitializationHomeDirectoryErrorTemplateConstant,
				errors.New(configurationInitializationHomeDirectoryEmptyErrorConstant),
			)
		}

		configurationDirectoryPath := filepath.Join(trimmedHomeDirectoryPath, userConfigurationDirectoryNameConstant)

		return configurationInitializationPlan{
			DirectoryPath: configurationDirectoryPath,
			FilePath:      filepath.Join(configurationDirectoryPath, configurationFileNameConstant),
		}, nil
	default:
		return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationUnsupportedScopeTemplateConstant, strings.TrimSpace(initializationScope))
	}
}

func (application *Application) writeConfigurationFile(initializationPlan configurationInitializationPlan, configurationContent []byte) error {
	if len(configurationContent) == 0 {
		return errors.New(configurationInitializationContentUnavailableErrorConstant)
	}

	directoryPath := strings.TrimSpace(initializationPlan.DirectoryPath)
	if len(directoryPath) == 0 {
		return fmt.Errorf(
			configurationInitializationDirectoryErrorTemplateConstant,
			initializationPlan.DirectoryPath,
			errors.New(configurationInitializationWorkingDirectoryEmptyErrorConstant),
		)
	}

	directoryInfo, directoryStatError := os.Stat(directoryPath)
	switch {
	case directoryStatError == nil:
		if !directoryInfo.IsDir() {
			return fmt.Errorf(configurationInitializationDirectoryConflictTemplateConstant, directoryPath)
		}
	case errors.Is(directoryStatError, os.ErrNotExist):
		if createError := os.MkdirAll(directoryPath, configurationDirectoryPermissionConstant); createError != nil {
			return fmt.Errorf(configurationInitializationDirectoryErrorTemplateConstant, directoryPath, createError)
		}
	default:
		return fmt.Errorf(configurationInitializationDirectoryErrorTemplateConstant, directoryPath, directoryStatError)
	}

	fileInfo, fileStatError := os.Stat(initializationPlan.FilePath)
	switch {
	case fileStatError == nil:
		if fileInfo.IsDir() {
			return fmt.Errorf(configurationInitializationExistingDirectoryTemplateConstant, initializationPlan.FilePath)
		}
		if !application.initializationForced {
			return fmt.Errorf(configurationInitializationExistingFileTemplateConstant, initializationPlan.FilePath)
		}
	case errors.Is(fileStatError, os.ErrNotExist):
	default:
		return fmt.Errorf(configurationInitializationWriteErrorTemplateConstant, initializationPlan.FilePath, fileStatError)
	}

	writeError := os.WriteFile(initializationPlan.FilePath, configurationContent, configurationFilePermissionConstant)
	if writeError != nil {
		return fmt.Errorf(configurationInitializationWriteErrorTemplateConstant, initializationPlan.FilePath, writeError)
	}

	return nil
}
