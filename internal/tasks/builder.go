package tasks

import (
	"fmt"
	"strings"

	"github.com/tyemirov/chores/internal/execshell"
)

const (
	blankCommandNameReasonConstant       = "command name is empty"
	blankCommandExecutableReasonConstant = "executable is empty"
	invalidEnvironmentReasonTemplate     = "environment entry %q is not KEY=VALUE"
)

// CommandDefinition is a named command as written in configuration.
// Environment entries use KEY=VALUE form so key case survives configuration
// loading.
type CommandDefinition struct {
	Name             string   `mapstructure:"name" yaml:"name"`
	Executable       string   `mapstructure:"executable" yaml:"executable"`
	Arguments        []string `mapstructure:"arguments" yaml:"arguments,omitempty"`
	WorkingDirectory string   `mapstructure:"working_directory" yaml:"working_directory,omitempty"`
	Environment      []string `mapstructure:"environment" yaml:"environment,omitempty"`
}

// TaskDefinition is a task as written in configuration; Steps name commands in
// the order they run.
type TaskDefinition struct {
	Name        string   `mapstructure:"name" yaml:"name"`
	Description string   `mapstructure:"description" yaml:"description,omitempty"`
	Steps       []string `mapstructure:"steps" yaml:"steps"`
}

// Definitions is the task table loaded from configuration.
type Definitions struct {
	Commands []CommandDefinition `mapstructure:"commands" yaml:"commands"`
	Tasks    []TaskDefinition    `mapstructure:"tasks" yaml:"tasks"`
}

// BuildRegistry validates the definitions, registers every task and seals the
// registry. Any problem is returned as a ConfigurationError.
func BuildRegistry(definitions Definitions) (*Registry, error) {
	commands, commandsError := indexCommands(definitions.Commands)
	if commandsError != nil {
		return nil, ConfigurationError{Cause: commandsError}
	}

	registry := NewRegistry()
	for _, taskDefinition := range definitions.Tasks {
		task, taskError := resolveTask(taskDefinition, commands)
		if taskError != nil {
			return nil, ConfigurationError{Cause: taskError}
		}
		if registerError := registry.Register(task); registerError != nil {
			return nil, ConfigurationError{Cause: registerError}
		}
	}
	registry.Seal()
	return registry, nil
}

func indexCommands(definitions []CommandDefinition) (map[string]execshell.CommandSpec, error) {
	commands := make(map[string]execshell.CommandSpec, len(definitions))
	for _, definition := range definitions {
		commandName := strings.TrimSpace(definition.Name)
		if len(commandName) == 0 {
			return nil, InvalidCommandError{CommandName: definition.Name, Reason: blankCommandNameReasonConstant}
		}
		if _, exists := commands[commandName]; exists {
			return nil, DuplicateCommandError{CommandName: commandName}
		}
		executable := strings.TrimSpace(definition.Executable)
		if len(executable) == 0 {
			return nil, InvalidCommandError{CommandName: commandName, Reason: blankCommandExecutableReasonConstant}
		}

		environment, environmentError := parseEnvironment(commandName, definition.Environment)
		if environmentError != nil {
			return nil, environmentError
		}

		spec := execshell.CommandSpec{
			Executable:           executable,
			WorkingDirectory:     strings.TrimSpace(definition.WorkingDirectory),
			EnvironmentVariables: environment,
		}
		if len(definition.Arguments) > 0 {
			spec.Arguments = append([]string(nil), definition.Arguments...)
		}
		commands[commandName] = spec
	}
	return commands, nil
}

func parseEnvironment(commandName string, entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	environment := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !found || len(key) == 0 {
			return nil, InvalidCommandError{CommandName: commandName, Reason: fmt.Sprintf(invalidEnvironmentReasonTemplate, entry)}
		}
		environment[key] = value
	}
	return environment, nil
}

func resolveTask(definition TaskDefinition, commands map[string]execshell.CommandSpec) (Task, error) {
	task := Task{
		Name:        strings.TrimSpace(definition.Name),
		Description: strings.TrimSpace(definition.Description),
		Steps:       make([]Step, 0, len(definition.Steps)),
	}
	for stepIndex, reference := range definition.Steps {
		commandName := strings.TrimSpace(reference)
		spec, exists := commands[commandName]
		if !exists {
			return Task{}, UnknownCommandReferenceError{TaskName: task.Name, StepIndex: stepIndex, CommandName: commandName}
		}
		task.Steps = append(task.Steps, Step{Name: commandName, Command: spec.Clone()})
	}
	return task, nil
}
