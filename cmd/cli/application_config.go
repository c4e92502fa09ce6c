package cli

import (
	_ "embed"

	"github.com/tyemirov/chores/internal/tasks"
)

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the configuration compiled into the
// binary together with its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfiguration...), configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common" yaml:"common"`
	Commands []tasks.CommandDefinition      `mapstructure:"commands" yaml:"commands"`
	Tasks    []tasks.TaskDefinition         `mapstructure:"tasks" yaml:"tasks"`
}

// ApplicationCommonConfiguration stores logging and execution defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
	FailurePolicy string `mapstructure:"failure_policy" yaml:"failure_policy"`
	DryRun        bool   `mapstructure:"dry_run" yaml:"dry_run"`
	MetricsFile   string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Definitions returns the task table portion of the configuration.
func (configuration ApplicationConfiguration) Definitions() tasks.Definitions {
	return tasks.Definitions{
		Commands: configuration.Commands,
		Tasks:    configuration.Tasks,
	}
}

// taskRegistry builds the registry from the loaded configuration once per
// invocation. Configuration problems are reported to every caller.
func (application *Application) taskRegistry() (*tasks.Registry, error) {
	if application.registryBuilt {
		return application.registry, application.registryError
	}
	application.registryBuilt = true
	application.registry, application.registryError = tasks.BuildRegistry(application.configuration.Definitions())
	return application.registry, application.registryError
}
