package tasks

import (
	"fmt"
	"sort"
	"strings"
)

const (
	blankTaskNameReasonConstant   = "task name is empty"
	emptyStepListReasonConstant   = "task has no steps"
	blankExecutableReasonConstant = "step %d has no executable"
)

// Registry maps task names to tasks. It is filled during startup, sealed, and
// read-only for the rest of the process lifetime.
type Registry struct {
	tasks  map[string]Task
	sealed bool
}

// NewRegistry constructs an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task. A name that is already present fails with
// DuplicateTaskError and leaves the first registration in place.
func (registry *Registry) Register(task Task) error {
	taskName := strings.TrimSpace(task.Name)
	if len(taskName) == 0 {
		return InvalidTaskError{TaskName: task.Name, Reason: blankTaskNameReasonConstant}
	}
	if len(task.Steps) == 0 {
		return InvalidTaskError{TaskName: taskName, Reason: emptyStepListReasonConstant}
	}
	for stepIndex, step := range task.Steps {
		if len(strings.TrimSpace(step.Command.Executable)) == 0 {
			return InvalidTaskError{TaskName: taskName, Reason: formatBlankExecutableReason(stepIndex)}
		}
	}

	if registry.sealed {
		return ErrRegistrySealed
	}
	if _, exists := registry.tasks[taskName]; exists {
		return DuplicateTaskError{TaskName: taskName}
	}

	stored := task.Clone()
	stored.Name = taskName
	registry.tasks[taskName] = stored
	return nil
}

// Seal freezes the registry; later Register calls fail with ErrRegistrySealed.
func (registry *Registry) Seal() {
	registry.sealed = true
}

// Sealed reports whether the registry is frozen.
func (registry *Registry) Sealed() bool {
	return registry.sealed
}

// Lookup returns a copy of the named task or UnknownTaskError.
func (registry *Registry) Lookup(taskName string) (Task, error) {

	task, exists := registry.tasks[strings.TrimSpace(taskName)]
	if !exists {
		return Task{}, UnknownTaskError{TaskName: taskName, KnownTasks: registry.sortedNames()}
	}
	return task.Clone(), nil
}

// Names returns the registered task names in lexical order.
func (registry *Registry) Names() []string {
	return registry.sortedNames()
}

// Tasks returns copies of every registered task ordered by name.
func (registry *Registry) Tasks() []Task {

	names := registry.sortedNames()
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, registry.tasks[name].Clone())
	}
	return tasks
}

func (registry *Registry) sortedNames() []string {
	names := make([]string, 0, len(registry.tasks))
	for name := range registry.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatBlankExecutableReason(stepIndex int) string {
	return fmt.Sprintf(blankExecutableReasonConstant, stepIndex+humanStepNumberOffsetConstant)
}
