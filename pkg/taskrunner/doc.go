// Package taskrunner hosts the shared abstractions for building and executing
// chores tasks. It exposes the `Executor` interface plus helpers (`Factory`,
// `Resolve`, `BuildDependencies`) so CLI packages can wire the registry,
// command runner and metrics once and obtain a runner that prints the final
// summary line, while unit tests can swap in fakes.
package taskrunner
