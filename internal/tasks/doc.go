// Package tasks holds the task registry and the sequential executor. A task is
// an ordered list of external command steps; the registry is populated once at
// startup, sealed, and only read afterwards. The executor runs a task's steps
// one at a time through an execshell.CommandRunner, stopping at the first
// failure unless the continue policy is selected.
package tasks
