// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// captured and terminal-attached process execution, and defines the
// abstractions mango uses to run git and the issue editor in a testable manner.
package execshell
