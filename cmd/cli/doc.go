// Package cli constructs the mango command-line interface: the Cobra command
// hierarchy, the layered configuration loader, and structured logging. Command
// builders live in subpackages and share a dependencies.CommandEnvironment.
package cli
