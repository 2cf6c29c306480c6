package forks

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	forkUseConstant       = "fork <path>"
	forkShortDescription  = "Copy the Mango repository into a new work tree"
	forkLongDescription   = "fork copies the work tree to path, leaving out .mango and node_modules, and removes the origin remote from the copy."
	forkStartedMessage    = "Forking Mango repository...\n"
	forkCompletedTemplate = "Mango repository forked to %s\n"
)

// ForkCommandBuilder assembles the fork command.
type ForkCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the fork command.
func (builder *ForkCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   forkUseConstant,
		Short: forkShortDescription,
		Long:  forkLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *ForkCommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryWorkspace, workspaceError := builder.Environment.CheckedWorkspace(command.Context())
	if workspaceError != nil {
		return workspaceError
	}

	requestedPath := arguments[0]
	destination, resolveError := resolveTreePath(repositoryWorkspace.Root(), requestedPath)
	if resolveError != nil {
		return resolveError
	}

	coordinator, coordinatorError := builder.Environment.ForkCoordinator()
	if coordinatorError != nil {
		return coordinatorError
	}

	reporter := builder.Environment.Reporter(command.OutOrStdout())
	reporter.Printf(forkStartedMessage)
	if forkError := coordinator.Fork(command.Context(), repositoryWorkspace.Root(), destination); forkError != nil {
		return forkError
	}
	reporter.Printf(forkCompletedTemplate, requestedPath)
	return nil
}
