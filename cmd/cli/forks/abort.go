package forks

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	abortUseConstant        = "abort-merge"
	abortShortDescription   = "Abort an interrupted merge-fork"
	abortLongDescription    = "abort-merge aborts an in-progress git merge and removes the temporary fork remote left behind by a failed merge-fork."
	abortCompletedMessage   = "Merge aborted.\n"
	abortNothingToDoMessage = "No merge in progress.\n"
)

// AbortCommandBuilder assembles the abort-merge command.
type AbortCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the abort-merge command.
func (builder *AbortCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   abortUseConstant,
		Short: abortShortDescription,
		Long:  abortLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *AbortCommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryWorkspace, workspaceError := builder.Environment.CheckedWorkspace(command.Context())
	if workspaceError != nil {
		return workspaceError
	}

	coordinator, coordinatorError := builder.Environment.ForkCoordinator()
	if coordinatorError != nil {
		return coordinatorError
	}

	abortResult, abortError := coordinator.AbortMerge(command.Context(), repositoryWorkspace.Root())
	if abortError != nil {
		return abortError
	}

	reporter := builder.Environment.Reporter(command.OutOrStdout())
	if !abortResult.MergeAborted && !abortResult.RemoteRemoved {
		reporter.Printf(abortNothingToDoMessage)
		return nil
	}
	reporter.Printf(abortCompletedMessage)
	return nil
}
