package forks

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	mergeUseConstant      = "merge-fork <path>"
	mergeShortDescription = "Merge a fork back into the Mango repository"
	mergeLongDescription  = `merge-fork adds the fork at path as a temporary remote, merges its branch without committing,
restores .mango from the current branch, commits, and removes the remote.
When a step fails the work tree may be left mid-merge; run abort-merge to recover.`
	mergeStartedMessage   = "Merging fork into Mango repository...\n"
	mergeCompletedMessage = "Fork merged into Mango repository.\n"
)

// MergeCommandBuilder assembles the merge-fork command.
type MergeCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the merge-fork command.
func (builder *MergeCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   mergeUseConstant,
		Short: mergeShortDescription,
		Long:  mergeLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *MergeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryWorkspace, workspaceError := builder.Environment.CheckedWorkspace(command.Context())
	if workspaceError != nil {
		return workspaceError
	}

	source, resolveError := resolveTreePath(repositoryWorkspace.Root(), arguments[0])
	if resolveError != nil {
		return resolveError
	}

	coordinator, coordinatorError := builder.Environment.ForkCoordinator()
	if coordinatorError != nil {
		return coordinatorError
	}

	reporter := builder.Environment.Reporter(command.OutOrStdout())
	reporter.Printf(mergeStartedMessage)
	if mergeError := coordinator.MergeFork(command.Context(), repositoryWorkspace.Root(), source); mergeError != nil {
		return mergeError
	}
	reporter.Printf(mergeCompletedMessage)
	return nil
}
