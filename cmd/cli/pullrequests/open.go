package pullrequests

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	openUseConstant      = "open-pull-request <issueId> <forkAddress>"
	openShortDescription = "Open a pull request referencing a fork"
	openLongDescription  = "open-pull-request records that the fork repository at forkAddress resolves the given issue."
)

// OpenCommandBuilder assembles the open-pull-request command.
type OpenCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the open-pull-request command.
func (builder *OpenCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   openUseConstant,
		Short: openShortDescription,
		Long:  openLongDescription,
		Args:  cobra.ExactArgs(2),
		RunE:  builder.run,
	}, nil
}

func (builder *OpenCommandBuilder) run(command *cobra.Command, arguments []string) error {
	issueID, parseError := shared.ParseIdentifier(issueIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}
	forkAddress := strings.TrimSpace(arguments[1])

	service, release, openError := openService(command, builder.Environment, true)
	if openError != nil {
		return openError
	}
	defer release()

	_, pullRequestError := service.Open(command.Context(), issueID, forkAddress)
	return pullRequestError
}
