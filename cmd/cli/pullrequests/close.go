package pullrequests

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	closeUseConstant      = "close-pull-request <id>"
	closeShortDescription = "Close a pull request"
	closeLongDescription  = "close-pull-request replaces the fork address of a pull request with the zero address."
)

// CloseCommandBuilder assembles the close-pull-request command.
type CloseCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the close-pull-request command.
func (builder *CloseCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   closeUseConstant,
		Short: closeShortDescription,
		Long:  closeLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *CloseCommandBuilder) run(command *cobra.Command, arguments []string) error {
	pullRequestID, parseError := shared.ParseIdentifier(pullRequestIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}

	service, release, openError := openService(command, builder.Environment, true)
	if openError != nil {
		return openError
	}
	defer release()

	return service.Close(command.Context(), pullRequestID)
}
