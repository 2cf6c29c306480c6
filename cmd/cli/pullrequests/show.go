package pullrequests

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	showUseConstant      = "get-pull-request <id>"
	showShortDescription = "Show the fork a pull request references"
	showLongDescription  = "get-pull-request prints the fork address of a pull request. Closed pull requests print the zero address."
)

// ShowCommandBuilder assembles the get-pull-request command.
type ShowCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the get-pull-request command.
func (builder *ShowCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   showUseConstant,
		Short: showShortDescription,
		Long:  showLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *ShowCommandBuilder) run(command *cobra.Command, arguments []string) error {
	pullRequestID, parseError := shared.ParseIdentifier(pullRequestIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}

	service, release, openError := openService(command, builder.Environment, false)
	if openError != nil {
		return openError
	}
	defer release()

	return service.Show(command.Context(), pullRequestID)
}
