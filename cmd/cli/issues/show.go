package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	showUseConstant      = "get-issue " + issueIdentifierUse
	showShortDescription = "Print the body of an issue"
	showLongDescription  = "get-issue downloads the body of an issue from the content store and prints it."
)

// ShowCommandBuilder assembles the get-issue command.
type ShowCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the get-issue command.
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
	issueID, parseError := shared.ParseIdentifier(issueIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}

	service, release, openError := openService(command, builder.Environment, serviceRequest{content: true})
	if openError != nil {
		return openError
	}
	defer release()

	return service.Show(command.Context(), issueID)
}
