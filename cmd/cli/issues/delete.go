package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	deleteUseConstant      = "delete-issue " + issueIdentifierUse
	deleteShortDescription = "Delete an issue"
	deleteLongDescription  = "delete-issue clears the content hash of an issue. The id stays reserved and the issue count does not change."
)

// DeleteCommandBuilder assembles the delete-issue command.
type DeleteCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the delete-issue command.
func (builder *DeleteCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   deleteUseConstant,
		Short: deleteShortDescription,
		Long:  deleteLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *DeleteCommandBuilder) run(command *cobra.Command, arguments []string) error {
	issueID, parseError := shared.ParseIdentifier(issueIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}

	service, release, openError := openService(command, builder.Environment, serviceRequest{writes: true})
	if openError != nil {
		return openError
	}
	defer release()

	return service.Delete(command.Context(), issueID)
}
