package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/shared"
)

const (
	editUseConstant      = "edit-issue " + issueIdentifierUse
	editShortDescription = "Edit an existing issue"
	editLongDescription  = "edit-issue opens the current issue body in the configured editor, uploads the saved result, and updates the issue."
)

// EditCommandBuilder assembles the edit-issue command.
type EditCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the edit-issue command.
func (builder *EditCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   editUseConstant,
		Short: editShortDescription,
		Long:  editLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *EditCommandBuilder) run(command *cobra.Command, arguments []string) error {
	issueID, parseError := shared.ParseIdentifier(issueIdentifierArgumentName, arguments[0])
	if parseError != nil {
		return parseError
	}

	service, release, openError := openService(command, builder.Environment, serviceRequest{writes: true, editing: true})
	if openError != nil {
		return openError
	}
	defer release()

	return service.Edit(command.Context(), issueID)
}
