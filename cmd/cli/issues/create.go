package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	createUseConstant      = "new-issue"
	createShortDescription = "Write a new issue in the editor and record it"
	createLongDescription  = "new-issue opens the configured editor on .mango/issues/<id>.txt, uploads the saved body, and records it as the next issue."
)

// CreateCommandBuilder assembles the new-issue command.
type CreateCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the new-issue command.
func (builder *CreateCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   createUseConstant,
		Short: createShortDescription,
		Long:  createLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *CreateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	service, release, openError := openService(command, builder.Environment, serviceRequest{writes: true, editing: true})
	if openError != nil {
		return openError
	}
	defer release()

	_, createError := service.Create(command.Context())
	return createError
}
