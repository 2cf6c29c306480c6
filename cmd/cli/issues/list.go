package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	listUseConstant      = "issues"
	listShortDescription = "List the issues of a Mango repository"
	listLongDescription  = "issues prints every issue that has not been deleted together with the content hash of its body."
)

// ListCommandBuilder assembles the issues command.
type ListCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the issues command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   listUseConstant,
		Short: listShortDescription,
		Long:  listLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, arguments []string) error {
	service, release, openError := openService(command, builder.Environment, serviceRequest{})
	if openError != nil {
		return openError
	}
	defer release()

	return service.List(command.Context())
}
