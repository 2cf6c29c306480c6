package pullrequests

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
)

const (
	listUseConstant      = "pull-requests"
	listShortDescription = "List open pull requests"
	listLongDescription  = "pull-requests prints every open pull request with the address of the fork it references. Closed pull requests are omitted."
)

// ListCommandBuilder assembles the pull-requests command.
type ListCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the pull-requests command.
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
	service, release, openError := openService(command, builder.Environment, false)
	if openError != nil {
		return openError
	}
	defer release()

	return service.List(command.Context())
}
