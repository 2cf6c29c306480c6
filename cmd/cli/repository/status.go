package repository

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	repositoryservice "github.com/temirov/mango/internal/repository"
)

const (
	statusUseConstant      = "status"
	statusShortDescription = "Show the references and snapshots of a Mango repository"
	statusLongDescription  = "status prints the repository address followed by every reference and snapshot recorded on the ledger."
)

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescription,
		Long:  statusLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.Environment.OpenRepository(command.Context(), dependencies.RepositoryRequest{})
	if sessionError != nil {
		return sessionError
	}
	defer session.Close()

	service, serviceError := repositoryservice.NewService(repositoryservice.Dependencies{
		Ledger:   session.Client,
		Reporter: builder.Environment.Reporter(command.OutOrStdout()),
	})
	if serviceError != nil {
		return serviceError
	}
	return service.Status(command.Context())
}
