package repository

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	repositoryservice "github.com/temirov/mango/internal/repository"
)

const (
	initUseConstant        = "init"
	initShortDescription   = "Create a new Mango repository"
	initLongDescription    = "init deploys a new repository contract with the sender as maintainer and records its address in .mango/contract."
	initExampleDescription = "mango init --account 0x1234..."
)

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	Environment dependencies.CommandEnvironment
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:     initUseConstant,
		Short:   initShortDescription,
		Long:    initLongDescription,
		Example: initExampleDescription,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.Environment.OpenRepository(command.Context(), dependencies.RepositoryRequest{Initializing: true, Writes: true})
	if sessionError != nil {
		return sessionError
	}
	defer session.Close()

	service, serviceError := repositoryservice.NewService(repositoryservice.Dependencies{
		Ledger:        session.Client,
		Markers:       session.Workspace,
		Reporter:      builder.Environment.Reporter(command.OutOrStdout()),
		SenderAccount: session.Handle.SenderAccount,
	})
	if serviceError != nil {
		return serviceError
	}

	_, initError := service.Init(command.Context())
	return initError
}
