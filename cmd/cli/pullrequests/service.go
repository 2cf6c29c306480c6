package pullrequests

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	pullrequestservice "github.com/temirov/mango/internal/pullrequests"
)

const (
	pullRequestIdentifierArgumentName = "pull request id"
	issueIdentifierArgumentName       = "issue id"
)

func openService(command *cobra.Command, environment dependencies.CommandEnvironment, writes bool) (*pullrequestservice.Service, func(), error) {
	session, sessionError := environment.OpenRepository(command.Context(), dependencies.RepositoryRequest{Writes: writes})
	if sessionError != nil {
		return nil, nil, sessionError
	}

	service, serviceError := pullrequestservice.NewService(pullrequestservice.Dependencies{
		Ledger:   session.Client,
		Reporter: environment.Reporter(command.OutOrStdout()),
	})
	if serviceError != nil {
		session.Close()
		return nil, nil, serviceError
	}
	return service, session.Close, nil
}
