package issues

import (
	"github.com/spf13/cobra"

	"github.com/temirov/mango/internal/dependencies"
	issueservice "github.com/temirov/mango/internal/issues"
)

const (
	issueIdentifierArgumentName = "issue id"
	issueIdentifierUse          = "<id>"
)

type serviceRequest struct {
	writes  bool
	content bool
	editing bool
}

// openService opens the work tree's repository and builds an issue service with the collaborators the request needs.
// The returned release function closes the ledger connection.
func openService(command *cobra.Command, environment dependencies.CommandEnvironment, request serviceRequest) (*issueservice.Service, func(), error) {
	session, sessionError := environment.OpenRepository(command.Context(), dependencies.RepositoryRequest{Writes: request.writes})
	if sessionError != nil {
		return nil, nil, sessionError
	}

	serviceDependencies := issueservice.Dependencies{
		Ledger:   session.Client,
		Reporter: environment.Reporter(command.OutOrStdout()),
	}

	if request.content || request.editing {
		contentStore, storeError := environment.ContentStoreOrDefault()
		if storeError != nil {
			session.Close()
			return nil, nil, storeError
		}
		serviceDependencies.Content = contentStore
	}

	if request.editing {
		editorSession, editorError := environment.EditorSession()
		if editorError != nil {
			session.Close()
			return nil, nil, editorError
		}
		serviceDependencies.Editor = editorSession
		serviceDependencies.Scratch = session.Workspace
	}

	service, serviceError := issueservice.NewService(serviceDependencies)
	if serviceError != nil {
		session.Close()
		return nil, nil, serviceError
	}
	return service, session.Close, nil
}
