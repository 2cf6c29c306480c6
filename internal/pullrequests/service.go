// Package pullrequests lists, opens and closes pull requests that point at forks.
package pullrequests

import (
	"context"
	"errors"

	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/shared"
)

const (
	pullRequestLineTemplate       = "Pull Request #%d -> %s\n"
	openedPullRequestLineTemplate = "[opened] Pull Request #%d for issue #%d -> %s\n"
	closedPullRequestLineTemplate = "[closed] Pull Request #%d\n"
	ledgerMissingMessage          = "pull request service requires a ledger client"
)

// ErrLedgerNotConfigured indicates the service was built without a ledger client.
var ErrLedgerNotConfigured = errors.New(ledgerMissingMessage)

// PullRequestLedger is the ledger surface used for pull requests.
type PullRequestLedger interface {
	PullRequests(executionContext context.Context) ([]ledger.PullRequest, error)
	GetPullRequest(executionContext context.Context, pullRequestID uint64) (string, error)
	OpenPullRequest(executionContext context.Context, issueID uint64, forkAddress string) (ledger.PullRequest, error)
	ClosePullRequest(executionContext context.Context, pullRequestID uint64) (uint64, error)
}

// Dependencies enumerates collaborators of the Service.
type Dependencies struct {
	Ledger   PullRequestLedger
	Reporter shared.Reporter
}

// Service implements the pull request commands.
type Service struct {
	ledger   PullRequestLedger
	reporter shared.Reporter
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Ledger == nil {
		return nil, ErrLedgerNotConfigured
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	return &Service{ledger: dependencies.Ledger, reporter: reporter}, nil
}

// List prints every open pull request.
func (service *Service) List(executionContext context.Context) error {
	pullRequests, listError := service.ledger.PullRequests(executionContext)
	if listError != nil {
		return listError
	}
	for _, pullRequest := range pullRequests {
		if pullRequest.Closed() {
			continue
		}
		service.reporter.Printf(pullRequestLineTemplate, pullRequest.ID, pullRequest.ForkAddress)
	}
	return nil
}

// Show prints the fork a pull request points at. Closed pull requests show the zero address.
func (service *Service) Show(executionContext context.Context, pullRequestID uint64) error {
	forkAddress, getError := service.ledger.GetPullRequest(executionContext, pullRequestID)
	if getError != nil {
		return getError
	}
	service.reporter.Printf(pullRequestLineTemplate, pullRequestID, forkAddress)
	return nil
}

// Open records a pull request for an issue and returns the assigned id.
func (service *Service) Open(executionContext context.Context, issueID uint64, forkAddress string) (ledger.PullRequest, error) {
	pullRequest, openError := service.ledger.OpenPullRequest(executionContext, issueID, forkAddress)
	if openError != nil {
		return ledger.PullRequest{}, openError
	}
	service.reporter.Printf(openedPullRequestLineTemplate, pullRequest.ID, pullRequest.IssueID, pullRequest.ForkAddress)
	return pullRequest, nil
}

// Close marks a pull request closed.
func (service *Service) Close(executionContext context.Context, pullRequestID uint64) error {
	closedID, closeError := service.ledger.ClosePullRequest(executionContext, pullRequestID)
	if closeError != nil {
		return closeError
	}
	service.reporter.Printf(closedPullRequestLineTemplate, closedID)
	return nil
}
