package ledger

import "context"

// Contract is the repository contract surface the client consumes.
type Contract interface {
	RefCount(executionContext context.Context) (uint64, error)
	RefName(executionContext context.Context, index uint64) (string, error)
	GetRef(executionContext context.Context, name string) (string, error)

	SnapshotCount(executionContext context.Context) (uint64, error)
	GetSnapshot(executionContext context.Context, index uint64) (string, error)

	IssueCount(executionContext context.Context) (uint64, error)
	GetIssue(executionContext context.Context, issueID uint64) (string, error)
	NewIssue(executionContext context.Context, options TransactOptions, contentHash string) (WriteReceipt, error)
	SetIssue(executionContext context.Context, options TransactOptions, issueID uint64, contentHash string) (WriteReceipt, error)
	DeleteIssue(executionContext context.Context, options TransactOptions, issueID uint64) (WriteReceipt, error)

	PullRequestCount(executionContext context.Context) (uint64, error)
	GetPullRequest(executionContext context.Context, pullRequestID uint64) (string, error)
	OpenPullRequest(executionContext context.Context, options TransactOptions, issueID uint64, forkAddress string) (WriteReceipt, error)
	ClosePullRequest(executionContext context.Context, options TransactOptions, pullRequestID uint64) (WriteReceipt, error)
}

// Connection reaches a ledger node: it lists node-managed accounts, deploys repositories, and binds to them.
type Connection interface {
	Accounts(executionContext context.Context) ([]string, error)
	Deploy(executionContext context.Context, options TransactOptions) (string, error)
	Bind(ledgerAddress string) (Contract, error)
}
