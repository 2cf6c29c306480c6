package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	operationInit             = "init"
	operationRefs             = "refs"
	operationSnapshots        = "snapshots"
	operationIssueCount       = "issueCount"
	operationIssues           = "issues"
	operationGetIssue         = "getIssue"
	operationNewIssue         = "newIssue"
	operationSetIssue         = "setIssue"
	operationDeleteIssue      = "deleteIssue"
	operationPullRequests     = "pullRequests"
	operationGetPullRequest   = "getPullRequest"
	operationOpenPullRequest  = "openPullRequest"
	operationClosePullRequest = "closePullRequest"
	operationAccounts         = "accounts"

	logMessageWriteConfirmedConstant  = "ledger write confirmed"
	logMessageWriteRejectedConstant   = "ledger write consumed all gas"
	logMessageDeployedConstant        = "repository contract deployed"
	logMessagePullRequestRaceConstant = "pull request count moved by more than one during open; reported id may belong to another operator"
	logFieldOperationConstant         = "operation"
	logFieldLedgerAddressConstant     = "ledger_address"
	logFieldGasUsedConstant           = "gas_used"
	logFieldGasLimitConstant          = "gas_limit"
	logFieldTransactionHashConstant   = "transaction_hash"
	logFieldCountBeforeConstant       = "count_before"
	logFieldCountAfterConstant        = "count_after"
)

// ClientDependencies enumerates collaborators required by Client.
type ClientDependencies struct {
	Connection Connection
	Logger     *zap.Logger
}

// ClientOptions configures a Client for one repository and sender.
type ClientOptions struct {
	LedgerAddress      string
	SenderAccount      string
	WriteGasLimit      uint64
	DeploymentGasLimit uint64
	MaximumEntries     uint64
}

// Client performs typed repository operations against the ledger contract.
// A client without a ledger address is unbound and only accepts Init.
type Client struct {
	connection         Connection
	contract           Contract
	logger             *zap.Logger
	ledgerAddress      string
	senderAccount      string
	writeGasLimit      uint64
	deploymentGasLimit uint64
	maximumEntries     uint64
}

// NewClient constructs a Client and binds it to the configured ledger address when one is supplied.
func NewClient(dependencies ClientDependencies, options ClientOptions) (*Client, error) {
	if dependencies.Connection == nil {
		return nil, ErrConnectionNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		connection:         dependencies.Connection,
		logger:             logger,
		senderAccount:      strings.TrimSpace(options.SenderAccount),
		writeGasLimit:      options.WriteGasLimit,
		deploymentGasLimit: options.DeploymentGasLimit,
		maximumEntries:     options.MaximumEntries,
	}
	if client.writeGasLimit == 0 {
		client.writeGasLimit = DefaultWriteGasLimit
	}
	if client.deploymentGasLimit == 0 {
		client.deploymentGasLimit = DefaultDeploymentGasLimit
	}

	ledgerAddress := strings.TrimSpace(options.LedgerAddress)
	if len(ledgerAddress) > 0 {
		if bindError := client.bind(ledgerAddress); bindError != nil {
			return nil, bindError
		}
	}
	return client, nil
}

// ResolveSenderAccount returns the configured account or, when blank, the first account the node manages.
func ResolveSenderAccount(executionContext context.Context, connection Connection, configuredAccount string) (string, error) {
	trimmedAccount := strings.TrimSpace(configuredAccount)
	if len(trimmedAccount) > 0 {
		return trimmedAccount, nil
	}
	if connection == nil {
		return "", ErrConnectionNotConfigured
	}

	accounts, accountsError := connection.Accounts(executionContext)
	if accountsError != nil {
		return "", OperationError{Operation: operationAccounts, Cause: accountsError}
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0], nil
}

// LedgerAddress returns the bound contract address, or an empty string when unbound.
func (client *Client) LedgerAddress() string {
	return client.ledgerAddress
}

// Init deploys a new repository contract with the sender as maintainer and binds the client to it.
func (client *Client) Init(executionContext context.Context) (string, error) {
	deployedAddress, deployError := client.connection.Deploy(executionContext, TransactOptions{
		From:     client.senderAccount,
		GasLimit: client.deploymentGasLimit,
	})
	if deployError != nil {
		return "", DeploymentError{Cause: deployError}
	}

	if bindError := client.bind(deployedAddress); bindError != nil {
		return "", DeploymentError{Cause: bindError}
	}

	client.logger.Info(logMessageDeployedConstant,
		zap.String(logFieldOperationConstant, operationInit),
		zap.String(logFieldLedgerAddressConstant, client.ledgerAddress),
		zap.Uint64(logFieldGasLimitConstant, client.deploymentGasLimit),
	)
	return client.ledgerAddress, nil
}

// Refs returns every ref in ledger order, resolving each name to its target.
func (client *Client) Refs(executionContext context.Context) ([]Ref, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return nil, bindingError
	}

	sequence := NewIndexedSequence(contract.RefCount, func(fetchContext context.Context, index uint64) (Ref, error) {
		refName, nameError := contract.RefName(fetchContext, index)
		if nameError != nil {
			return Ref{}, nameError
		}
		refTarget, targetError := contract.GetRef(fetchContext, refName)
		if targetError != nil {
			return Ref{}, targetError
		}
		return Ref{Index: index, Name: refName, Target: refTarget}, nil
	}).WithMaximumEntries(client.maximumEntries)

	refs, collectError := sequence.Collect(executionContext)
	if collectError != nil {
		return nil, OperationError{Operation: operationRefs, Cause: collectError}
	}
	return refs, nil
}

// Snapshots returns every snapshot in ledger order.
func (client *Client) Snapshots(executionContext context.Context) ([]Snapshot, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return nil, bindingError
	}

	sequence := NewIndexedSequence(contract.SnapshotCount, func(fetchContext context.Context, index uint64) (Snapshot, error) {
		snapshotValue, snapshotError := contract.GetSnapshot(fetchContext, index)
		if snapshotError != nil {
			return Snapshot{}, snapshotError
		}
		return Snapshot{Index: index, Value: snapshotValue}, nil
	}).WithMaximumEntries(client.maximumEntries)

	snapshots, collectError := sequence.Collect(executionContext)
	if collectError != nil {
		return nil, OperationError{Operation: operationSnapshots, Cause: collectError}
	}
	return snapshots, nil
}

// IssueCount returns the number of issue ids ever allocated, deleted ones included.
func (client *Client) IssueCount(executionContext context.Context) (uint64, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return 0, bindingError
	}

	issueCount, countError := contract.IssueCount(executionContext)
	if countError != nil {
		return 0, OperationError{Operation: operationIssueCount, Cause: countError}
	}
	return issueCount, nil
}

// Issues returns every issue id with its content hash. Tombstoned issues are included.
func (client *Client) Issues(executionContext context.Context) ([]Issue, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return nil, bindingError
	}

	sequence := NewIndexedSequence(contract.IssueCount, func(fetchContext context.Context, index uint64) (Issue, error) {
		contentHash, issueError := contract.GetIssue(fetchContext, index)
		if issueError != nil {
			return Issue{}, issueError
		}
		return Issue{ID: index, ContentHash: contentHash}, nil
	}).WithMaximumEntries(client.maximumEntries)

	issues, collectError := sequence.Collect(executionContext)
	if collectError != nil {
		return nil, OperationError{Operation: operationIssues, Cause: collectError}
	}
	return issues, nil
}

// GetIssue returns the content hash of a live issue.
func (client *Client) GetIssue(executionContext context.Context, issueID uint64) (string, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return "", bindingError
	}

	issueCount, countError := contract.IssueCount(executionContext)
	if countError != nil {
		return "", OperationError{Operation: operationGetIssue, Cause: countError}
	}
	if issueID >= issueCount {
		return "", NotFoundError{Entity: EntityIssue, ID: issueID}
	}

	contentHash, issueError := contract.GetIssue(executionContext, issueID)
	if issueError != nil {
		return "", OperationError{Operation: operationGetIssue, Cause: issueError}
	}
	if (Issue{ID: issueID, ContentHash: contentHash}).Tombstoned() {
		return "", NotFoundError{Entity: EntityIssue, ID: issueID}
	}
	return contentHash, nil
}

// NewIssue records a new issue body hash.
func (client *Client) NewIssue(executionContext context.Context, contentHash string) (string, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return "", bindingError
	}

	receipt, writeError := contract.NewIssue(executionContext, client.writeOptions(), contentHash)
	if confirmError := client.confirmWrite(operationNewIssue, receipt, writeError); confirmError != nil {
		return "", confirmError
	}
	return contentHash, nil
}

// SetIssue replaces the body hash of an existing issue.
func (client *Client) SetIssue(executionContext context.Context, issueID uint64, contentHash string) (string, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return "", bindingError
	}

	receipt, writeError := contract.SetIssue(executionContext, client.writeOptions(), issueID, contentHash)
	if confirmError := client.confirmWrite(operationSetIssue, receipt, writeError); confirmError != nil {
		return "", confirmError
	}
	return contentHash, nil
}

// DeleteIssue tombstones an issue. The issue count does not change.
func (client *Client) DeleteIssue(executionContext context.Context, issueID uint64) (uint64, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return 0, bindingError
	}

	receipt, writeError := contract.DeleteIssue(executionContext, client.writeOptions(), issueID)
	if confirmError := client.confirmWrite(operationDeleteIssue, receipt, writeError); confirmError != nil {
		return 0, confirmError
	}
	return issueID, nil
}

// PullRequests returns open pull requests in ledger order; zero-address slots are skipped.
func (client *Client) PullRequests(executionContext context.Context) ([]PullRequest, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return nil, bindingError
	}

	sequence := NewIndexedSequence(contract.PullRequestCount, func(fetchContext context.Context, index uint64) (PullRequest, error) {
		forkAddress, pullRequestError := contract.GetPullRequest(fetchContext, index)
		if pullRequestError != nil {
			return PullRequest{}, pullRequestError
		}
		return PullRequest{ID: index, ForkAddress: forkAddress}, nil
	}).WithMaximumEntries(client.maximumEntries)

	allPullRequests, collectError := sequence.Collect(executionContext)
	if collectError != nil {
		return nil, OperationError{Operation: operationPullRequests, Cause: collectError}
	}

	openPullRequests := make([]PullRequest, 0, len(allPullRequests))
	for _, pullRequest := range allPullRequests {
		if pullRequest.Closed() {
			continue
		}
		openPullRequests = append(openPullRequests, pullRequest)
	}
	return openPullRequests, nil
}

// GetPullRequest returns the fork address recorded for a pull request id. Closed pull requests report ZeroAddress.
func (client *Client) GetPullRequest(executionContext context.Context, pullRequestID uint64) (string, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return "", bindingError
	}

	pullRequestCount, countError := contract.PullRequestCount(executionContext)
	if countError != nil {
		return "", OperationError{Operation: operationGetPullRequest, Cause: countError}
	}
	if pullRequestID >= pullRequestCount {
		return "", NotFoundError{Entity: EntityPullRequest, ID: pullRequestID}
	}

	forkAddress, pullRequestError := contract.GetPullRequest(executionContext, pullRequestID)
	if pullRequestError != nil {
		return "", OperationError{Operation: operationGetPullRequest, Cause: pullRequestError}
	}
	return forkAddress, nil
}

// OpenPullRequest records a pull request and reports the id it was assigned.
//
// The id is read back as pullRequestCount-1 after the write is confirmed. Another
// operator opening a pull request in between makes that id belong to them; the
// client logs a warning when it can see this happened but does not correct it.
func (client *Client) OpenPullRequest(executionContext context.Context, issueID uint64, forkAddress string) (PullRequest, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return PullRequest{}, bindingError
	}

	countBefore, countBeforeError := contract.PullRequestCount(executionContext)
	if countBeforeError != nil {
		return PullRequest{}, OperationError{Operation: operationOpenPullRequest, Cause: countBeforeError}
	}

	receipt, writeError := contract.OpenPullRequest(executionContext, client.writeOptions(), issueID, forkAddress)
	if confirmError := client.confirmWrite(operationOpenPullRequest, receipt, writeError); confirmError != nil {
		return PullRequest{}, confirmError
	}

	countAfter, countAfterError := contract.PullRequestCount(executionContext)
	if countAfterError != nil {
		return PullRequest{}, OperationError{Operation: operationOpenPullRequest, Cause: countAfterError}
	}
	if countAfter == 0 {
		return PullRequest{}, NotFoundError{Entity: EntityPullRequest, ID: countBefore}
	}
	if countAfter != countBefore+1 {
		client.logger.Warn(logMessagePullRequestRaceConstant,
			zap.String(logFieldLedgerAddressConstant, client.ledgerAddress),
			zap.Uint64(logFieldCountBeforeConstant, countBefore),
			zap.Uint64(logFieldCountAfterConstant, countAfter),
		)
	}

	return PullRequest{ID: countAfter - 1, IssueID: issueID, ForkAddress: forkAddress}, nil
}

// ClosePullRequest marks a pull request closed. Closing an already closed pull request is not rejected.
func (client *Client) ClosePullRequest(executionContext context.Context, pullRequestID uint64) (uint64, error) {
	contract, bindingError := client.boundContract()
	if bindingError != nil {
		return 0, bindingError
	}

	receipt, writeError := contract.ClosePullRequest(executionContext, client.writeOptions(), pullRequestID)
	if confirmError := client.confirmWrite(operationClosePullRequest, receipt, writeError); confirmError != nil {
		return 0, confirmError
	}
	return pullRequestID, nil
}

func (client *Client) bind(ledgerAddress string) error {
	contract, bindError := client.connection.Bind(ledgerAddress)
	if bindError != nil {
		return bindError
	}
	client.contract = contract
	client.ledgerAddress = ledgerAddress
	return nil
}

func (client *Client) boundContract() (Contract, error) {
	if client.contract == nil {
		return nil, ErrRepositoryNotBound
	}
	return client.contract, nil
}

func (client *Client) writeOptions() TransactOptions {
	return TransactOptions{From: client.senderAccount, GasLimit: client.writeGasLimit}
}

// confirmWrite applies the gas heuristic. A receipt that used exactly the gas limit is
// reported as failed, even though a successful call could in principle consume exactly that much.
func (client *Client) confirmWrite(operation string, receipt WriteReceipt, writeError error) error {
	if writeError != nil {
		return OperationError{Operation: operation, Cause: writeError}
	}

	if receipt.GasUsed == client.writeGasLimit {
		client.logger.Warn(logMessageWriteRejectedConstant,
			zap.String(logFieldOperationConstant, operation),
			zap.String(logFieldLedgerAddressConstant, client.ledgerAddress),
			zap.String(logFieldTransactionHashConstant, receipt.TransactionHash),
			zap.Uint64(logFieldGasUsedConstant, receipt.GasUsed),
			zap.Uint64(logFieldGasLimitConstant, client.writeGasLimit),
		)
		return TransactionFailedError{Operation: operation, GasLimit: client.writeGasLimit, TransactionHash: receipt.TransactionHash}
	}

	client.logger.Debug(logMessageWriteConfirmedConstant,
		zap.String(logFieldOperationConstant, operation),
		zap.String(logFieldLedgerAddressConstant, client.ledgerAddress),
		zap.String(logFieldTransactionHashConstant, receipt.TransactionHash),
		zap.Uint64(logFieldGasUsedConstant, receipt.GasUsed),
		zap.Uint64(logFieldGasLimitConstant, client.writeGasLimit),
	)
	return nil
}
