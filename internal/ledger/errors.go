package ledger

import (
	"errors"
	"fmt"
)

const (
	repositoryNotBoundMessageConstant         = "no mango repository bound; run init first"
	connectionMissingMessageConstant          = "ledger connection not configured"
	noAccountsMessageConstant                 = "ledger node manages no accounts; configure ledger.account"
	deploymentErrorTemplateConstant           = "repository deployment failed: %s"
	transactionFailedTemplateConstant         = "%s transaction failed: all %d gas consumed"
	transactionFailedWithHashTemplateConstant = "%s transaction %s failed: all %d gas consumed"
	notFoundTemplateConstant                  = "%s #%d not found"
	operationErrorTemplateConstant            = "%s failed: %s"
	indexedReadErrorTemplateConstant          = "read at index %d failed: %s"
	enumerationLimitTemplateConstant          = "ledger reports %d entries, more than the %d allowed"
	unknownCauseMessageConstant               = "unknown error"
)

var (
	// ErrRepositoryNotBound indicates an operation other than Init on a client without a ledger address.
	ErrRepositoryNotBound = errors.New(repositoryNotBoundMessageConstant)
	// ErrConnectionNotConfigured indicates the client was built without a ledger connection.
	ErrConnectionNotConfigured = errors.New(connectionMissingMessageConstant)
	// ErrNoAccounts indicates the node returned no accounts to send from.
	ErrNoAccounts = errors.New(noAccountsMessageConstant)
)

// Entity names the ledger collections NotFoundError can refer to.
type Entity string

// Known entities.
const (
	EntityIssue       Entity = "issue"
	EntityPullRequest Entity = "pull request"
)

// DeploymentError reports that creating a new repository contract failed or timed out.
type DeploymentError struct {
	Cause error
}

// Error describes the deployment failure.
func (deploymentError DeploymentError) Error() string {
	return fmt.Sprintf(deploymentErrorTemplateConstant, describeCause(deploymentError.Cause))
}

// Unwrap exposes the underlying cause.
func (deploymentError DeploymentError) Unwrap() error {
	return deploymentError.Cause
}

// TransactionFailedError reports a write whose receipt consumed the entire gas ceiling.
type TransactionFailedError struct {
	Operation       string
	GasLimit        uint64
	TransactionHash string
}

// Error describes the failed transaction.
func (failedError TransactionFailedError) Error() string {
	if len(failedError.TransactionHash) == 0 {
		return fmt.Sprintf(transactionFailedTemplateConstant, failedError.Operation, failedError.GasLimit)
	}
	return fmt.Sprintf(transactionFailedWithHashTemplateConstant, failedError.Operation, failedError.TransactionHash, failedError.GasLimit)
}

// NotFoundError reports an id outside the ledger's range or a deleted entry.
type NotFoundError struct {
	Entity Entity
	ID     uint64
}

// Error describes the missing entity.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundTemplateConstant, notFoundError.Entity, notFoundError.ID)
}

// OperationError wraps a failed ledger call with the client operation that issued it.
type OperationError struct {
	Operation string
	Cause     error
}

// Error describes the failed operation.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, describeCause(operationError.Cause))
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// IndexedReadError identifies the index whose read failed during enumeration.
type IndexedReadError struct {
	Index uint64
	Cause error
}

// Error describes the failed read.
func (readError IndexedReadError) Error() string {
	return fmt.Sprintf(indexedReadErrorTemplateConstant, readError.Index, describeCause(readError.Cause))
}

// Unwrap exposes the underlying cause.
func (readError IndexedReadError) Unwrap() error {
	return readError.Cause
}

// EnumerationLimitError reports a collection whose count exceeds what a client will enumerate.
type EnumerationLimitError struct {
	Count uint64
	Limit uint64
}

// Error describes the rejected count.
func (limitError EnumerationLimitError) Error() string {
	return fmt.Sprintf(enumerationLimitTemplateConstant, limitError.Count, limitError.Limit)
}

func describeCause(cause error) string {
	if cause == nil {
		return unknownCauseMessageConstant
	}
	return cause.Error()
}
