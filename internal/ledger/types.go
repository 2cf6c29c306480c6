package ledger

import "strings"

const (
	// ZeroAddress is the address the contract reports for closed or unused pull request slots.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
	// DefaultWriteGasLimit is the gas ceiling attached to every state-changing call.
	DefaultWriteGasLimit uint64 = 500000
	// DefaultDeploymentGasLimit is the gas ceiling used when deploying a new repository contract.
	DefaultDeploymentGasLimit uint64 = 10000000

	hexPrefixConstant = "0x"
)

// Ref names a branch pointer; index 0 is the current branch by convention.
type Ref struct {
	Index  uint64
	Name   string
	Target string
}

// Snapshot is an append-only snapshot pointer recorded on the ledger.
type Snapshot struct {
	Index uint64
	Value string
}

// Issue pairs a dense issue id with the content hash of its body.
type Issue struct {
	ID          uint64
	ContentHash string
}

// Tombstoned reports whether the issue was deleted. Deleted issues keep their id.
func (issue Issue) Tombstoned() bool {
	return len(strings.TrimSpace(issue.ContentHash)) == 0
}

// PullRequest links an issue to the ledger address of the fork that resolves it.
// IssueID is only known for pull requests returned by OpenPullRequest.
type PullRequest struct {
	ID          uint64
	IssueID     uint64
	ForkAddress string
}

// Closed reports whether the pull request slot holds the zero-address sentinel.
func (pullRequest PullRequest) Closed() bool {
	return IsZeroAddress(pullRequest.ForkAddress)
}

// IsZeroAddress reports whether the address is empty or consists only of zero digits.
func IsZeroAddress(address string) bool {
	digits := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(address)), hexPrefixConstant)
	return len(strings.Trim(digits, "0")) == 0
}

// TransactOptions carries the sender and gas ceiling of a state-changing call.
type TransactOptions struct {
	From     string
	GasLimit uint64
}

// WriteReceipt summarizes a mined transaction.
type WriteReceipt struct {
	TransactionHash string
	GasUsed         uint64
	GasLimit        uint64
}
