package ledger_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/temirov/mango/internal/ledger"
)

const testGasUsedConstant uint64 = 42000

type recordedWrite struct {
	operation string
	options   ledger.TransactOptions
}

// fakeContract keeps repository state in memory and mimics the ledger contract accessors.
type fakeContract struct {
	mutex sync.Mutex

	refNames       []string
	refTargets     map[string]string
	snapshots      []string
	issues         []string
	pullRequests   []string
	gasUsed        uint64
	failingReads   map[string]error
	writeError     error
	writes         []recordedWrite
	beforeOpenHook func()
}

func newFakeContract() *fakeContract {
	return &fakeContract{refTargets: map[string]string{}, failingReads: map[string]error{}, gasUsed: testGasUsedConstant}
}

func (contract *fakeContract) readError(operation string) error {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.failingReads[operation]
}

func (contract *fakeContract) RefCount(context.Context) (uint64, error) {
	if readError := contract.readError("refCount"); readError != nil {
		return 0, readError
	}
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.refNames)), nil
}

func (contract *fakeContract) RefName(_ context.Context, index uint64) (string, error) {
	if readError := contract.readError(fmt.Sprintf("refName:%d", index)); readError != nil {
		return "", readError
	}
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.refNames[index], nil
}

func (contract *fakeContract) GetRef(_ context.Context, name string) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.refTargets[name], nil
}

func (contract *fakeContract) SnapshotCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.snapshots)), nil
}

func (contract *fakeContract) GetSnapshot(_ context.Context, index uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.snapshots[index], nil
}

func (contract *fakeContract) IssueCount(context.Context) (uint64, error) {
	if readError := contract.readError("issueCount"); readError != nil {
		return 0, readError
	}
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.issues)), nil
}

func (contract *fakeContract) GetIssue(_ context.Context, issueID uint64) (string, error) {
	if readError := contract.readError(fmt.Sprintf("getIssue:%d", issueID)); readError != nil {
		return "", readError
	}
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.issues[issueID], nil
}

func (contract *fakeContract) write(operation string, options ledger.TransactOptions, mutate func()) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.writes = append(contract.writes, recordedWrite{operation: operation, options: options})
	if contract.writeError != nil {
		return ledger.WriteReceipt{}, contract.writeError
	}
	if contract.gasUsed < options.GasLimit {
		mutate()
	}
	return ledger.WriteReceipt{
		TransactionHash: fmt.Sprintf("0xtx%d", len(contract.writes)),
		GasUsed:         contract.gasUsed,
		GasLimit:        options.GasLimit,
	}, nil
}

func (contract *fakeContract) NewIssue(_ context.Context, options ledger.TransactOptions, contentHash string) (ledger.WriteReceipt, error) {
	return contract.write("newIssue", options, func() {
		contract.issues = append(contract.issues, contentHash)
	})
}

func (contract *fakeContract) SetIssue(_ context.Context, options ledger.TransactOptions, issueID uint64, contentHash string) (ledger.WriteReceipt, error) {
	return contract.write("setIssue", options, func() {
		contract.issues[issueID] = contentHash
	})
}

func (contract *fakeContract) DeleteIssue(_ context.Context, options ledger.TransactOptions, issueID uint64) (ledger.WriteReceipt, error) {
	return contract.write("deleteIssue", options, func() {
		contract.issues[issueID] = ""
	})
}

func (contract *fakeContract) PullRequestCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.pullRequests)), nil
}

func (contract *fakeContract) GetPullRequest(_ context.Context, pullRequestID uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.pullRequests[pullRequestID], nil
}

func (contract *fakeContract) OpenPullRequest(_ context.Context, options ledger.TransactOptions, issueID uint64, forkAddress string) (ledger.WriteReceipt, error) {
	if contract.beforeOpenHook != nil {
		contract.beforeOpenHook()
	}
	return contract.write("openPullRequest", options, func() {
		contract.pullRequests = append(contract.pullRequests, forkAddress)
	})
}

func (contract *fakeContract) ClosePullRequest(_ context.Context, options ledger.TransactOptions, pullRequestID uint64) (ledger.WriteReceipt, error) {
	return contract.write("closePullRequest", options, func() {
		contract.pullRequests[pullRequestID] = ledger.ZeroAddress
	})
}

// fakeConnection deploys fakeContract instances keyed by address.
type fakeConnection struct {
	accounts      []string
	accountsError error
	deployError   error
	deployments   []ledger.TransactOptions
	contracts     map[string]*fakeContract
}

func newFakeConnection(ledgerAddress string, contract *fakeContract) *fakeConnection {
	connection := &fakeConnection{contracts: map[string]*fakeContract{}}
	if len(ledgerAddress) > 0 {
		connection.contracts[ledgerAddress] = contract
	}
	return connection
}

func (connection *fakeConnection) Accounts(context.Context) ([]string, error) {
	return connection.accounts, connection.accountsError
}

func (connection *fakeConnection) Deploy(_ context.Context, options ledger.TransactOptions) (string, error) {
	connection.deployments = append(connection.deployments, options)
	if connection.deployError != nil {
		return "", connection.deployError
	}
	deployedAddress := fmt.Sprintf("0x%040d", len(connection.deployments))
	connection.contracts[deployedAddress] = newFakeContract()
	return deployedAddress, nil
}

func (connection *fakeConnection) Bind(ledgerAddress string) (ledger.Contract, error) {
	contract, found := connection.contracts[ledgerAddress]
	if !found {
		return nil, fmt.Errorf("no contract at %s", ledgerAddress)
	}
	return contract, nil
}
