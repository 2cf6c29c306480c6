package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/mango/internal/ledger"
)

const (
	testLedgerAddressConstant = "0x5b1869D9A4C187F2EAa108f3062412ecf0526b24"
	testSenderConstant        = "0x627306090abaB3A6e1400e9345bC60c78a8BEf57"
	testForkAddressConstant   = "0xf17f52151EbEF6C7334FAD080c5704D77216b732"
)

func newBoundClient(testInstance *testing.T, contract *fakeContract, logger *zap.Logger) *ledger.Client {
	testInstance.Helper()
	client, creationError := ledger.NewClient(
		ledger.ClientDependencies{Connection: newFakeConnection(testLedgerAddressConstant, contract), Logger: logger},
		ledger.ClientOptions{LedgerAddress: testLedgerAddressConstant, SenderAccount: testSenderConstant},
	)
	require.NoError(testInstance, creationError)
	return client
}

func TestClientInit(testInstance *testing.T) {
	testInstance.Run("deploys_and_binds", func(testInstance *testing.T) {
		connection := newFakeConnection("", nil)
		client, creationError := ledger.NewClient(ledger.ClientDependencies{Connection: connection}, ledger.ClientOptions{SenderAccount: testSenderConstant})
		require.NoError(testInstance, creationError)

		_, unboundError := client.IssueCount(context.Background())
		require.ErrorIs(testInstance, unboundError, ledger.ErrRepositoryNotBound)

		deployedAddress, initError := client.Init(context.Background())
		require.NoError(testInstance, initError)
		require.Equal(testInstance, deployedAddress, client.LedgerAddress())
		require.Equal(testInstance, []ledger.TransactOptions{{From: testSenderConstant, GasLimit: ledger.DefaultDeploymentGasLimit}}, connection.deployments)

		issueCount, countError := client.IssueCount(context.Background())
		require.NoError(testInstance, countError)
		require.Zero(testInstance, issueCount)
	})

	testInstance.Run("deployment_failure", func(testInstance *testing.T) {
		connection := newFakeConnection("", nil)
		connection.deployError = context.DeadlineExceeded
		client, creationError := ledger.NewClient(ledger.ClientDependencies{Connection: connection}, ledger.ClientOptions{SenderAccount: testSenderConstant})
		require.NoError(testInstance, creationError)

		_, initError := client.Init(context.Background())
		var deploymentError ledger.DeploymentError
		require.ErrorAs(testInstance, initError, &deploymentError)
		require.ErrorIs(testInstance, initError, context.DeadlineExceeded)
		require.Empty(testInstance, client.LedgerAddress())
	})
}

func TestNewClientValidation(testInstance *testing.T) {
	_, missingConnectionError := ledger.NewClient(ledger.ClientDependencies{}, ledger.ClientOptions{})
	require.ErrorIs(testInstance, missingConnectionError, ledger.ErrConnectionNotConfigured)

	_, bindError := ledger.NewClient(ledger.ClientDependencies{Connection: newFakeConnection("", nil)}, ledger.ClientOptions{LedgerAddress: testLedgerAddressConstant})
	require.Error(testInstance, bindError)
}

func TestResolveSenderAccount(testInstance *testing.T) {
	testCases := []struct {
		name            string
		configured      string
		accounts        []string
		accountsError   error
		expectedAccount string
		expectedError   error
	}{
		{name: "configured_wins", configured: " " + testSenderConstant + " ", accounts: []string{"0xother"}, expectedAccount: testSenderConstant},
		{name: "first_node_account", accounts: []string{testSenderConstant, "0xother"}, expectedAccount: testSenderConstant},
		{name: "no_accounts", accounts: nil, expectedError: ledger.ErrNoAccounts},
		{name: "node_failure", accountsError: errors.New("connection refused"), expectedError: ledger.OperationError{Operation: "accounts", Cause: errors.New("connection refused")}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			connection := newFakeConnection("", nil)
			connection.accounts = testCase.accounts
			connection.accountsError = testCase.accountsError

			account, resolveError := ledger.ResolveSenderAccount(context.Background(), connection, testCase.configured)
			if testCase.expectedError != nil {
				require.Error(testInstance, resolveError)
				require.Equal(testInstance, testCase.expectedError.Error(), resolveError.Error())
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedAccount, account)
		})
	}
}

func TestClientRefsAndSnapshots(testInstance *testing.T) {
	contract := newFakeContract()
	contract.refNames = []string{"refs/heads/master", "refs/heads/feature"}
	contract.refTargets = map[string]string{
		"refs/heads/master":  "QmMaster",
		"refs/heads/feature": "QmFeature",
	}
	contract.snapshots = []string{"QmSnapshotA", "QmSnapshotB", "QmSnapshotC"}
	client := newBoundClient(testInstance, contract, nil)

	refs, refsError := client.Refs(context.Background())
	require.NoError(testInstance, refsError)
	require.Len(testInstance, refs, 2)
	for refIndex, ref := range refs {
		require.Equal(testInstance, uint64(refIndex), ref.Index)
		require.Equal(testInstance, contract.refNames[refIndex], ref.Name)
		require.Equal(testInstance, contract.refTargets[ref.Name], ref.Target)
	}

	snapshots, snapshotsError := client.Snapshots(context.Background())
	require.NoError(testInstance, snapshotsError)
	require.Equal(testInstance, []ledger.Snapshot{{Index: 0, Value: "QmSnapshotA"}, {Index: 1, Value: "QmSnapshotB"}, {Index: 2, Value: "QmSnapshotC"}}, snapshots)

	contract.failingReads["refName:1"] = errors.New("node unavailable")
	_, failingRefsError := client.Refs(context.Background())
	var operationError ledger.OperationError
	require.ErrorAs(testInstance, failingRefsError, &operationError)
	require.Equal(testInstance, "refs", operationError.Operation)
	var readError ledger.IndexedReadError
	require.ErrorAs(testInstance, failingRefsError, &readError)
	require.Equal(testInstance, uint64(1), readError.Index)
}

func TestClientRejectsOversizedCollections(testInstance *testing.T) {
	contract := newFakeContract()
	contract.snapshots = []string{"QmSnapshotA", "QmSnapshotB", "QmSnapshotC"}
	client, creationError := ledger.NewClient(
		ledger.ClientDependencies{Connection: newFakeConnection(testLedgerAddressConstant, contract)},
		ledger.ClientOptions{LedgerAddress: testLedgerAddressConstant, MaximumEntries: 2},
	)
	require.NoError(testInstance, creationError)

	_, snapshotsError := client.Snapshots(context.Background())
	var operationError ledger.OperationError
	require.ErrorAs(testInstance, snapshotsError, &operationError)
	require.Equal(testInstance, "snapshots", operationError.Operation)
	var limitError ledger.EnumerationLimitError
	require.ErrorAs(testInstance, snapshotsError, &limitError)
	require.Equal(testInstance, ledger.EnumerationLimitError{Count: 3, Limit: 2}, limitError)
}

func TestClientIssueLifecycle(testInstance *testing.T) {
	contract := newFakeContract()
	contract.issues = []string{"QmZero", "QmOne", "QmTwo"}
	client := newBoundClient(testInstance, contract, nil)
	executionContext := context.Background()

	issueCount, countError := client.IssueCount(executionContext)
	require.NoError(testInstance, countError)
	require.Equal(testInstance, uint64(3), issueCount)

	createdHash, newError := client.NewIssue(executionContext, "QmThree")
	require.NoError(testInstance, newError)
	require.Equal(testInstance, "QmThree", createdHash)

	newIssueHash, getNewError := client.GetIssue(executionContext, issueCount)
	require.NoError(testInstance, getNewError)
	require.Equal(testInstance, "QmThree", newIssueHash)

	updatedHash, setError := client.SetIssue(executionContext, 1, "QmOneEdited")
	require.NoError(testInstance, setError)
	require.Equal(testInstance, "QmOneEdited", updatedHash)

	fetchedHash, getError := client.GetIssue(executionContext, 1)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, "QmOneEdited", fetchedHash)

	deletedID, deleteError := client.DeleteIssue(executionContext, 1)
	require.NoError(testInstance, deleteError)
	require.Equal(testInstance, uint64(1), deletedID)

	_, tombstoneError := client.GetIssue(executionContext, 1)
	require.ErrorIs(testInstance, tombstoneError, ledger.NotFoundError{Entity: ledger.EntityIssue, ID: 1})

	_, outOfRangeError := client.GetIssue(executionContext, 4)
	require.ErrorIs(testInstance, outOfRangeError, ledger.NotFoundError{Entity: ledger.EntityIssue, ID: 4})

	countAfterDelete, countAfterDeleteError := client.IssueCount(executionContext)
	require.NoError(testInstance, countAfterDeleteError)
	require.Equal(testInstance, uint64(4), countAfterDelete)

	issues, issuesError := client.Issues(executionContext)
	require.NoError(testInstance, issuesError)
	require.Len(testInstance, issues, 4)
	require.True(testInstance, issues[1].Tombstoned())
	require.False(testInstance, issues[3].Tombstoned())

	for _, write := range contract.writes {
		require.Equal(testInstance, ledger.TransactOptions{From: testSenderConstant, GasLimit: ledger.DefaultWriteGasLimit}, write.options)
	}
}

func TestClientWriteGasHeuristic(testInstance *testing.T) {
	testCases := []struct {
		name        string
		gasUsed     uint64
		expectError bool
	}{
		{name: "below_limit_commits", gasUsed: ledger.DefaultWriteGasLimit - 1},
		{name: "exactly_limit_fails", gasUsed: ledger.DefaultWriteGasLimit, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			contract := newFakeContract()
			contract.issues = []string{"QmZero"}
			contract.gasUsed = testCase.gasUsed
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			client := newBoundClient(testInstance, contract, zap.New(observerCore))

			_, setError := client.SetIssue(context.Background(), 0, "QmEdited")
			if !testCase.expectError {
				require.NoError(testInstance, setError)
				require.Equal(testInstance, 1, observedLogs.FilterLevelExact(zapcore.DebugLevel).Len())
				return
			}

			var failedError ledger.TransactionFailedError
			require.ErrorAs(testInstance, setError, &failedError)
			require.Equal(testInstance, "setIssue", failedError.Operation)
			require.Equal(testInstance, ledger.DefaultWriteGasLimit, failedError.GasLimit)
			require.Equal(testInstance, "0xtx1", failedError.TransactionHash)
			require.Equal(testInstance, 1, observedLogs.FilterLevelExact(zapcore.WarnLevel).Len())
		})
	}
}

func TestClientCustomWriteGasLimit(testInstance *testing.T) {
	contract := newFakeContract()
	contract.gasUsed = 200000
	client, creationError := ledger.NewClient(
		ledger.ClientDependencies{Connection: newFakeConnection(testLedgerAddressConstant, contract)},
		ledger.ClientOptions{LedgerAddress: testLedgerAddressConstant, SenderAccount: testSenderConstant, WriteGasLimit: 200000},
	)
	require.NoError(testInstance, creationError)

	_, newError := client.NewIssue(context.Background(), "QmZero")
	require.ErrorAs(testInstance, newError, &ledger.TransactionFailedError{})
	require.Equal(testInstance, uint64(200000), contract.writes[0].options.GasLimit)
}

func TestClientWriteTransportFailure(testInstance *testing.T) {
	contract := newFakeContract()
	contract.writeError = errors.New("nonce too low")
	client := newBoundClient(testInstance, contract, nil)

	_, deleteError := client.DeleteIssue(context.Background(), 0)
	var operationError ledger.OperationError
	require.ErrorAs(testInstance, deleteError, &operationError)
	require.Equal(testInstance, "deleteIssue", operationError.Operation)
}

func TestClientPullRequests(testInstance *testing.T) {
	contract := newFakeContract()
	contract.pullRequests = []string{
		"0x1111111111111111111111111111111111111111",
		ledger.ZeroAddress,
		"0x2222222222222222222222222222222222222222",
		ledger.ZeroAddress,
		"0x3333333333333333333333333333333333333333",
	}
	client := newBoundClient(testInstance, contract, nil)
	executionContext := context.Background()

	pullRequests, listError := client.PullRequests(executionContext)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []ledger.PullRequest{
		{ID: 0, ForkAddress: "0x1111111111111111111111111111111111111111"},
		{ID: 2, ForkAddress: "0x2222222222222222222222222222222222222222"},
		{ID: 4, ForkAddress: "0x3333333333333333333333333333333333333333"},
	}, pullRequests)

	opened, openError := client.OpenPullRequest(executionContext, 2, testForkAddressConstant)
	require.NoError(testInstance, openError)
	require.Equal(testInstance, ledger.PullRequest{ID: 5, IssueID: 2, ForkAddress: testForkAddressConstant}, opened)

	forkAddress, getError := client.GetPullRequest(executionContext, 5)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, testForkAddressConstant, forkAddress)

	_, missingError := client.GetPullRequest(executionContext, 6)
	require.ErrorIs(testInstance, missingError, ledger.NotFoundError{Entity: ledger.EntityPullRequest, ID: 6})

	closedID, closeError := client.ClosePullRequest(executionContext, 5)
	require.NoError(testInstance, closeError)
	require.Equal(testInstance, uint64(5), closedID)

	closedAddress, getClosedError := client.GetPullRequest(executionContext, 5)
	require.NoError(testInstance, getClosedError)
	require.True(testInstance, ledger.IsZeroAddress(closedAddress))

	pullRequestsAfterClose, listAfterCloseError := client.PullRequests(executionContext)
	require.NoError(testInstance, listAfterCloseError)
	require.Len(testInstance, pullRequestsAfterClose, 3)
}

func TestClientOpenPullRequestRaceIsLogged(testInstance *testing.T) {
	contract := newFakeContract()
	contract.pullRequests = []string{"0x1111111111111111111111111111111111111111"}
	contract.beforeOpenHook = func() {
		contract.mutex.Lock()
		contract.pullRequests = append(contract.pullRequests, "0x9999999999999999999999999999999999999999")
		contract.mutex.Unlock()
	}
	observerCore, observedLogs := observer.New(zapcore.WarnLevel)
	client := newBoundClient(testInstance, contract, zap.New(observerCore))

	opened, openError := client.OpenPullRequest(context.Background(), 0, testForkAddressConstant)
	require.NoError(testInstance, openError)
	require.Equal(testInstance, uint64(2), opened.ID)
	require.Equal(testInstance, 1, observedLogs.Len())
}

func TestIsZeroAddress(testInstance *testing.T) {
	testCases := []struct {
		address  string
		expected bool
	}{
		{address: ledger.ZeroAddress, expected: true},
		{address: "0x0", expected: true},
		{address: "", expected: true},
		{address: testForkAddressConstant, expected: false},
		{address: "0x0000000000000000000000000000000000000001", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.address, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, ledger.IsZeroAddress(testCase.address))
		})
	}
}
