package ethereum

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/mango/internal/ledger"
)

const (
	testSenderConstant       = "0x627306090abaB3A6e1400e9345bC60c78a8BEf57"
	testForkAddressConstant  = "0xf17f52151EbEF6C7334FAD080c5704D77216b732"
	testArtifactPathConstant = "build/contracts/MangoRepo.json"
	testBytecodeConstant     = "0x6080604052"
	testArtifactConstant     = `{"contractName":"MangoRepo","bytecode":"0x6080604052"}`
	testFastPollInterval     = 5 * time.Millisecond
)

func dialFakeNode(testInstance *testing.T, node *fakeNode, options ConnectionOptions) *Connection {
	testInstance.Helper()
	endpointURL := node.start(testInstance)
	if options.ReceiptPollInterval == 0 {
		options.ReceiptPollInterval = testFastPollInterval
	}
	if options.FileSystem == nil {
		options.FileSystem = afero.NewMemMapFs()
	}
	connection, dialError := Dial(context.Background(), endpointURL, options)
	require.NoError(testInstance, dialError)
	testInstance.Cleanup(connection.Close)
	return connection
}

func artifactFileSystem(testInstance *testing.T) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testArtifactPathConstant, []byte(testArtifactConstant), 0o644))
	return fileSystem
}

func TestConnectionAccounts(testInstance *testing.T) {
	node := newFakeNode(testInstance)
	node.accounts = []common.Address{common.HexToAddress(testSenderConstant), common.HexToAddress(testForkAddressConstant)}
	connection := dialFakeNode(testInstance, node, ConnectionOptions{})

	accounts, accountsError := connection.Accounts(context.Background())
	require.NoError(testInstance, accountsError)
	require.Equal(testInstance, []string{testSenderConstant, testForkAddressConstant}, accounts)
}

func TestConnectionDeploy(testInstance *testing.T) {
	testInstance.Run("waits_for_receipt", func(testInstance *testing.T) {
		node := newFakeNode(testInstance)
		node.nullReceipts = 2
		connection := dialFakeNode(testInstance, node, ConnectionOptions{ArtifactPath: testArtifactPathConstant, FileSystem: artifactFileSystem(testInstance)})

		deployedAddress, deployError := connection.Deploy(context.Background(), ledger.TransactOptions{From: testSenderConstant, GasLimit: ledger.DefaultDeploymentGasLimit})
		require.NoError(testInstance, deployError)
		require.Equal(testInstance, common.HexToAddress(fakeNodeDeployedAddressConstant).Hex(), deployedAddress)

		sentTransactions := node.transactions()
		require.Len(testInstance, sentTransactions, 1)
		require.Nil(testInstance, sentTransactions[0].To)
		require.Equal(testInstance, hexutil.Uint64(ledger.DefaultDeploymentGasLimit), sentTransactions[0].Gas)
		require.Equal(testInstance, testBytecodeConstant, sentTransactions[0].Data.String())
	})

	testInstance.Run("missing_artifact", func(testInstance *testing.T) {
		node := newFakeNode(testInstance)
		connection := dialFakeNode(testInstance, node, ConnectionOptions{ArtifactPath: testArtifactPathConstant})

		_, deployError := connection.Deploy(context.Background(), ledger.TransactOptions{From: testSenderConstant, GasLimit: ledger.DefaultDeploymentGasLimit})
		require.ErrorAs(testInstance, deployError, &ArtifactNotFoundError{})
		require.Empty(testInstance, node.transactions())
	})

	testInstance.Run("artifact_without_bytecode", func(testInstance *testing.T) {
		node := newFakeNode(testInstance)
		fileSystem := afero.NewMemMapFs()
		require.NoError(testInstance, afero.WriteFile(fileSystem, testArtifactPathConstant, []byte(`{"abi":[]}`), 0o644))
		connection := dialFakeNode(testInstance, node, ConnectionOptions{ArtifactPath: testArtifactPathConstant, FileSystem: fileSystem})

		_, deployError := connection.Deploy(context.Background(), ledger.TransactOptions{From: testSenderConstant, GasLimit: ledger.DefaultDeploymentGasLimit})
		require.ErrorIs(testInstance, deployError, ErrArtifactWithoutBytecode)
		require.Contains(testInstance, deployError.Error(), testArtifactPathConstant)
		require.Empty(testInstance, node.transactions())
	})

	testInstance.Run("receipt_timeout", func(testInstance *testing.T) {
		node := newFakeNode(testInstance)
		node.withholdReceipts = true
		connection := dialFakeNode(testInstance, node, ConnectionOptions{
			ArtifactPath:   testArtifactPathConstant,
			FileSystem:     artifactFileSystem(testInstance),
			ReceiptTimeout: 50 * time.Millisecond,
		})

		_, deployError := connection.Deploy(context.Background(), ledger.TransactOptions{From: testSenderConstant, GasLimit: ledger.DefaultDeploymentGasLimit})
		require.ErrorAs(testInstance, deployError, &ReceiptTimeoutError{})
	})
}

func TestConnectionBindRejectsInvalidAddress(testInstance *testing.T) {
	connection := dialFakeNode(testInstance, newFakeNode(testInstance), ConnectionOptions{})

	_, bindError := connection.Bind("not-an-address")
	require.ErrorAs(testInstance, bindError, &InvalidAddressError{})
}

func TestClientOverJSONRPC(testInstance *testing.T) {
	node := newFakeNode(testInstance)
	node.nullReceipts = 1
	node.refNames = []string{"master", "feature"}
	node.refTargets = map[string]string{"master": "hash-master", "feature": "hash-feature"}
	node.snapshots = []string{"snapshot-0"}
	connection := dialFakeNode(testInstance, node, ConnectionOptions{})

	client, creationError := ledger.NewClient(
		ledger.ClientDependencies{Connection: connection},
		ledger.ClientOptions{LedgerAddress: fakeNodeDeployedAddressConstant, SenderAccount: testSenderConstant},
	)
	require.NoError(testInstance, creationError)
	executionContext := context.Background()

	refs, refsError := client.Refs(executionContext)
	require.NoError(testInstance, refsError)
	require.Equal(testInstance, []ledger.Ref{
		{Index: 0, Name: "master", Target: "hash-master"},
		{Index: 1, Name: "feature", Target: "hash-feature"},
	}, refs)

	snapshots, snapshotsError := client.Snapshots(executionContext)
	require.NoError(testInstance, snapshotsError)
	require.Equal(testInstance, []ledger.Snapshot{{Index: 0, Value: "snapshot-0"}}, snapshots)

	_, firstIssueError := client.NewIssue(executionContext, "hash-a")
	require.NoError(testInstance, firstIssueError)
	_, secondIssueError := client.NewIssue(executionContext, "hash-b")
	require.NoError(testInstance, secondIssueError)
	_, setError := client.SetIssue(executionContext, 0, "hash-a2")
	require.NoError(testInstance, setError)
	_, deleteError := client.DeleteIssue(executionContext, 1)
	require.NoError(testInstance, deleteError)

	issues, issuesError := client.Issues(executionContext)
	require.NoError(testInstance, issuesError)
	require.Equal(testInstance, []ledger.Issue{{ID: 0, ContentHash: "hash-a2"}, {ID: 1, ContentHash: ""}}, issues)

	_, deletedIssueError := client.GetIssue(executionContext, 1)
	require.ErrorAs(testInstance, deletedIssueError, &ledger.NotFoundError{})

	pullRequest, openError := client.OpenPullRequest(executionContext, 0, testForkAddressConstant)
	require.NoError(testInstance, openError)
	require.Equal(testInstance, ledger.PullRequest{ID: 0, IssueID: 0, ForkAddress: testForkAddressConstant}, pullRequest)

	forkAddress, getError := client.GetPullRequest(executionContext, 0)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, testForkAddressConstant, forkAddress)

	_, closeError := client.ClosePullRequest(executionContext, 0)
	require.NoError(testInstance, closeError)

	pullRequests, pullRequestsError := client.PullRequests(executionContext)
	require.NoError(testInstance, pullRequestsError)
	require.Empty(testInstance, pullRequests)

	closedAddress, closedError := client.GetPullRequest(executionContext, 0)
	require.NoError(testInstance, closedError)
	require.True(testInstance, ledger.IsZeroAddress(closedAddress))

	for _, sentTransaction := range node.transactions() {
		require.Equal(testInstance, hexutil.Uint64(ledger.DefaultWriteGasLimit), sentTransaction.Gas)
		require.Equal(testInstance, common.HexToAddress(testSenderConstant), sentTransaction.From)
	}
}

func TestClientOverJSONRPCGasExhaustion(testInstance *testing.T) {
	node := newFakeNode(testInstance)
	node.gasUsed = ledger.DefaultWriteGasLimit
	connection := dialFakeNode(testInstance, node, ConnectionOptions{})

	client, creationError := ledger.NewClient(
		ledger.ClientDependencies{Connection: connection},
		ledger.ClientOptions{LedgerAddress: fakeNodeDeployedAddressConstant, SenderAccount: testSenderConstant},
	)
	require.NoError(testInstance, creationError)

	_, writeError := client.NewIssue(context.Background(), "hash-a")
	require.ErrorAs(testInstance, writeError, &ledger.TransactionFailedError{})

	issueCount, countError := client.IssueCount(context.Background())
	require.NoError(testInstance, countError)
	require.Zero(testInstance, issueCount)
}

func TestLoadArtifact(testInstance *testing.T) {
	testCases := []struct {
		name             string
		contents         string
		expectedBytecode []byte
		expectError      bool
	}{
		{name: "bytecode_with_embedded_abi", contents: testArtifactConstant, expectedBytecode: []byte{0x60, 0x80, 0x60, 0x40, 0x52}},
		{name: "empty_bytecode", contents: `{"bytecode":"0x"}`},
		{name: "invalid_bytecode", contents: `{"bytecode":"0xzz"}`, expectError: true},
		{name: "invalid_json", contents: `{`, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			require.NoError(testInstance, afero.WriteFile(fileSystem, testArtifactPathConstant, []byte(testCase.contents), 0o644))

			artifact, loadError := LoadArtifact(fileSystem, testArtifactPathConstant)
			if testCase.expectError {
				require.Error(testInstance, loadError)
				return
			}
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedBytecode, artifact.Bytecode)
			_, hasMethod := artifact.ContractABI.Methods[contractMethodOpenPullRequest]
			require.True(testInstance, hasMethod)
		})
	}
}
