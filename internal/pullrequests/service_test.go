package pullrequests_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/pullrequests"
	"github.com/temirov/mango/internal/shared"
)

const (
	testForkAddressConstant  = "0x1111111111111111111111111111111111111111"
	testOtherForkConstant    = "0x2222222222222222222222222222222222222222"
	testInvalidForkConstant  = "not-an-address"
	testRejectedCallConstant = "openPullRequest"
)

type memoryPullRequestLedger struct {
	forks      []string
	writeError error
}

func (memory *memoryPullRequestLedger) PullRequests(executionContext context.Context) ([]ledger.PullRequest, error) {
	pullRequests := make([]ledger.PullRequest, 0, len(memory.forks))
	for index, forkAddress := range memory.forks {
		if ledger.IsZeroAddress(forkAddress) {
			continue
		}
		pullRequests = append(pullRequests, ledger.PullRequest{ID: uint64(index), ForkAddress: forkAddress})
	}
	return pullRequests, nil
}

func (memory *memoryPullRequestLedger) GetPullRequest(executionContext context.Context, pullRequestID uint64) (string, error) {
	if pullRequestID >= uint64(len(memory.forks)) {
		return "", ledger.NotFoundError{Entity: ledger.EntityPullRequest, ID: pullRequestID}
	}
	return memory.forks[pullRequestID], nil
}

func (memory *memoryPullRequestLedger) OpenPullRequest(executionContext context.Context, issueID uint64, forkAddress string) (ledger.PullRequest, error) {
	if memory.writeError != nil {
		return ledger.PullRequest{}, memory.writeError
	}
	memory.forks = append(memory.forks, forkAddress)
	return ledger.PullRequest{ID: uint64(len(memory.forks) - 1), IssueID: issueID, ForkAddress: forkAddress}, nil
}

func (memory *memoryPullRequestLedger) ClosePullRequest(executionContext context.Context, pullRequestID uint64) (uint64, error) {
	if memory.writeError != nil {
		return 0, memory.writeError
	}
	if pullRequestID < uint64(len(memory.forks)) {
		memory.forks[pullRequestID] = ledger.ZeroAddress
	}
	return pullRequestID, nil
}

func newTestService(testInstance *testing.T, memory *memoryPullRequestLedger) (*pullrequests.Service, *bytes.Buffer) {
	testInstance.Helper()
	output := &bytes.Buffer{}
	service, creationError := pullrequests.NewService(pullrequests.Dependencies{
		Ledger:   memory,
		Reporter: shared.NewWriterReporter(output),
	})
	require.NoError(testInstance, creationError)
	return service, output
}

func TestServiceOpen(testInstance *testing.T) {
	testCases := []struct {
		name           string
		existingForks  []string
		writeError     error
		expectedID     uint64
		expectedOutput string
		expectError    bool
	}{
		{
			name:           "next_id_follows_count",
			existingForks:  []string{testOtherForkConstant, ledger.ZeroAddress, testOtherForkConstant, testOtherForkConstant, testOtherForkConstant},
			expectedID:     5,
			expectedOutput: "[opened] Pull Request #5 for issue #2 -> " + testForkAddressConstant + "\n",
		},
		{
			name:           "first_pull_request",
			expectedID:     0,
			expectedOutput: "[opened] Pull Request #0 for issue #2 -> " + testForkAddressConstant + "\n",
		},
		{
			name:        "rejected_write",
			writeError:  ledger.TransactionFailedError{Operation: testRejectedCallConstant, GasLimit: ledger.DefaultWriteGasLimit},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			memory := &memoryPullRequestLedger{forks: append([]string{}, testCase.existingForks...), writeError: testCase.writeError}
			service, output := newTestService(testInstance, memory)

			pullRequest, openError := service.Open(context.Background(), 2, testForkAddressConstant)
			if testCase.expectError {
				require.ErrorAs(testInstance, openError, &ledger.TransactionFailedError{})
				require.Empty(testInstance, output.String())
				return
			}
			require.NoError(testInstance, openError)
			require.Equal(testInstance, testCase.expectedID, pullRequest.ID)
			require.Equal(testInstance, uint64(2), pullRequest.IssueID)
			require.Equal(testInstance, testCase.expectedOutput, output.String())
		})
	}
}

func TestServiceOpenPropagatesInvalidFork(testInstance *testing.T) {
	memory := &memoryPullRequestLedger{writeError: ledger.OperationError{Operation: testRejectedCallConstant}}
	service, _ := newTestService(testInstance, memory)

	_, openError := service.Open(context.Background(), 0, testInvalidForkConstant)
	require.ErrorAs(testInstance, openError, &ledger.OperationError{})
}

func TestServiceListSkipsClosed(testInstance *testing.T) {
	memory := &memoryPullRequestLedger{forks: []string{testForkAddressConstant, ledger.ZeroAddress, testOtherForkConstant}}
	service, output := newTestService(testInstance, memory)

	require.NoError(testInstance, service.List(context.Background()))
	require.Equal(testInstance,
		"Pull Request #0 -> "+testForkAddressConstant+"\nPull Request #2 -> "+testOtherForkConstant+"\n",
		output.String(),
	)
}

func TestServiceShow(testInstance *testing.T) {
	testInstance.Run("closed_shows_zero_address", func(testInstance *testing.T) {
		memory := &memoryPullRequestLedger{forks: []string{ledger.ZeroAddress}}
		service, output := newTestService(testInstance, memory)

		require.NoError(testInstance, service.Show(context.Background(), 0))
		require.Equal(testInstance, "Pull Request #0 -> "+ledger.ZeroAddress+"\n", output.String())
	})

	testInstance.Run("out_of_range", func(testInstance *testing.T) {
		service, output := newTestService(testInstance, &memoryPullRequestLedger{})

		showError := service.Show(context.Background(), 7)
		require.ErrorAs(testInstance, showError, &ledger.NotFoundError{})
		require.Empty(testInstance, output.String())
	})
}

func TestServiceClose(testInstance *testing.T) {
	memory := &memoryPullRequestLedger{forks: []string{testForkAddressConstant}}
	service, output := newTestService(testInstance, memory)

	require.NoError(testInstance, service.Close(context.Background(), 0))
	require.Equal(testInstance, "[closed] Pull Request #0\n", output.String())
	require.Equal(testInstance, ledger.ZeroAddress, memory.forks[0])

	output.Reset()
	require.NoError(testInstance, service.Close(context.Background(), 0))
	require.Equal(testInstance, "[closed] Pull Request #0\n", output.String())
}

func TestNewServiceRequiresLedger(testInstance *testing.T) {
	_, creationError := pullrequests.NewService(pullrequests.Dependencies{})
	require.ErrorIs(testInstance, creationError, pullrequests.ErrLedgerNotConfigured)
}
