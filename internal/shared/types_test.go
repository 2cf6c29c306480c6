package shared_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/mango/internal/shared"
)

func TestNewLedgerEndpoint(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		host        string
		port        int
		expectedURL string
		expectError error
	}{
		{name: "default_node", host: "localhost", port: 8545, expectedURL: "http://localhost:8545"},
		{name: "trims_host", host: "  10.0.0.7 ", port: 7545, expectedURL: "http://10.0.0.7:7545"},
		{name: "ipv6_host", host: "::1", port: 8545, expectedURL: "http://[::1]:8545"},
		{name: "rejects_blank_host", host: " ", port: 8545, expectError: shared.ErrLedgerHostMissing},
		{name: "rejects_zero_port", host: "localhost", port: 0, expectError: shared.InvalidLedgerPortError{Port: 0}},
		{name: "rejects_large_port", host: "localhost", port: 70000, expectError: shared.InvalidLedgerPortError{Port: 70000}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			endpoint, err := shared.NewLedgerEndpoint(testCase.host, testCase.port)
			if testCase.expectError != nil {
				require.ErrorIs(t, err, testCase.expectError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, testCase.expectedURL, endpoint.URL())
		})
	}
}

func TestRepositoryHandleBound(t *testing.T) {
	t.Parallel()

	require.False(t, shared.RepositoryHandle{}.Bound())
	require.False(t, shared.RepositoryHandle{LedgerAddress: "  "}.Bound())
	require.True(t, shared.RepositoryHandle{LedgerAddress: "0xabc"}.Bound())
}

func TestWriterReporterPrintf(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	reporter := shared.NewWriterReporter(&output)
	reporter.Printf("Issue #%d -> %s\n", 3, "hash")
	require.Equal(t, "Issue #3 -> hash\n", output.String())
}

func TestParseIdentifier(testInstance *testing.T) {
	testCases := []struct {
		name          string
		value         string
		expectedID    uint64
		expectedError bool
	}{
		{name: "zero", value: "0", expectedID: 0},
		{name: "padded", value: " 42 ", expectedID: 42},
		{name: "negative", value: "-1", expectedError: true},
		{name: "not_a_number", value: "abc", expectedError: true},
		{name: "empty", value: "", expectedError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			identifier, parseError := shared.ParseIdentifier("issue id", testCase.value)
			if testCase.expectedError {
				var inputError shared.InvalidInputError
				require.ErrorAs(testInstance, parseError, &inputError)
				require.Equal(testInstance, testCase.value, inputError.Value)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedID, identifier)
		})
	}
}
