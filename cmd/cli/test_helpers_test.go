package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/mango/cmd/cli"
	"github.com/temirov/mango/internal/execshell"
	"github.com/temirov/mango/internal/ledger"
)

const (
	testWorkTreeConstant       = "/work/repo"
	testSenderAccountConstant  = "0x00000000000000000000000000000000000000a1"
	testTransactionHashPattern = "0x%064x"
	testDeployedAddressPattern = "0x%040x"
	testWriteGasUsedConstant   = 21000
	testDefaultRefNameConstant = "master"
	testDefaultRefTarget       = "0x0000000000000000000000000000000000000000000000000000000000000abc"
)

// memoryLedger deploys and binds in-memory repository contracts.
type memoryLedger struct {
	mutex     sync.Mutex
	accounts  []string
	contracts map[string]*memoryContract
	deployed  []string
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{accounts: []string{testSenderAccountConstant}, contracts: map[string]*memoryContract{}}
}

func (memory *memoryLedger) Accounts(context.Context) ([]string, error) {
	return append([]string{}, memory.accounts...), nil
}

func (memory *memoryLedger) Deploy(_ context.Context, options ledger.TransactOptions) (string, error) {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	address := fmt.Sprintf(testDeployedAddressPattern, len(memory.deployed)+1)
	memory.contracts[address] = &memoryContract{
		maintainer: options.From,
		refNames:   []string{testDefaultRefNameConstant},
		refTargets: map[string]string{testDefaultRefNameConstant: testDefaultRefTarget},
	}
	memory.deployed = append(memory.deployed, address)
	return address, nil
}

func (memory *memoryLedger) Bind(ledgerAddress string) (ledger.Contract, error) {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	contract, exists := memory.contracts[ledgerAddress]
	if !exists {
		return nil, fmt.Errorf("no contract at %s", ledgerAddress)
	}
	return contract, nil
}

func (memory *memoryLedger) contract(testInstance *testing.T, ledgerAddress string) *memoryContract {
	testInstance.Helper()
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	contract, exists := memory.contracts[ledgerAddress]
	require.True(testInstance, exists)
	return contract
}

type memoryContract struct {
	mutex        sync.Mutex
	maintainer   string
	refNames     []string
	refTargets   map[string]string
	snapshots    []string
	issues       []string
	pullRequests []string
	writes       int
}

func (contract *memoryContract) receipt(options ledger.TransactOptions) ledger.WriteReceipt {
	contract.writes++
	return ledger.WriteReceipt{
		TransactionHash: fmt.Sprintf(testTransactionHashPattern, contract.writes),
		GasUsed:         testWriteGasUsedConstant,
		GasLimit:        options.GasLimit,
	}
}

func (contract *memoryContract) RefCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.refNames)), nil
}

func (contract *memoryContract) RefName(_ context.Context, index uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.refNames[index], nil
}

func (contract *memoryContract) GetRef(_ context.Context, name string) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.refTargets[name], nil
}

func (contract *memoryContract) SnapshotCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.snapshots)), nil
}

func (contract *memoryContract) GetSnapshot(_ context.Context, index uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.snapshots[index], nil
}

func (contract *memoryContract) IssueCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.issues)), nil
}

func (contract *memoryContract) GetIssue(_ context.Context, issueID uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.issues[issueID], nil
}

func (contract *memoryContract) NewIssue(_ context.Context, options ledger.TransactOptions, contentHash string) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.issues = append(contract.issues, contentHash)
	return contract.receipt(options), nil
}

func (contract *memoryContract) SetIssue(_ context.Context, options ledger.TransactOptions, issueID uint64, contentHash string) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.issues[issueID] = contentHash
	return contract.receipt(options), nil
}

func (contract *memoryContract) DeleteIssue(_ context.Context, options ledger.TransactOptions, issueID uint64) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.issues[issueID] = ""
	return contract.receipt(options), nil
}

func (contract *memoryContract) PullRequestCount(context.Context) (uint64, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return uint64(len(contract.pullRequests)), nil
}

func (contract *memoryContract) GetPullRequest(_ context.Context, pullRequestID uint64) (string, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	return contract.pullRequests[pullRequestID], nil
}

func (contract *memoryContract) OpenPullRequest(_ context.Context, options ledger.TransactOptions, _ uint64, forkAddress string) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.pullRequests = append(contract.pullRequests, forkAddress)
	return contract.receipt(options), nil
}

func (contract *memoryContract) ClosePullRequest(_ context.Context, options ledger.TransactOptions, pullRequestID uint64) (ledger.WriteReceipt, error) {
	contract.mutex.Lock()
	defer contract.mutex.Unlock()
	contract.pullRequests[pullRequestID] = ledger.ZeroAddress
	return contract.receipt(options), nil
}

// scriptedEditorExecutor plays the editor: it records the scratch file it was given and overwrites it.
type scriptedEditorExecutor struct {
	fileSystem      afero.Fs
	savedContent    string
	exitCode        int
	scratchPaths    []string
	initialContents []string
}

func (executor *scriptedEditorExecutor) ExecuteInteractive(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	arguments := command.Details.Arguments
	scratchPath := arguments[len(arguments)-1]
	executor.scratchPaths = append(executor.scratchPaths, scratchPath)

	initialContent, readError := afero.ReadFile(executor.fileSystem, scratchPath)
	if readError != nil {
		return execshell.ExecutionResult{}, readError
	}
	executor.initialContents = append(executor.initialContents, string(initialContent))

	if executor.exitCode != 0 {
		result := execshell.ExecutionResult{ExitCode: executor.exitCode}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}
	if writeError := afero.WriteFile(executor.fileSystem, scratchPath, []byte(executor.savedContent), 0o600); writeError != nil {
		return execshell.ExecutionResult{}, writeError
	}
	return execshell.ExecutionResult{}, nil
}

type recordedGitCommand struct {
	arguments        []string
	workingDirectory string
}

type recordingGitExecutor struct {
	commands    []recordedGitCommand
	failures    map[string]error
	exitCodes   map[string]int
	stdoutByArg map[string]string
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, recordedGitCommand{
		arguments:        append([]string{}, details.Arguments...),
		workingDirectory: details.WorkingDirectory,
	})
	joinedArguments := strings.Join(details.Arguments, " ")
	if failure, exists := executor.failures[joinedArguments]; exists {
		return execshell.ExecutionResult{}, failure
	}
	result := execshell.ExecutionResult{StandardOutput: executor.stdoutByArg[joinedArguments], ExitCode: executor.exitCodes[joinedArguments]}
	if !details.ExpectsExitCode(result.ExitCode) {
		command := execshell.ShellCommand{Name: execshell.CommandGit, Details: details}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}
	return result, nil
}

func (executor *recordingGitExecutor) joinedCommands() []string {
	joined := make([]string, 0, len(executor.commands))
	for _, command := range executor.commands {
		joined = append(joined, strings.Join(command.arguments, " "))
	}
	return joined
}

// newGitWorkTree creates an in-memory work tree containing a .git directory.
func newGitWorkTree(testInstance *testing.T) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(testWorkTreeConstant, ".git"), 0o755))
	return fileSystem
}

// runApplication executes one command line against a fresh application and returns its standard output.
func runApplication(testInstance *testing.T, applicationDependencies cli.ApplicationDependencies, arguments ...string) (string, error) {
	testInstance.Helper()
	if len(applicationDependencies.WorkingDirectory) == 0 {
		applicationDependencies.WorkingDirectory = testWorkTreeConstant
	}

	application, creationError := cli.NewApplicationWithDependencies(applicationDependencies)
	require.NoError(testInstance, creationError)

	output := &bytes.Buffer{}
	rootCommand := application.RootCommand()
	rootCommand.SetOut(output)
	rootCommand.SetErr(&bytes.Buffer{})
	rootCommand.SetArgs(append([]string{"--log-level", "error"}, arguments...))

	executionError := rootCommand.Execute()
	return output.String(), executionError
}
