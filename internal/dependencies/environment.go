package dependencies

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/contentstore"
	"github.com/temirov/mango/internal/editor"
	"github.com/temirov/mango/internal/execshell"
	"github.com/temirov/mango/internal/forkmerge"
	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/shared"
	"github.com/temirov/mango/internal/ui"
	"github.com/temirov/mango/internal/utils"
	"github.com/temirov/mango/internal/workspace"
)

const (
	logMessageRepositoryOpenedConstant = "repository session opened"
	logFieldRepositoryConstant         = "repository"
	logFieldWorkTreeConstant           = "work_tree"
	logFieldSenderConstant             = "sender"
	logFieldConfigurationFileConstant  = "config_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved repository configuration.
type ConfigurationProvider func() Configuration

// CommandEnvironment carries the collaborators repository commands share.
// Nil collaborators are replaced by OS-backed defaults when first needed.
type CommandEnvironment struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	InteractiveExecutor   shared.InteractiveExecutor
	LedgerConnection      ledger.Connection
	ContentStore          contentstore.Store
	WorkingDirectory      string
}

// RepositoryRequest states what a command needs from its repository session.
type RepositoryRequest struct {
	// Initializing skips the .mango/contract precondition and leaves the client unbound.
	Initializing bool
	// Writes resolves a sender account for state-changing calls.
	Writes bool
}

// RepositorySession is the per-command view of one mango repository.
type RepositorySession struct {
	Workspace *workspace.Workspace
	Handle    shared.RepositoryHandle
	Client    *ledger.Client
	release   func()
}

// Close releases the ledger connection opened for the session.
func (session *RepositorySession) Close() {
	if session == nil || session.release == nil {
		return
	}
	session.release()
}

// Logger returns the diagnostic logger or a no-op logger.
func (environment CommandEnvironment) Logger() *zap.Logger {
	if environment.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := environment.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Configuration returns the provided configuration or the defaults.
func (environment CommandEnvironment) Configuration() Configuration {
	if environment.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return environment.ConfigurationProvider()
}

// FileSystemOrDefault returns the configured filesystem or the OS filesystem.
func (environment CommandEnvironment) FileSystemOrDefault() afero.Fs {
	return ResolveFileSystem(environment.FileSystem)
}

// Reporter writes command results to the provided output.
func (environment CommandEnvironment) Reporter(output io.Writer) shared.Reporter {
	return shared.NewWriterReporter(output)
}

// Workspace locates the work tree: the explicit working directory, then the one recorded on the context, then the process directory.
func (environment CommandEnvironment) Workspace(executionContext context.Context) (*workspace.Workspace, error) {
	workingDirectory := strings.TrimSpace(environment.WorkingDirectory)
	if len(workingDirectory) == 0 && executionContext != nil {
		if contextDirectory, found := utils.NewCommandContextAccessor().WorkingDirectory(executionContext); found {
			workingDirectory = contextDirectory
		}
	}
	if len(workingDirectory) == 0 {
		processDirectory, directoryError := os.Getwd()
		if directoryError != nil {
			return nil, directoryError
		}
		workingDirectory = processDirectory
	}
	return workspace.New(environment.FileSystemOrDefault(), workingDirectory), nil
}

// CheckedWorkspace returns the workspace after verifying it is a git work tree holding a mango repository.
func (environment CommandEnvironment) CheckedWorkspace(executionContext context.Context) (*workspace.Workspace, error) {
	repositoryWorkspace, workspaceError := environment.Workspace(executionContext)
	if workspaceError != nil {
		return nil, workspaceError
	}
	if gitError := repositoryWorkspace.EnsureGitRepository(); gitError != nil {
		return nil, gitError
	}
	if _, markerError := repositoryWorkspace.ReadLedgerAddress(); markerError != nil {
		return nil, markerError
	}
	return repositoryWorkspace, nil
}

// GitExecutorOrDefault returns the configured git executor or a shell-backed one.
func (environment CommandEnvironment) GitExecutorOrDefault() (shared.GitExecutor, error) {
	return ResolveGitExecutor(environment.GitExecutor, environment.Logger(), environment.commandEventsObserver())
}

// ContentStoreOrDefault returns the configured store or the backend named in configuration.
func (environment CommandEnvironment) ContentStoreOrDefault() (contentstore.Store, error) {
	return ResolveContentStore(environment.ContentStore, environment.Configuration().Content, environment.FileSystem, environment.Logger())
}

// EditorSession builds an edit session using the configured editor command.
func (environment CommandEnvironment) EditorSession() (*editor.Session, error) {
	interactiveExecutor, executorError := ResolveInteractiveExecutor(environment.InteractiveExecutor, environment.Logger(), environment.commandEventsObserver())
	if executorError != nil {
		return nil, executorError
	}
	return editor.NewSession(environment.Configuration().Editor.Command, editor.SessionDependencies{
		FileSystem: environment.FileSystemOrDefault(),
		Executor:   interactiveExecutor,
		Logger:     environment.Logger(),
	})
}

// ForkCoordinator builds the fork and merge coordinator from the fork and merge settings.
func (environment CommandEnvironment) ForkCoordinator() (*forkmerge.Coordinator, error) {
	gitExecutor, executorError := environment.GitExecutorOrDefault()
	if executorError != nil {
		return nil, executorError
	}
	configuration := environment.Configuration()
	return forkmerge.NewCoordinator(
		forkmerge.Dependencies{
			FileSystem:  environment.FileSystemOrDefault(),
			GitExecutor: gitExecutor,
			Logger:      environment.Logger(),
		},
		forkmerge.Options{
			Exclusions: configuration.Fork.Exclude,
			RemoteName: configuration.Merge.Remote,
			BranchName: configuration.Merge.Branch,
		},
	)
}

// OpenRepository checks preconditions, connects to the ledger, and builds a client for the work tree's repository.
func (environment CommandEnvironment) OpenRepository(executionContext context.Context, request RepositoryRequest) (*RepositorySession, error) {
	repositoryWorkspace, workspaceError := environment.Workspace(executionContext)
	if workspaceError != nil {
		return nil, workspaceError
	}
	if gitError := repositoryWorkspace.EnsureGitRepository(); gitError != nil {
		return nil, gitError
	}

	ledgerAddress := ""
	if !request.Initializing {
		markerAddress, markerError := repositoryWorkspace.ReadLedgerAddress()
		if markerError != nil {
			return nil, markerError
		}
		ledgerAddress = markerAddress
	}

	logger := environment.Logger()
	ledgerConfiguration := environment.Configuration().Ledger
	connection, endpoint, release, connectionError := ResolveLedgerConnection(executionContext, environment.LedgerConnection, ledgerConfiguration, environment.FileSystem, logger)
	if connectionError != nil {
		return nil, connectionError
	}

	senderAccount := strings.TrimSpace(ledgerConfiguration.Account)
	if request.Writes {
		resolvedAccount, accountError := ledger.ResolveSenderAccount(executionContext, connection, ledgerConfiguration.Account)
		if accountError != nil {
			release()
			return nil, accountError
		}
		senderAccount = resolvedAccount
	}

	client, clientError := ledger.NewClient(
		ledger.ClientDependencies{Connection: connection, Logger: logger},
		ledger.ClientOptions{
			LedgerAddress:      ledgerAddress,
			SenderAccount:      senderAccount,
			WriteGasLimit:      ledgerConfiguration.WriteGasLimit,
			DeploymentGasLimit: ledgerConfiguration.DeploymentGasLimit,
			MaximumEntries:     ledgerConfiguration.MaxEntries,
		},
	)
	if clientError != nil {
		release()
		return nil, clientError
	}

	handle := shared.RepositoryHandle{LedgerAddress: ledgerAddress, SenderAccount: senderAccount, Endpoint: endpoint}
	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(executionContext)
	logger.Debug(logMessageRepositoryOpenedConstant,
		zap.String(logFieldRepositoryConstant, handle.String()),
		zap.String(logFieldWorkTreeConstant, repositoryWorkspace.Root()),
		zap.String(logFieldSenderConstant, senderAccount),
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)

	return &RepositorySession{Workspace: repositoryWorkspace, Handle: handle, Client: client, release: release}, nil
}

func (environment CommandEnvironment) commandEventsObserver() execshell.CommandEventObserver {
	if environment.ConsoleLoggerProvider == nil {
		return nil
	}
	consoleLogger := environment.ConsoleLoggerProvider()
	if consoleLogger == nil {
		return nil
	}
	return ui.NewCommandEventConsole(consoleLogger)
}
