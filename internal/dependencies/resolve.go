package dependencies

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/contentstore"
	"github.com/temirov/mango/internal/contentstore/localfs"
	"github.com/temirov/mango/internal/contentstore/swarm"
	"github.com/temirov/mango/internal/execshell"
	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/ledger/ethereum"
	"github.com/temirov/mango/internal/shared"
	pathutils "github.com/temirov/mango/internal/utils/path"
)

const (
	unsupportedBackendTemplateConstant = "unsupported content backend %q (expected %s or %s)"
	localPathErrorTemplateConstant     = "invalid content.local_path: %w"
	artifactPathErrorTemplateConstant  = "invalid ledger.artifact: %w"
)

// UnsupportedContentBackendError reports an unknown content.backend value.
type UnsupportedContentBackendError struct {
	Backend string
}

// Error describes the unsupported backend.
func (backendError UnsupportedContentBackendError) Error() string {
	return fmt.Sprintf(unsupportedBackendTemplateConstant, backendError.Backend, ContentBackendSwarm, ContentBackendLocal)
}

var pathResolver = pathutils.NewPathResolver(nil)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(logger, observer)
}

// ResolveInteractiveExecutor returns the provided executor or constructs a terminal-attached default.
func ResolveInteractiveExecutor(existing shared.InteractiveExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.InteractiveExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(logger, observer)
}

// ResolveContentStore returns the provided store or builds the configured backend.
func ResolveContentStore(existing contentstore.Store, configuration ContentConfiguration, fileSystem afero.Fs, logger *zap.Logger) (contentstore.Store, error) {
	if existing != nil {
		return existing, nil
	}

	backend := strings.ToLower(strings.TrimSpace(configuration.Backend))
	switch backend {
	case "", ContentBackendSwarm:
		return swarm.NewClient(configuration.Gateway, swarm.ClientDependencies{Logger: logger})
	case ContentBackendLocal:
		localPath, resolveError := pathResolver.Resolve(configuration.LocalPath)
		if resolveError != nil {
			return nil, fmt.Errorf(localPathErrorTemplateConstant, resolveError)
		}
		return localfs.New(ResolveFileSystem(fileSystem), localPath, logger), nil
	default:
		return nil, UnsupportedContentBackendError{Backend: configuration.Backend}
	}
}

// ResolveLedgerConnection returns the provided connection or dials the configured node.
// The returned release function closes a dialed connection and is a no-op otherwise.
func ResolveLedgerConnection(executionContext context.Context, existing ledger.Connection, configuration LedgerConfiguration, fileSystem afero.Fs, logger *zap.Logger) (ledger.Connection, shared.LedgerEndpoint, func(), error) {
	endpoint, endpointError := shared.NewLedgerEndpoint(configuration.Host, configuration.Port)
	if endpointError != nil {
		return nil, shared.LedgerEndpoint{}, nil, endpointError
	}
	if existing != nil {
		return existing, endpoint, func() {}, nil
	}

	artifactPath := ""
	if len(strings.TrimSpace(configuration.Artifact)) > 0 {
		resolvedArtifactPath, resolveError := pathResolver.Resolve(configuration.Artifact)
		if resolveError != nil {
			return nil, shared.LedgerEndpoint{}, nil, fmt.Errorf(artifactPathErrorTemplateConstant, resolveError)
		}
		artifactPath = resolvedArtifactPath
	}

	connection, dialError := ethereum.Dial(executionContext, endpoint.URL(), ethereum.ConnectionOptions{
		ArtifactPath:        artifactPath,
		FileSystem:          ResolveFileSystem(fileSystem),
		ReceiptPollInterval: configuration.ReceiptPollInterval,
		ReceiptTimeout:      configuration.ReceiptTimeout,
		Logger:              logger,
	})
	if dialError != nil {
		return nil, shared.LedgerEndpoint{}, nil, dialError
	}
	return connection, endpoint, connection.Close, nil
}

func newShellExecutor(logger *zap.Logger, observer execshell.CommandEventObserver) (*execshell.ShellExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	if observer != nil {
		shellExecutor.SetObserver(observer)
	}
	return shellExecutor, nil
}
