package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/temirov/mango/internal/execshell"
)

const (
	ledgerEndpointURLSchemeConstant             = "http://"
	minimumLedgerPortConstant                   = 1
	maximumLedgerPortConstant                   = 65535
	invalidLedgerHostMessageConstant            = "ledger host must not be empty"
	invalidLedgerPortTemplateConstant           = "ledger port %d is outside 1-65535"
	repositoryHandleDescriptionTemplateConstant = "%s at %s"
)

// ErrLedgerHostMissing indicates the ledger endpoint host was blank.
var ErrLedgerHostMissing = errors.New(invalidLedgerHostMessageConstant)

// InvalidLedgerPortError reports a port number outside the TCP range.
type InvalidLedgerPortError struct {
	Port int
}

// Error describes the invalid port.
func (portError InvalidLedgerPortError) Error() string {
	return fmt.Sprintf(invalidLedgerPortTemplateConstant, portError.Port)
}

// LedgerEndpoint identifies the JSON-RPC node that fronts the ledger.
type LedgerEndpoint struct {
	Host string
	Port int
}

// NewLedgerEndpoint validates the host and port of a ledger node.
func NewLedgerEndpoint(host string, port int) (LedgerEndpoint, error) {
	trimmedHost := strings.TrimSpace(host)
	if len(trimmedHost) == 0 {
		return LedgerEndpoint{}, ErrLedgerHostMissing
	}
	if port < minimumLedgerPortConstant || port > maximumLedgerPortConstant {
		return LedgerEndpoint{}, InvalidLedgerPortError{Port: port}
	}
	return LedgerEndpoint{Host: trimmedHost, Port: port}, nil
}

// URL renders the endpoint as an HTTP JSON-RPC URL.
func (endpoint LedgerEndpoint) URL() string {
	return ledgerEndpointURLSchemeConstant + net.JoinHostPort(endpoint.Host, strconv.Itoa(endpoint.Port))
}

// RepositoryHandle carries everything a single command needs to reach one mango repository.
// LedgerAddress is empty only while a repository is being initialized.
type RepositoryHandle struct {
	LedgerAddress string
	SenderAccount string
	Endpoint      LedgerEndpoint
}

// Bound reports whether the handle refers to an existing ledger contract.
func (handle RepositoryHandle) Bound() bool {
	return len(strings.TrimSpace(handle.LedgerAddress)) > 0
}

// String describes the handle for logs.
func (handle RepositoryHandle) String() string {
	return fmt.Sprintf(repositoryHandleDescriptionTemplateConstant, handle.LedgerAddress, handle.Endpoint.URL())
}

// GitExecutor exposes the subset of shell execution used by git-driven services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InteractiveExecutor runs commands attached to the controlling terminal.
type InteractiveExecutor interface {
	ExecuteInteractive(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}
