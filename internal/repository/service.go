// Package repository creates mango repositories and reports their ledger state.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/shared"
	"github.com/temirov/mango/internal/workspace"
)

const (
	creatingMessageTemplate      = "Creating new Mango repository with maintainer: %s\n"
	createdMessageTemplate       = "Mango repository created: %s\n"
	markerWrittenMessageTemplate = "Wrote contract address to %s/%s\n"
	repositoryMessageTemplate    = "Mango repository at %s\n"
	referenceMessageTemplate     = "Reference: %s -> %s\n"
	snapshotMessageTemplate      = "Snapshot #%d -> %s\n"
	markerErrorTemplateConstant  = "repository %s was deployed but the marker could not be written: %w"
	ledgerMissingMessage         = "repository service requires a ledger client"
	markerStoreMissingMessage    = "repository service requires a marker store"
)

var (
	// ErrLedgerNotConfigured indicates the service was built without a ledger client.
	ErrLedgerNotConfigured = errors.New(ledgerMissingMessage)
	// ErrMarkerStoreNotConfigured indicates the service was built without a marker store.
	ErrMarkerStoreNotConfigured = errors.New(markerStoreMissingMessage)
)

// RepositoryLedger is the ledger surface used for creating and inspecting repositories.
type RepositoryLedger interface {
	Init(executionContext context.Context) (string, error)
	LedgerAddress() string
	Refs(executionContext context.Context) ([]ledger.Ref, error)
	Snapshots(executionContext context.Context) ([]ledger.Snapshot, error)
}

// MarkerStore persists the ledger address inside the work tree.
type MarkerStore interface {
	WriteLedgerAddress(ledgerAddress string) error
}

// Dependencies enumerates collaborators of the Service.
type Dependencies struct {
	Ledger        RepositoryLedger
	Markers       MarkerStore
	Reporter      shared.Reporter
	SenderAccount string
}

// Service implements the init and status commands.
type Service struct {
	ledger        RepositoryLedger
	markers       MarkerStore
	reporter      shared.Reporter
	senderAccount string
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Ledger == nil {
		return nil, ErrLedgerNotConfigured
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	return &Service{
		ledger:        dependencies.Ledger,
		markers:       dependencies.Markers,
		reporter:      reporter,
		senderAccount: dependencies.SenderAccount,
	}, nil
}

// Init deploys a new repository and records its address in .mango/contract.
func (service *Service) Init(executionContext context.Context) (string, error) {
	if service.markers == nil {
		return "", ErrMarkerStoreNotConfigured
	}

	service.reporter.Printf(creatingMessageTemplate, service.senderAccount)
	ledgerAddress, initError := service.ledger.Init(executionContext)
	if initError != nil {
		return "", initError
	}
	service.reporter.Printf(createdMessageTemplate, ledgerAddress)

	if markerError := service.markers.WriteLedgerAddress(ledgerAddress); markerError != nil {
		return "", fmt.Errorf(markerErrorTemplateConstant, ledgerAddress, markerError)
	}
	service.reporter.Printf(markerWrittenMessageTemplate, workspace.MetadataDirectoryName, workspace.ContractFileName)
	return ledgerAddress, nil
}

// Status prints the repository address followed by its refs and snapshots.
func (service *Service) Status(executionContext context.Context) error {
	service.reporter.Printf(repositoryMessageTemplate, service.ledger.LedgerAddress())

	refs, refsError := service.ledger.Refs(executionContext)
	if refsError != nil {
		return refsError
	}
	for _, ref := range refs {
		service.reporter.Printf(referenceMessageTemplate, ref.Name, ref.Target)
	}

	snapshots, snapshotsError := service.ledger.Snapshots(executionContext)
	if snapshotsError != nil {
		return snapshotsError
	}
	for _, snapshot := range snapshots {
		service.reporter.Printf(snapshotMessageTemplate, snapshot.Index, snapshot.Value)
	}
	return nil
}
