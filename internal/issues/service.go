// Package issues lists, shows, creates, edits and deletes repository issues.
//
// Issue bodies live in the content store; the ledger keeps one content hash
// per dense issue id. Deleting an issue clears its hash but keeps the id.
package issues

import (
	"context"
	"errors"

	"github.com/temirov/mango/internal/contentstore"
	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/shared"
)

const (
	issueLineTemplate        = "Issue #%d -> %s\n"
	newIssueLineTemplate     = "[new] Issue #%d -> %s\n"
	editedIssueLineTemplate  = "[edit] Issue #%d -> %s\n"
	deletedIssueLineTemplate = "[delete] Issue #%d\n"
	issueBodyTemplate        = "%s\n"
	ledgerMissingMessage     = "issue service requires a ledger client"
	contentMissingMessage    = "issue service requires a content store"
	editorMissingMessage     = "issue service requires an editor"
	scratchMissingMessage    = "issue service requires a scratch file locator"
)

var (
	// ErrLedgerNotConfigured indicates the service was built without a ledger client.
	ErrLedgerNotConfigured = errors.New(ledgerMissingMessage)
	// ErrContentStoreNotConfigured indicates an operation needing issue bodies without a content store.
	ErrContentStoreNotConfigured = errors.New(contentMissingMessage)
	// ErrEditorNotConfigured indicates an editing operation without an editor.
	ErrEditorNotConfigured = errors.New(editorMissingMessage)
	// ErrScratchLocatorNotConfigured indicates an editing operation without scratch paths.
	ErrScratchLocatorNotConfigured = errors.New(scratchMissingMessage)
)

// IssueLedger is the ledger surface used for issues.
type IssueLedger interface {
	IssueCount(executionContext context.Context) (uint64, error)
	Issues(executionContext context.Context) ([]ledger.Issue, error)
	GetIssue(executionContext context.Context, issueID uint64) (string, error)
	NewIssue(executionContext context.Context, contentHash string) (string, error)
	SetIssue(executionContext context.Context, issueID uint64, contentHash string) (string, error)
	DeleteIssue(executionContext context.Context, issueID uint64) (uint64, error)
}

// Editor lets the user change a scratch file and returns what was saved.
type Editor interface {
	Edit(executionContext context.Context, scratchPath string, initialContent []byte) ([]byte, error)
}

// ScratchLocator names the scratch file used while editing an issue.
type ScratchLocator interface {
	IssueScratchPath(issueID uint64) string
}

// Dependencies enumerates collaborators of the Service.
type Dependencies struct {
	Ledger   IssueLedger
	Content  contentstore.Store
	Editor   Editor
	Scratch  ScratchLocator
	Reporter shared.Reporter
}

// Service implements the issue commands.
type Service struct {
	dependencies Dependencies
}

// NewService validates dependencies and constructs a Service. Content, editor and scratch
// collaborators are checked by the operations that need them.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Ledger == nil {
		return nil, ErrLedgerNotConfigured
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	return &Service{dependencies: dependencies}, nil
}

// List prints every live issue with its content hash.
func (service *Service) List(executionContext context.Context) error {
	issues, issuesError := service.dependencies.Ledger.Issues(executionContext)
	if issuesError != nil {
		return issuesError
	}
	for _, issue := range issues {
		if issue.Tombstoned() {
			continue
		}
		service.dependencies.Reporter.Printf(issueLineTemplate, issue.ID, issue.ContentHash)
	}
	return nil
}

// Show prints the body of an issue.
func (service *Service) Show(executionContext context.Context, issueID uint64) error {
	if service.dependencies.Content == nil {
		return ErrContentStoreNotConfigured
	}

	issueBody, bodyError := service.fetchBody(executionContext, issueID)
	if bodyError != nil {
		return bodyError
	}
	service.dependencies.Reporter.Printf(issueBodyTemplate, string(issueBody))
	return nil
}

// Create opens the editor on a new scratch file, stores the result, and records it as the next issue.
// The new id equals the issue count read before the write.
func (service *Service) Create(executionContext context.Context) (uint64, error) {
	if editingError := service.requireEditing(); editingError != nil {
		return 0, editingError
	}

	issueID, countError := service.dependencies.Ledger.IssueCount(executionContext)
	if countError != nil {
		return 0, countError
	}

	contentHash, storeError := service.editAndStore(executionContext, issueID, nil)
	if storeError != nil {
		return 0, storeError
	}

	recordedHash, recordError := service.dependencies.Ledger.NewIssue(executionContext, contentHash)
	if recordError != nil {
		return 0, recordError
	}
	service.dependencies.Reporter.Printf(newIssueLineTemplate, issueID, recordedHash)
	return issueID, nil
}

// Edit opens the editor on the current body of an issue and records the saved result.
func (service *Service) Edit(executionContext context.Context, issueID uint64) error {
	if editingError := service.requireEditing(); editingError != nil {
		return editingError
	}

	currentBody, bodyError := service.fetchBody(executionContext, issueID)
	if bodyError != nil {
		return bodyError
	}

	contentHash, storeError := service.editAndStore(executionContext, issueID, currentBody)
	if storeError != nil {
		return storeError
	}

	recordedHash, recordError := service.dependencies.Ledger.SetIssue(executionContext, issueID, contentHash)
	if recordError != nil {
		return recordError
	}
	service.dependencies.Reporter.Printf(editedIssueLineTemplate, issueID, recordedHash)
	return nil
}

// Delete tombstones an issue.
func (service *Service) Delete(executionContext context.Context, issueID uint64) error {
	deletedID, deleteError := service.dependencies.Ledger.DeleteIssue(executionContext, issueID)
	if deleteError != nil {
		return deleteError
	}
	service.dependencies.Reporter.Printf(deletedIssueLineTemplate, deletedID)
	return nil
}

func (service *Service) fetchBody(executionContext context.Context, issueID uint64) ([]byte, error) {
	contentHash, hashError := service.dependencies.Ledger.GetIssue(executionContext, issueID)
	if hashError != nil {
		return nil, hashError
	}
	return service.dependencies.Content.Get(executionContext, contentHash)
}

func (service *Service) editAndStore(executionContext context.Context, issueID uint64, initialContent []byte) (string, error) {
	scratchPath := service.dependencies.Scratch.IssueScratchPath(issueID)
	editedContent, editError := service.dependencies.Editor.Edit(executionContext, scratchPath, initialContent)
	if editError != nil {
		return "", editError
	}
	return service.dependencies.Content.Put(executionContext, editedContent)
}

func (service *Service) requireEditing() error {
	switch {
	case service.dependencies.Content == nil:
		return ErrContentStoreNotConfigured
	case service.dependencies.Editor == nil:
		return ErrEditorNotConfigured
	case service.dependencies.Scratch == nil:
		return ErrScratchLocatorNotConfigured
	default:
		return nil
	}
}
