// Package workspace describes the on-disk layout mango relies on inside a git work tree.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	// MetadataDirectoryName is the directory holding mango state inside the work tree.
	MetadataDirectoryName = ".mango"
	// ContractFileName is the marker file holding the ledger address.
	ContractFileName = "contract"
	// IssuesDirectoryName holds issue scratch files while they are being edited.
	IssuesDirectoryName = "issues"
	// GitDirectoryName marks a git work tree.
	GitDirectoryName = ".git"

	issueScratchFileExtensionConstant    = ".txt"
	metadataDirectoryPermissionsConstant = 0o755
	markerFilePermissionsConstant        = 0o644
	markerReadErrorTemplateConstant      = "unable to read %s: %w"
	markerWriteErrorTemplateConstant     = "unable to write %s: %w"
	directoryCreateErrorTemplateConstant = "unable to create %s: %w"
	emptyLedgerAddressMessageConstant    = "ledger address must not be empty"
	preconditionErrorTemplateConstant    = "%s: %s not found"
)

// Requirement names a precondition a command checks before touching anything.
type Requirement string

// Known requirements.
const (
	RequirementGitRepository   Requirement = "not a git repository"
	RequirementMangoRepository Requirement = "not a mango repository (run init first)"
)

// ErrEmptyLedgerAddress indicates an attempt to persist a blank marker.
var ErrEmptyLedgerAddress = errors.New(emptyLedgerAddressMessageConstant)

// PreconditionError reports that the work tree is not in the state a command requires.
type PreconditionError struct {
	Requirement Requirement
	Path        string
}

// Error describes the unmet requirement.
func (preconditionError PreconditionError) Error() string {
	return fmt.Sprintf(preconditionErrorTemplateConstant, preconditionError.Requirement, preconditionError.Path)
}

// Workspace resolves mango paths relative to a work tree root.
type Workspace struct {
	fileSystem afero.Fs
	root       string
}

// New constructs a Workspace rooted at the provided directory.
func New(fileSystem afero.Fs, root string) *Workspace {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Workspace{fileSystem: fileSystem, root: filepath.Clean(root)}
}

// Root returns the work tree root.
func (workspace *Workspace) Root() string {
	return workspace.root
}

// MetadataDirectory returns the absolute path of the .mango directory.
func (workspace *Workspace) MetadataDirectory() string {
	return filepath.Join(workspace.root, MetadataDirectoryName)
}

// ContractFilePath returns the marker file path.
func (workspace *Workspace) ContractFilePath() string {
	return filepath.Join(workspace.MetadataDirectory(), ContractFileName)
}

// IssuesDirectory returns the scratch directory for issue bodies.
func (workspace *Workspace) IssuesDirectory() string {
	return filepath.Join(workspace.MetadataDirectory(), IssuesDirectoryName)
}

// IssueScratchPath returns the scratch file used while editing the given issue.
func (workspace *Workspace) IssueScratchPath(issueID uint64) string {
	return filepath.Join(workspace.IssuesDirectory(), strconv.FormatUint(issueID, 10)+issueScratchFileExtensionConstant)
}

// EnsureGitRepository verifies that the root is a git work tree. A .git file (linked work tree) is accepted.
func (workspace *Workspace) EnsureGitRepository() error {
	gitPath := filepath.Join(workspace.root, GitDirectoryName)
	exists, statError := afero.Exists(workspace.fileSystem, gitPath)
	if statError != nil || !exists {
		return PreconditionError{Requirement: RequirementGitRepository, Path: gitPath}
	}
	return nil
}

// ReadLedgerAddress returns the trimmed ledger address stored in the marker file.
func (workspace *Workspace) ReadLedgerAddress() (string, error) {
	contractFilePath := workspace.ContractFilePath()
	contents, readError := afero.ReadFile(workspace.fileSystem, contractFilePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return "", PreconditionError{Requirement: RequirementMangoRepository, Path: contractFilePath}
		}
		return "", fmt.Errorf(markerReadErrorTemplateConstant, contractFilePath, readError)
	}

	ledgerAddress := strings.TrimSpace(string(contents))
	if len(ledgerAddress) == 0 {
		return "", PreconditionError{Requirement: RequirementMangoRepository, Path: contractFilePath}
	}
	return ledgerAddress, nil
}

// WriteLedgerAddress records the ledger address and prepares the issues scratch directory.
func (workspace *Workspace) WriteLedgerAddress(ledgerAddress string) error {
	trimmedAddress := strings.TrimSpace(ledgerAddress)
	if len(trimmedAddress) == 0 {
		return ErrEmptyLedgerAddress
	}

	issuesDirectory := workspace.IssuesDirectory()
	if mkdirError := workspace.fileSystem.MkdirAll(issuesDirectory, metadataDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(directoryCreateErrorTemplateConstant, issuesDirectory, mkdirError)
	}

	contractFilePath := workspace.ContractFilePath()
	if writeError := afero.WriteFile(workspace.fileSystem, contractFilePath, []byte(trimmedAddress), markerFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(markerWriteErrorTemplateConstant, contractFilePath, writeError)
	}
	return nil
}
