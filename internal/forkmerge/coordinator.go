package forkmerge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/execshell"
	"github.com/temirov/mango/internal/shared"
	pathutils "github.com/temirov/mango/internal/utils/path"
	"github.com/temirov/mango/internal/workspace"
)

const (
	// DefaultRemoteName is the temporary remote used while merging a fork.
	DefaultRemoteName = "fork"
	// DefaultBranchName is the fork branch merged into the current branch.
	DefaultBranchName = "master"

	originRemoteNameConstant                 = "origin"
	mergeHeadReferenceConstant               = "MERGE_HEAD"
	missingReferenceExitCodeConstant         = 1
	mergeCommitMessageTemplateConstant       = "merged %s/%s"
	remoteBranchTemplateConstant             = "%s/%s"
	forkErrorTemplateConstant                = "fork to %s failed during %s: %s"
	mergeStepErrorTemplateConstant           = "merge step %s failed: %s"
	mergeStepErrorAfterTemplateConstant      = "merge step %s failed after %s: %s"
	completedStepsSeparatorConstant          = ", "
	unknownCauseMessageConstant              = "unknown error"
	destinationIsSourceMessageConstant       = "fork destination is the work tree itself"
	destinationContainsSourceMessageConstant = "fork destination contains the work tree"
	executorMissingMessageConstant           = "fork and merge require a git executor"
	logMessageForkCopiedConstant             = "work tree copied"
	logMessageMergeStepConstant              = "merge step completed"
	logMessageMergeAbortedConstant           = "in-progress merge aborted"
	logMessageRemoteRemovedConstant          = "temporary merge remote removed"
	logFieldSourceConstant                   = "source"
	logFieldDestinationConstant              = "destination"
	logFieldStepConstant                     = "step"
	logFieldRemoteConstant                   = "remote"
	logFieldCopiedEntriesConstant            = "copied_entries"

	gitSubcommandRemote   = "remote"
	gitSubcommandFetch    = "fetch"
	gitSubcommandMerge    = "merge"
	gitSubcommandReset    = "reset"
	gitSubcommandCheckout = "checkout"
	gitSubcommandCommit   = "commit"
	gitSubcommandRevParse = "rev-parse"
)

// ForkStage names the phase of Fork that failed.
type ForkStage string

// Fork stages.
const (
	ForkStageCopy         ForkStage = "copy"
	ForkStageRemoveOrigin ForkStage = "remove-origin"
)

// MergeStep names one ordered step of MergeFork.
type MergeStep string

// Merge steps in execution order.
const (
	MergeStepAddRemote       MergeStep = "add-remote"
	MergeStepFetch           MergeStep = "fetch"
	MergeStepMerge           MergeStep = "merge"
	MergeStepRestoreMetadata MergeStep = "restore-metadata"
	MergeStepCommit          MergeStep = "commit"
	MergeStepRemoveRemote    MergeStep = "remove-remote"
)

var (
	// ErrGitExecutorNotConfigured indicates the coordinator was built without a git executor.
	ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)
	// ErrDestinationIsSource indicates a fork into the work tree being forked.
	ErrDestinationIsSource = errors.New(destinationIsSourceMessageConstant)
	// ErrDestinationContainsSource indicates a fork destination that is an ancestor of the work tree.
	ErrDestinationContainsSource = errors.New(destinationContainsSourceMessageConstant)
)

// ForkError reports a failed fork. Partially copied files are left in place.
type ForkError struct {
	Destination string
	Stage       ForkStage
	Cause       error
}

// Error describes the failed fork.
func (forkError ForkError) Error() string {
	return fmt.Sprintf(forkErrorTemplateConstant, forkError.Destination, forkError.Stage, describeCause(forkError.Cause))
}

// Unwrap exposes the underlying cause.
func (forkError ForkError) Unwrap() error {
	return forkError.Cause
}

// MergeStepError reports the step that stopped a merge and the steps that had already run.
// The work tree may be left mid-merge; AbortMerge recovers it.
type MergeStepError struct {
	Step           MergeStep
	CompletedSteps []MergeStep
	Cause          error
}

// Error describes the failed step.
func (stepError MergeStepError) Error() string {
	if len(stepError.CompletedSteps) == 0 {
		return fmt.Sprintf(mergeStepErrorTemplateConstant, stepError.Step, describeCause(stepError.Cause))
	}
	completedNames := make([]string, 0, len(stepError.CompletedSteps))
	for _, completedStep := range stepError.CompletedSteps {
		completedNames = append(completedNames, string(completedStep))
	}
	return fmt.Sprintf(mergeStepErrorAfterTemplateConstant, stepError.Step, strings.Join(completedNames, completedStepsSeparatorConstant), describeCause(stepError.Cause))
}

// Unwrap exposes the underlying cause.
func (stepError MergeStepError) Unwrap() error {
	return stepError.Cause
}

// Options configures fork exclusions and the merge remote.
type Options struct {
	Exclusions []string
	RemoteName string
	BranchName string
}

// Dependencies enumerates collaborators of the Coordinator.
type Dependencies struct {
	FileSystem  afero.Fs
	GitExecutor shared.GitExecutor
	Logger      *zap.Logger
}

// AbortResult reports what AbortMerge found and undid.
type AbortResult struct {
	MergeAborted  bool
	RemoteRemoved bool
}

// Coordinator forks work trees and merges forks back.
type Coordinator struct {
	fileSystem  afero.Fs
	gitExecutor shared.GitExecutor
	logger      *zap.Logger
	exclusions  map[string]struct{}
	remoteName  string
	branchName  string
}

type mergeStepPlan struct {
	step     MergeStep
	commands [][]string
}

// NewCoordinator constructs a Coordinator. Blank remote and branch names fall back to the defaults.
func NewCoordinator(dependencies Dependencies, options Options) (*Coordinator, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exclusions := make(map[string]struct{}, len(options.Exclusions))
	for _, exclusion := range options.Exclusions {
		trimmedExclusion := strings.TrimSpace(exclusion)
		if len(trimmedExclusion) == 0 {
			continue
		}
		exclusions[trimmedExclusion] = struct{}{}
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = DefaultRemoteName
	}
	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		branchName = DefaultBranchName
	}

	return &Coordinator{
		fileSystem:  fileSystem,
		gitExecutor: dependencies.GitExecutor,
		logger:      logger,
		exclusions:  exclusions,
		remoteName:  remoteName,
		branchName:  branchName,
	}, nil
}

// DefaultExclusions lists the path components a fork never copies.
func DefaultExclusions() []string {
	return []string{workspace.MetadataDirectoryName, "node_modules"}
}

// Fork copies the work tree at sourceRoot to destination, skipping excluded path components
// and the destination itself, then detaches the copy from the origin remote.
func (coordinator *Coordinator) Fork(executionContext context.Context, sourceRoot string, destination string) error {
	cleanSource := filepath.Clean(sourceRoot)
	cleanDestination := filepath.Clean(destination)

	if cleanSource == cleanDestination {
		return ForkError{Destination: cleanDestination, Stage: ForkStageCopy, Cause: ErrDestinationIsSource}
	}
	if pathutils.IsNestedPath(cleanDestination, cleanSource) {
		return ForkError{Destination: cleanDestination, Stage: ForkStageCopy, Cause: ErrDestinationContainsSource}
	}

	copiedEntries, copyError := coordinator.copyTree(executionContext, cleanSource, cleanDestination)
	if copyError != nil {
		return ForkError{Destination: cleanDestination, Stage: ForkStageCopy, Cause: copyError}
	}
	coordinator.logger.Debug(logMessageForkCopiedConstant,
		zap.String(logFieldSourceConstant, cleanSource),
		zap.String(logFieldDestinationConstant, cleanDestination),
		zap.Int(logFieldCopiedEntriesConstant, copiedEntries),
	)

	_, removeError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubcommandRemote, "remove", originRemoteNameConstant},
		WorkingDirectory: cleanDestination,
	})
	if removeError != nil {
		return ForkError{Destination: cleanDestination, Stage: ForkStageRemoveOrigin, Cause: removeError}
	}
	return nil
}

// MergeFork merges the fork at source into the work tree at workTreeRoot.
// Metadata under .mango is reset to the work tree's own copy before the merge is committed.
func (coordinator *Coordinator) MergeFork(executionContext context.Context, workTreeRoot string, source string) error {
	remoteBranch := fmt.Sprintf(remoteBranchTemplateConstant, coordinator.remoteName, coordinator.branchName)
	plan := []mergeStepPlan{
		{step: MergeStepAddRemote, commands: [][]string{{gitSubcommandRemote, "add", coordinator.remoteName, source}}},
		{step: MergeStepFetch, commands: [][]string{{gitSubcommandFetch, coordinator.remoteName}}},
		{step: MergeStepMerge, commands: [][]string{{gitSubcommandMerge, "--no-ff", "--no-commit", "--allow-unrelated-histories", remoteBranch}}},
		{step: MergeStepRestoreMetadata, commands: [][]string{
			{gitSubcommandReset, "HEAD", workspace.MetadataDirectoryName},
			{gitSubcommandCheckout, "--", workspace.MetadataDirectoryName},
		}},
		{step: MergeStepCommit, commands: [][]string{{gitSubcommandCommit, "-m", fmt.Sprintf(mergeCommitMessageTemplateConstant, coordinator.remoteName, coordinator.branchName)}}},
		{step: MergeStepRemoveRemote, commands: [][]string{{gitSubcommandRemote, "remove", coordinator.remoteName}}},
	}

	completedSteps := make([]MergeStep, 0, len(plan))
	for _, plannedStep := range plan {
		for _, arguments := range plannedStep.commands {
			_, stepError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
				Arguments:        arguments,
				WorkingDirectory: workTreeRoot,
			})
			if stepError != nil {
				return MergeStepError{Step: plannedStep.step, CompletedSteps: completedSteps, Cause: stepError}
			}
		}
		completedSteps = append(completedSteps, plannedStep.step)
		coordinator.logger.Debug(logMessageMergeStepConstant, zap.String(logFieldStepConstant, string(plannedStep.step)))
	}
	return nil
}

// AbortMerge undoes an interrupted MergeFork: it aborts a pending merge and removes the temporary remote.
// Both recoveries are attempted; their failures are combined.
func (coordinator *Coordinator) AbortMerge(executionContext context.Context, workTreeRoot string) (AbortResult, error) {
	var result AbortResult
	var combinedError error

	verifyResult, verifyError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:         []string{gitSubcommandRevParse, "-q", "--verify", mergeHeadReferenceConstant},
		WorkingDirectory:  workTreeRoot,
		ExpectedExitCodes: []int{missingReferenceExitCodeConstant},
	})
	switch {
	case verifyError != nil:
		combinedError = multierr.Append(combinedError, verifyError)
	case verifyResult.ExitCode == 0:
		_, abortError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitSubcommandMerge, "--abort"},
			WorkingDirectory: workTreeRoot,
		})
		if abortError != nil {
			combinedError = multierr.Append(combinedError, abortError)
		} else {
			result.MergeAborted = true
			coordinator.logger.Info(logMessageMergeAbortedConstant)
		}
	}

	remotesResult, listError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubcommandRemote},
		WorkingDirectory: workTreeRoot,
	})
	if listError != nil {
		return result, multierr.Append(combinedError, listError)
	}
	if !listsRemote(remotesResult.StandardOutput, coordinator.remoteName) {
		return result, combinedError
	}

	_, removeError := coordinator.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubcommandRemote, "remove", coordinator.remoteName},
		WorkingDirectory: workTreeRoot,
	})
	if removeError != nil {
		return result, multierr.Append(combinedError, removeError)
	}
	result.RemoteRemoved = true
	coordinator.logger.Info(logMessageRemoteRemovedConstant, zap.String(logFieldRemoteConstant, coordinator.remoteName))
	return result, combinedError
}

func (coordinator *Coordinator) copyTree(executionContext context.Context, sourceRoot string, destination string) (int, error) {
	copiedEntries := 0
	walkError := afero.Walk(coordinator.fileSystem, sourceRoot, func(currentPath string, info os.FileInfo, visitError error) error {
		if visitError != nil {
			return visitError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		if pathutils.IsNestedPath(destination, currentPath) {
			return skipEntry(info)
		}

		relativePath, relativeError := filepath.Rel(sourceRoot, currentPath)
		if relativeError != nil {
			return relativeError
		}
		if relativePath == "." {
			return coordinator.fileSystem.MkdirAll(destination, info.Mode().Perm())
		}
		if coordinator.excluded(relativePath) {
			return skipEntry(info)
		}

		targetPath := filepath.Join(destination, relativePath)
		var copyError error
		switch {
		case info.IsDir():
			copyError = coordinator.fileSystem.MkdirAll(targetPath, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			copyError = coordinator.copySymlink(currentPath, targetPath)
		case info.Mode().IsRegular():
			copyError = coordinator.copyFile(currentPath, targetPath, info.Mode().Perm())
		default:
			return nil
		}
		if copyError != nil {
			return copyError
		}
		copiedEntries++
		return nil
	})
	return copiedEntries, walkError
}

func (coordinator *Coordinator) excluded(relativePath string) bool {
	for _, component := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if _, isExcluded := coordinator.exclusions[component]; isExcluded {
			return true
		}
	}
	return false
}

func (coordinator *Coordinator) copyFile(sourcePath string, targetPath string, permissions os.FileMode) (copyError error) {
	sourceFile, openError := coordinator.fileSystem.Open(sourcePath)
	if openError != nil {
		return openError
	}
	defer func() {
		copyError = multierr.Append(copyError, sourceFile.Close())
	}()

	targetFile, createError := coordinator.fileSystem.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, permissions)
	if createError != nil {
		return createError
	}
	defer func() {
		copyError = multierr.Append(copyError, targetFile.Close())
	}()

	_, copyError = io.Copy(targetFile, sourceFile)
	return copyError
}

func (coordinator *Coordinator) copySymlink(sourcePath string, targetPath string) error {
	linkReader, canReadLinks := coordinator.fileSystem.(afero.LinkReader)
	linker, canLink := coordinator.fileSystem.(afero.Linker)
	if !canReadLinks || !canLink {
		return nil
	}

	linkTarget, readError := linkReader.ReadlinkIfPossible(sourcePath)
	if readError != nil {
		return readError
	}
	return linker.SymlinkIfPossible(linkTarget, targetPath)
}

func skipEntry(info os.FileInfo) error {
	if info.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

func listsRemote(remoteListing string, remoteName string) bool {
	for _, line := range strings.Split(remoteListing, "\n") {
		if strings.TrimSpace(line) == remoteName {
			return true
		}
	}
	return false
}

func describeCause(cause error) string {
	if cause == nil {
		return unknownCauseMessageConstant
	}
	return cause.Error()
}
