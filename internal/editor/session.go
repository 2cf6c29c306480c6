// Package editor runs the user's editor against a scratch file and returns what was saved.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/execshell"
	"github.com/temirov/mango/internal/shared"
)

const (
	// DefaultEditorCommand is used when neither configuration nor $EDITOR names an editor.
	DefaultEditorCommand = "vi"
	// EditorEnvironmentVariable names the conventional editor variable.
	EditorEnvironmentVariable = "EDITOR"

	scratchFileExtensionConstant        = ".txt"
	placeholderTemplateConstant         = "Issue #%s\n\n"
	scratchDirectoryPermissionsConstant = 0o755
	scratchFilePermissionsConstant      = 0o600
	executorMissingMessageConstant      = "editor session requires an interactive executor"
	editorExitTemplateConstant          = "%s had a non zero exit code: %d"
	prepareScratchTemplateConstant      = "unable to prepare %s: %w"
	readScratchTemplateConstant         = "unable to read %s: %w"
	removeScratchTemplateConstant       = "unable to remove %s: %w"
	runEditorTemplateConstant           = "unable to run %s: %w"
	logMessageEditorClosedConstant      = "editor closed"
	logFieldEditorConstant              = "editor"
	logFieldPathConstant                = "path"
	logFieldSizeConstant                = "size"
)

// ErrExecutorNotConfigured indicates the session was built without an interactive executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// EditorExitError reports an editor process that exited with a non-zero status.
type EditorExitError struct {
	Editor   string
	ExitCode int
}

// Error describes the editor failure.
func (exitError EditorExitError) Error() string {
	return fmt.Sprintf(editorExitTemplateConstant, exitError.Editor, exitError.ExitCode)
}

// EnvironmentLookup resolves environment variables.
type EnvironmentLookup func(key string) (string, bool)

// SessionDependencies enumerates collaborators of an edit session.
type SessionDependencies struct {
	FileSystem        afero.Fs
	Executor          shared.InteractiveExecutor
	EnvironmentLookup EnvironmentLookup
	Logger            *zap.Logger
}

// Session edits scratch files with an external editor.
type Session struct {
	fileSystem    afero.Fs
	executor      shared.InteractiveExecutor
	logger        *zap.Logger
	editorCommand []string
}

// NewSession constructs a Session. The configured command wins over $EDITOR, which wins over vi.
// The command may carry arguments, for example "code --wait".
func NewSession(configuredCommand string, dependencies SessionDependencies) (*Session, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	environmentLookup := dependencies.EnvironmentLookup
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}

	return &Session{
		fileSystem:    fileSystem,
		executor:      dependencies.Executor,
		logger:        logger,
		editorCommand: resolveEditorCommand(configuredCommand, environmentLookup),
	}, nil
}

// Editor returns the resolved editor command line.
func (session *Session) Editor() string {
	return strings.Join(session.editorCommand, " ")
}

// Edit writes initialContent (or an "Issue #<id>" placeholder) to scratchPath, blocks on the editor,
// and returns the saved content. The scratch file is removed on every exit path.
func (session *Session) Edit(executionContext context.Context, scratchPath string, initialContent []byte) (editedContent []byte, editError error) {
	if mkdirError := session.fileSystem.MkdirAll(filepath.Dir(scratchPath), scratchDirectoryPermissionsConstant); mkdirError != nil {
		return nil, fmt.Errorf(prepareScratchTemplateConstant, scratchPath, mkdirError)
	}

	defer func() {
		removeError := session.fileSystem.Remove(scratchPath)
		if removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
			editError = multierr.Append(editError, fmt.Errorf(removeScratchTemplateConstant, scratchPath, removeError))
		}
	}()

	if writeError := session.writeScratchFile(scratchPath, initialContent); writeError != nil {
		return nil, writeError
	}

	editorCommand := execshell.ShellCommand{
		Name: execshell.CommandName(session.editorCommand[0]),
		Details: execshell.CommandDetails{
			Arguments: append(append([]string{}, session.editorCommand[1:]...), scratchPath),
		},
	}

	if _, executionError := session.executor.ExecuteInteractive(executionContext, editorCommand); executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return nil, EditorExitError{Editor: session.Editor(), ExitCode: failedError.Result.ExitCode}
		}
		return nil, fmt.Errorf(runEditorTemplateConstant, session.Editor(), executionError)
	}

	content, readError := afero.ReadFile(session.fileSystem, scratchPath)
	if readError != nil {
		return nil, fmt.Errorf(readScratchTemplateConstant, scratchPath, readError)
	}

	session.logger.Debug(logMessageEditorClosedConstant,
		zap.String(logFieldEditorConstant, session.Editor()),
		zap.String(logFieldPathConstant, scratchPath),
		zap.Int(logFieldSizeConstant, len(content)),
	)
	return content, nil
}

func (session *Session) writeScratchFile(scratchPath string, initialContent []byte) error {
	content := initialContent
	if len(content) == 0 {
		issueIdentifier := strings.TrimSuffix(filepath.Base(scratchPath), scratchFileExtensionConstant)
		content = []byte(fmt.Sprintf(placeholderTemplateConstant, issueIdentifier))
	}

	if writeError := afero.WriteFile(session.fileSystem, scratchPath, content, scratchFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(prepareScratchTemplateConstant, scratchPath, writeError)
	}
	return nil
}

func resolveEditorCommand(configuredCommand string, environmentLookup EnvironmentLookup) []string {
	if configuredFields := strings.Fields(configuredCommand); len(configuredFields) > 0 {
		return configuredFields
	}
	if environmentEditor, available := environmentLookup(EditorEnvironmentVariable); available {
		if environmentFields := strings.Fields(environmentEditor); len(environmentFields) > 0 {
			return environmentFields
		}
	}
	return []string{DefaultEditorCommand}
}
