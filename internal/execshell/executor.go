package execshell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant             = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant      = "shell executor command runner not configured"
	interactiveRunnerNotSupportedMessageConstant   = "command runner does not support interactive execution"
	commandFailedErrorTemplateConstant             = "%s failed with exit code %d"
	commandFailedWithStandardErrorTemplateConstant = "%s failed with exit code %d: %s"
	commandExecutionErrorTemplateConstant          = "%s could not be executed: %s"
	commandLabelSeparatorConstant                  = " "
	logFieldCommandConstant                        = "command"
	logFieldArgumentsConstant                      = "arguments"
	logFieldWorkingDirectoryConstant               = "working_directory"
	logFieldExitCodeConstant                       = "exit_code"
	logFieldStandardErrorConstant                  = "stderr"
	logFieldInteractiveConstant                    = "interactive"
)

// CommandName identifies an executable invoked through the shell executor.
type CommandName string

// Supported command enumerations.
const (
	CommandGit CommandName = CommandName("git")
)

// CommandDetails describes arguments and process attributes for a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// ExpectedExitCodes lists non-zero exit codes returned as ordinary results instead of failures.
	ExpectedExitCodes []int
}

// ExpectsExitCode reports whether the exit code is a normal outcome for the command.
func (details CommandDetails) ExpectsExitCode(exitCode int) bool {
	return exitCode == 0 || slices.Contains(details.ExpectedExitCodes, exitCode)
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// InteractiveCommandRunner executes commands attached to the controlling terminal.
type InteractiveCommandRunner interface {
	RunInteractive(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandEventObserver replaces the executor's structured lifecycle logs with its own reporting.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports a command that never produced an exit code.
	CommandExecutionFailed(command ShellCommand, failure error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrInteractiveExecutionNotSupported indicates the configured runner cannot attach to a terminal.
	ErrInteractiveExecutionNotSupported = errors.New(interactiveRunnerNotSupportedMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	commandLabel := describeCommand(failedError.Command)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, commandLabel, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithStandardErrorTemplateConstant, commandLabel, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	causeMessage := unknownFailureMessageConstant
	if executionError.Cause != nil {
		causeMessage = executionError.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), causeMessage)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands through a CommandRunner and reports their lifecycle.
type ShellExecutor struct {
	logger        *zap.Logger
	commandRunner CommandRunner
	observer      CommandEventObserver
	formatter     CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor from a logger and runner.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:        logger,
		commandRunner: commandRunner,
		formatter:     CommandMessageFormatter{},
	}, nil
}

// SetObserver routes lifecycle notifications to the observer instead of structured logs.
func (executor *ShellExecutor) SetObserver(observer CommandEventObserver) {
	if executor == nil {
		return
	}
	executor.observer = observer
}

// Execute runs the supplied command, returning CommandFailedError on non-zero exit codes.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.reportStarted(command, false)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	return executor.completeExecution(command, executionResult, runError)
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteInteractive runs a command attached to the controlling terminal and blocks until it exits.
func (executor *ShellExecutor) ExecuteInteractive(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	interactiveRunner, supportsInteractive := executor.commandRunner.(InteractiveCommandRunner)
	if !supportsInteractive {
		return ExecutionResult{}, ErrInteractiveExecutionNotSupported
	}

	executor.reportStarted(command, true)

	executionResult, runError := interactiveRunner.RunInteractive(executionContext, command)
	return executor.completeExecution(command, executionResult, runError)
}

func (executor *ShellExecutor) completeExecution(command ShellCommand, executionResult ExecutionResult, runError error) (ExecutionResult, error) {
	if runError != nil {
		executor.reportExecutionFailure(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.reportCompleted(command, executionResult)

	if !command.Details.ExpectsExitCode(executionResult.ExitCode) {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

func (executor *ShellExecutor) reportStarted(command ShellCommand, interactive bool) {
	if executor.observer != nil {
		executor.observer.CommandStarted(command)
		return
	}
	executor.logger.Info(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
		zap.Bool(logFieldInteractiveConstant, interactive),
	)
}

func (executor *ShellExecutor) reportCompleted(command ShellCommand, executionResult ExecutionResult) {
	if executor.observer != nil {
		executor.observer.CommandCompleted(command, executionResult)
		return
	}
	if executionResult.ExitCode == 0 {
		executor.logger.Info(
			executor.formatter.BuildSuccessMessage(command),
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return
	}
	if command.Details.ExpectsExitCode(executionResult.ExitCode) {
		executor.logger.Debug(
			executor.formatter.BuildSuccessMessage(command),
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return
	}
	executor.logger.Warn(
		executor.formatter.BuildFailureMessage(command, executionResult),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.String(logFieldStandardErrorConstant, strings.TrimSpace(executionResult.StandardError)),
	)
}

func (executor *ShellExecutor) reportExecutionFailure(command ShellCommand, failure error) {
	if executor.observer != nil {
		executor.observer.CommandExecutionFailed(command, failure)
		return
	}
	executor.logger.Error(
		executor.formatter.BuildExecutionFailureMessage(command, failure),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Error(failure),
	)
}

func describeCommand(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	commandParts = append(commandParts, command.Details.Arguments...)
	return strings.Join(commandParts, commandLabelSeparatorConstant)
}
