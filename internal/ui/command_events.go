package ui

import (
	"go.uber.org/zap"

	"github.com/temirov/mango/internal/execshell"
)

// CommandEventConsole reports subprocess lifecycle events for fork, merge, and editor sessions.
// Git start notifications stay at debug level; an editor launch is announced at info level because it takes over the terminal.
type CommandEventConsole struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewCommandEventConsole constructs a CommandEventConsole writing to the provided console logger.
func NewCommandEventConsole(logger *zap.Logger) *CommandEventConsole {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandEventConsole{logger: logger, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver.
func (console *CommandEventConsole) CommandStarted(command execshell.ShellCommand) {
	if console == nil {
		return
	}
	startedMessage := console.formatter.BuildStartedMessage(command)
	if command.Name == execshell.CommandGit {
		console.logger.Debug(startedMessage)
		return
	}
	console.logger.Info(startedMessage)
}

// CommandCompleted implements execshell.CommandEventObserver.
func (console *CommandEventConsole) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if console == nil {
		return
	}
	if !command.Details.ExpectsExitCode(result.ExitCode) {
		console.logger.Warn(console.formatter.BuildFailureMessage(command, result))
		return
	}
	if result.ExitCode != 0 {
		console.logger.Debug(console.formatter.BuildSuccessMessage(command))
		return
	}
	console.logger.Info(console.formatter.BuildSuccessMessage(command))
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (console *CommandEventConsole) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if console == nil {
		return
	}
	console.logger.Error(console.formatter.BuildExecutionFailureMessage(command, failure))
}
