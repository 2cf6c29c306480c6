package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct {
	terminalInput  io.Reader
	terminalOutput io.Writer
	terminalError  io.Writer
}

// NewOSCommandRunner constructs a runner backed by os/exec and the process terminal.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{
		terminalInput:  os.Stdin,
		terminalOutput: os.Stdout,
		terminalError:  os.Stderr,
	}
}

// Run executes the supplied command using os/exec and captures its output.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := runner.buildExecutable(executionContext, command)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	exitCode, runError := runner.await(executable)
	if runError != nil {
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       exitCode,
	}, nil
}

// RunInteractive executes the command with the terminal streams attached and waits for it to exit.
func (runner *OSCommandRunner) RunInteractive(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := runner.buildExecutable(executionContext, command)
	executable.Stdin = runner.terminalInput
	executable.Stdout = runner.terminalOutput
	executable.Stderr = runner.terminalError

	exitCode, runError := runner.await(executable)
	if runError != nil {
		return ExecutionResult{}, runError
	}

	return ExecutionResult{ExitCode: exitCode}, nil
}

func (runner *OSCommandRunner) buildExecutable(executionContext context.Context, command ShellCommand) *exec.Cmd {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	return executable
}

func (runner *OSCommandRunner) await(executable *exec.Cmd) (int, error) {
	runError := executable.Run()
	if runError == nil {
		return 0, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		return exitError.ExitCode(), nil
	}
	return 0, runError
}
