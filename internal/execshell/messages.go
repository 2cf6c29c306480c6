package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteAddSubcommandNameConstant    = "add"
	gitRemoteRemoveSubcommandNameConstant = "remove"
	gitRemoteRmSubcommandNameConstant     = "rm"
	gitFetchSubcommandNameConstant        = "fetch"
	gitMergeSubcommandNameConstant        = "merge"
	gitMergeAbortFlagConstant             = "--abort"
	gitResetSubcommandNameConstant        = "reset"
	gitCheckoutSubcommandNameConstant     = "checkout"
	gitCommitSubcommandNameConstant       = "commit"
	gitMessageFlagConstant                = "-m"
	gitPathSeparatorArgumentConstant      = "--"
)

const (
	gitRemoteAddStartTemplateConstant               = "Adding remote %s -> %s in %s"
	gitRemoteAddSuccessTemplateConstant             = "Added remote %s -> %s in %s"
	gitRemoteAddFailureTemplateConstant             = "Failed to add remote %s -> %s in %s (exit code %d%s)"
	gitRemoteAddExecutionFailureTemplateConstant    = "Unable to add remote %s -> %s in %s: %s"
	gitRemoteRemoveStartTemplateConstant            = "Removing remote %s in %s"
	gitRemoteRemoveSuccessTemplateConstant          = "Removed remote %s in %s"
	gitRemoteRemoveFailureTemplateConstant          = "Failed to remove remote %s in %s (exit code %d%s)"
	gitRemoteRemoveExecutionFailureTemplateConstant = "Unable to remove remote %s in %s: %s"
	gitFetchStartTemplateConstant                   = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant                 = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant                 = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant        = "Unable to fetch from %s in %s: %s"
	gitMergeStartTemplateConstant                   = "Merging %s in %s"
	gitMergeSuccessTemplateConstant                 = "Merged %s in %s"
	gitMergeFailureTemplateConstant                 = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant        = "Unable to merge %s in %s: %s"
	gitMergeAbortStartTemplateConstant              = "Aborting merge in %s"
	gitMergeAbortSuccessTemplateConstant            = "Aborted merge in %s"
	gitMergeAbortFailureTemplateConstant            = "Failed to abort merge in %s (exit code %d%s)"
	gitMergeAbortExecutionFailureTemplateConstant   = "Unable to abort merge in %s: %s"
	gitResetStartTemplateConstant                   = "Unstaging %s in %s"
	gitResetSuccessTemplateConstant                 = "Unstaged %s in %s"
	gitResetFailureTemplateConstant                 = "Failed to unstage %s in %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant        = "Unable to unstage %s in %s: %s"
	gitCheckoutStartTemplateConstant                = "Restoring %s in %s"
	gitCheckoutSuccessTemplateConstant              = "Restored %s in %s"
	gitCheckoutFailureTemplateConstant              = "Failed to restore %s in %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant     = "Unable to restore %s in %s: %s"
	gitCommitStartTemplateConstant                  = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant       = "Unable to create commit in %s with message %q: %s"
)

// stageTemplates groups the four lifecycle templates of a single git operation.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.ensureValue(extractLastNonFlagArgument(arguments[1:]))
		return formatter.renderStage(stageTemplates{
			start:            gitFetchStartTemplateConstant,
			success:          gitFetchSuccessTemplateConstant,
			failure:          gitFetchFailureTemplateConstant,
			executionFailure: gitFetchExecutionFailureTemplateConstant,
		}, []any{remoteName, workingDirectory}, result, failure, stage)
	case gitMergeSubcommandNameConstant:
		if containsArgument(arguments, gitMergeAbortFlagConstant) {
			return formatter.renderStage(stageTemplates{
				start:            gitMergeAbortStartTemplateConstant,
				success:          gitMergeAbortSuccessTemplateConstant,
				failure:          gitMergeAbortFailureTemplateConstant,
				executionFailure: gitMergeAbortExecutionFailureTemplateConstant,
			}, []any{workingDirectory}, result, failure, stage)
		}
		mergeTarget := formatter.ensureValue(extractLastNonFlagArgument(arguments[1:]))
		return formatter.renderStage(stageTemplates{
			start:            gitMergeStartTemplateConstant,
			success:          gitMergeSuccessTemplateConstant,
			failure:          gitMergeFailureTemplateConstant,
			executionFailure: gitMergeExecutionFailureTemplateConstant,
		}, []any{mergeTarget, workingDirectory}, result, failure, stage)
	case gitResetSubcommandNameConstant:
		resetPath := formatter.ensureValue(extractLastNonFlagArgument(arguments[1:]))
		return formatter.renderStage(stageTemplates{
			start:            gitResetStartTemplateConstant,
			success:          gitResetSuccessTemplateConstant,
			failure:          gitResetFailureTemplateConstant,
			executionFailure: gitResetExecutionFailureTemplateConstant,
		}, []any{resetPath, workingDirectory}, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		checkoutPath := formatter.ensureValue(extractLastNonFlagArgument(arguments[1:]))
		return formatter.renderStage(stageTemplates{
			start:            gitCheckoutStartTemplateConstant,
			success:          gitCheckoutSuccessTemplateConstant,
			failure:          gitCheckoutFailureTemplateConstant,
			executionFailure: gitCheckoutExecutionFailureTemplateConstant,
		}, []any{checkoutPath, workingDirectory}, result, failure, stage)
	case gitCommitSubcommandNameConstant:
		commitMessage := findFlagValue(arguments, gitMessageFlagConstant)
		if len(commitMessage) == 0 {
			commitMessage = fallbackUnknownValueLabelConstant
		}
		return formatter.renderStage(stageTemplates{
			start:            gitCommitStartTemplateConstant,
			success:          gitCommitSuccessTemplateConstant,
			failure:          gitCommitFailureTemplateConstant,
			executionFailure: gitCommitExecutionFailureTemplateConstant,
		}, []any{workingDirectory, commitMessage}, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 3 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(strings.TrimSpace(arguments[2]))

	switch strings.TrimSpace(arguments[1]) {
	case gitRemoteAddSubcommandNameConstant:
		remoteURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
		return formatter.renderStage(stageTemplates{
			start:            gitRemoteAddStartTemplateConstant,
			success:          gitRemoteAddSuccessTemplateConstant,
			failure:          gitRemoteAddFailureTemplateConstant,
			executionFailure: gitRemoteAddExecutionFailureTemplateConstant,
		}, []any{remoteName, remoteURL, workingDirectory}, result, failure, stage)
	case gitRemoteRemoveSubcommandNameConstant, gitRemoteRmSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitRemoteRemoveStartTemplateConstant,
			success:          gitRemoteRemoveSuccessTemplateConstant,
			failure:          gitRemoteRemoveFailureTemplateConstant,
			executionFailure: gitRemoteRemoveExecutionFailureTemplateConstant,
		}, []any{remoteName, workingDirectory}, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) renderStage(templates stageTemplates, subjects []any, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, failureArguments...)
	default:
		executionFailureArguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, executionFailureArguments...)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectorySuffix := emptyStringConstant
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func containsArgument(arguments []string, target string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == target {
			return true
		}
	}
	return false
}

func extractLastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 || trimmed == gitPathSeparatorArgumentConstant {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
