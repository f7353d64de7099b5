package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	dockerToolNameConstant                     = "docker"
	loggerNotConfiguredMessageConstant         = "logger not configured"
	commandRunnerNotConfiguredMessageConstant  = "command runner not configured"
	commandStartMessageTemplateConstant        = "Running %s"
	commandSuccessMessageTemplateConstant      = "Completed %s"
	commandFailureMessageTemplateConstant      = "%s failed with exit code %d%s"
	commandExecutionFailureTemplateConstant    = "%s failed: %s"
	commandLabelSeparatorConstant              = " "
	standardErrorSuffixTemplateConstant        = ": %s"
	unknownFailureMessageConstant              = "unknown error"
	logFieldCommandNameConstant                = "command"
	logFieldCommandArgumentsConstant           = "arguments"
	logFieldCommandExitCodeConstant            = "exit_code"
	commandFailedErrorMessageTemplateConstant  = "command %s exited with code %d%s"
	commandExecutionErrorMessageConstant       = "command %s execution failed: %v"
	successfulExitCodeConstant                 = 0
)

// Sentinel errors reported during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandName identifies a supported executable.
type CommandName string

// CommandDocker identifies the Docker CLI executable.
const CommandDocker CommandName = CommandName(dockerToolNameConstant)

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with specific invocation details.
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

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorMessageTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode, standardErrorSuffix(failure.Result.StandardError))
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure and its cause.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageConstant, describeCommand(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor coordinates command execution with logging.
type ShellExecutor struct {
	logger        *zap.Logger
	commandRunner CommandRunner
}

// NewShellExecutor validates collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{logger: logger, commandRunner: commandRunner}, nil
}

// ExecuteDocker runs the Docker CLI with the provided details.
func (executor *ShellExecutor) ExecuteDocker(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	command := ShellCommand{Name: CommandDocker, Details: details}
	return executor.Execute(executionContext, command)
}

// Execute runs the supplied command, logging lifecycle events and translating failures.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandLabel := describeCommand(command)

	executor.logger.Debug(
		fmt.Sprintf(commandStartMessageTemplateConstant, commandLabel),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
	)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Error(
			fmt.Sprintf(commandExecutionFailureTemplateConstant, commandLabel, failureDescription(runError)),
			zap.String(logFieldCommandNameConstant, string(command.Name)),
		)
		return ExecutionResult{}, executionFailure
	}

	if executionResult.ExitCode != successfulExitCodeConstant {
		commandFailure := CommandFailedError{Command: command, Result: executionResult}
		executor.logger.Error(
			fmt.Sprintf(commandFailureMessageTemplateConstant, commandLabel, executionResult.ExitCode, standardErrorSuffix(executionResult.StandardError)),
			zap.String(logFieldCommandNameConstant, string(command.Name)),
			zap.Int(logFieldCommandExitCodeConstant, executionResult.ExitCode),
		)
		return ExecutionResult{}, commandFailure
	}

	executor.logger.Debug(
		fmt.Sprintf(commandSuccessMessageTemplateConstant, commandLabel),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
	)

	return executionResult, nil
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return string(command.Name) + commandLabelSeparatorConstant + strings.Join(command.Details.Arguments, commandLabelSeparatorConstant)
}

func standardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func failureDescription(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
