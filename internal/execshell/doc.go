// Package execshell runs external commands with structured logging and typed failures.
//
// It defines ShellExecutor, which wraps a CommandRunner with lifecycle logging,
// and OSCommandRunner, the os/exec backed implementation. The only wrapped tool
// is the Docker CLI, used for manifest inspection.
package execshell
