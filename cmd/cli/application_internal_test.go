package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSweepCommandNameConstant      = "sweep"
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: warn\n  log_format: structured\nsweep:\n  owner: acme\n  untagged_only: true\n"
	testOverriddenLogLevelConstant    = "debug"
)

func writeTestConfiguration(testInstance *testing.T) string {
	testInstance.Helper()

	configurationFilePath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testConfigurationContentConstant), 0o600))
	return configurationFilePath
}

func TestNewApplicationRegistersSweepCommand(testInstance *testing.T) {
	application := NewApplication()

	commandNames := make([]string, 0)
	for _, registeredCommand := range application.rootCommand.Commands() {
		commandNames = append(commandNames, registeredCommand.Name())
	}
	require.Contains(testInstance, commandNames, testSweepCommandNameConstant)
}

func TestInitializeConfigurationLoadsFileAndDefaults(testInstance *testing.T) {
	application := NewApplication()
	application.configurationFilePath = writeTestConfiguration(testInstance)

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "acme", application.configuration.Sweep.Owner)
	require.True(testInstance, application.configuration.Sweep.UntaggedOnly)
	require.Equal(testInstance, "org", application.configuration.Sweep.OwnerType)
	require.Equal(testInstance, "env:GITHUB_TOKEN", application.configuration.Sweep.TokenSource)
	require.NotNil(testInstance, application.logger)
}

func TestInitializeConfigurationHonorsPersistentFlagOverrides(testInstance *testing.T) {
	application := NewApplication()
	application.configurationFilePath = writeTestConfiguration(testInstance)

	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, testOverriddenLogLevelConstant))
	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, testOverriddenLogLevelConstant, application.configuration.Common.LogLevel)
}
