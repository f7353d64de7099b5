package manifest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/execshell"
	"github.com/avetis/ghcrsweep/internal/manifest"
)

const (
	testOwnerConstant              = "acme"
	testPackageNameConstant        = "app"
	testVersionDigestConstant      = "sha256:4bcff63911fcb4448bd4fdacec207030997caf25e9bea4045fa6c8c44de311d1"
	expectedImageReferenceConstant = "ghcr.io/acme/app@" + testVersionDigestConstant
	invalidDigestValueConstant     = "not-a-digest"
	firstSubDigestConstant         = "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	secondSubDigestConstant        = "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	multiPlatformManifestConstant  = `{"schemaVersion":2,"manifests":[{"mediaType":"application/vnd.oci.image.manifest.v1+json","digest":"` + firstSubDigestConstant + `","size":1},{"mediaType":"application/vnd.oci.image.manifest.v1+json","digest":"` + secondSubDigestConstant + `","size":1}]}`
	singlePlatformManifestConstant = `{"schemaVersion":2,"config":{"mediaType":"application/vnd.oci.image.config.v1+json","digest":"` + firstSubDigestConstant + `","size":1}}`
	malformedManifestConstant      = `{"manifests":`
	inspectFailureStderrConstant   = "no such manifest"
)

type fakeCommandRunner struct {
	result   execshell.ExecutionResult
	err      error
	commands []execshell.ShellCommand
}

func (runner *fakeCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	if runner.err != nil {
		return execshell.ExecutionResult{}, runner.err
	}
	return runner.result, nil
}

func newDockerInspector(testInstance *testing.T, runner execshell.CommandRunner) *manifest.DockerCLIInspector {
	testInstance.Helper()

	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, executorError)

	dockerInspector, inspectorError := manifest.NewDockerCLIInspector(shellExecutor)
	require.NoError(testInstance, inspectorError)
	return dockerInspector
}

func TestBuildImageReference(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name          string
		owner         string
		packageName   string
		versionDigest string
		expected      string
		expectedError bool
	}{
		{
			name:          "valid_digest",
			owner:         testOwnerConstant,
			packageName:   testPackageNameConstant,
			versionDigest: testVersionDigestConstant,
			expected:      expectedImageReferenceConstant,
		},
		{
			name:          "invalid_digest",
			owner:         testOwnerConstant,
			packageName:   testPackageNameConstant,
			versionDigest: invalidDigestValueConstant,
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			imageReference, buildError := manifest.BuildImageReference(testCase.owner, testCase.packageName, testCase.versionDigest)
			if testCase.expectedError {
				require.Error(subTest, buildError)
				return
			}
			require.NoError(subTest, buildError)
			require.Equal(subTest, testCase.expected, imageReference)
		})
	}
}

func TestDockerCLIInspectorListsDependencies(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name             string
		manifestDocument string
		expectedDigests  []string
		expectedError    bool
	}{
		{
			name:             "multi_platform_index",
			manifestDocument: multiPlatformManifestConstant,
			expectedDigests:  []string{firstSubDigestConstant, secondSubDigestConstant},
		},
		{
			name:             "single_platform_manifest",
			manifestDocument: singlePlatformManifestConstant,
			expectedDigests:  []string{},
		},
		{
			name:             "malformed_document",
			manifestDocument: malformedManifestConstant,
			expectedError:    true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			runner := &fakeCommandRunner{result: execshell.ExecutionResult{StandardOutput: testCase.manifestDocument}}
			dockerInspector := newDockerInspector(subTest, runner)

			dependencyDigests, inspectionError := dockerInspector.ListManifestDependencies(context.Background(), expectedImageReferenceConstant)
			if testCase.expectedError {
				require.Error(subTest, inspectionError)
				return
			}
			require.NoError(subTest, inspectionError)
			require.Equal(subTest, testCase.expectedDigests, dependencyDigests)

			require.Len(subTest, runner.commands, 1)
			require.Equal(subTest, execshell.CommandDocker, runner.commands[0].Name)
			require.Equal(subTest, []string{"manifest", "inspect", expectedImageReferenceConstant}, runner.commands[0].Details.Arguments)
		})
	}
}

func TestDockerCLIInspectorPropagatesCommandFailure(testInstance *testing.T) {
	testInstance.Parallel()

	runner := &fakeCommandRunner{result: execshell.ExecutionResult{ExitCode: 1, StandardError: inspectFailureStderrConstant}}
	dockerInspector := newDockerInspector(testInstance, runner)

	_, inspectionError := dockerInspector.ListManifestDependencies(context.Background(), expectedImageReferenceConstant)
	require.Error(testInstance, inspectionError)
	require.ErrorContains(testInstance, inspectionError, expectedImageReferenceConstant)
	require.ErrorContains(testInstance, inspectionError, inspectFailureStderrConstant)
}

func TestNewDockerCLIInspectorRequiresExecutor(testInstance *testing.T) {
	testInstance.Parallel()

	_, inspectorError := manifest.NewDockerCLIInspector(nil)
	require.Error(testInstance, inspectorError)
}
