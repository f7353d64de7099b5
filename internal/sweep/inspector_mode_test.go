package sweep_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/sweep"
)

const (
	inspectorModeUppercaseConstant   = "REGISTRY"
	inspectorModeUnsupportedConstant = "skopeo"
)

func TestParseInspectorMode(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name          string
		input         string
		expectedMode  sweep.InspectorMode
		expectedError bool
	}{
		{
			name:         "docker_mode",
			input:        string(sweep.DockerInspectorMode),
			expectedMode: sweep.DockerInspectorMode,
		},
		{
			name:         "registry_mode",
			input:        string(sweep.RegistryInspectorMode),
			expectedMode: sweep.RegistryInspectorMode,
		},
		{
			name:         "uppercase_mode",
			input:        inspectorModeUppercaseConstant,
			expectedMode: sweep.RegistryInspectorMode,
		},
		{
			name:          "empty_mode",
			input:         "",
			expectedError: true,
		},
		{
			name:          "unsupported_mode",
			input:         inspectorModeUnsupportedConstant,
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			parsedMode, parseError := sweep.ParseInspectorMode(testCase.input)
			if testCase.expectedError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedMode, parsedMode)
		})
	}
}

func TestDefaultInspectorResolverBuildsModeSpecificInspectors(testInstance *testing.T) {
	testInstance.Parallel()

	registryResolver := &sweep.DefaultInspectorResolver{Logger: zap.NewNop(), Mode: sweep.RegistryInspectorMode}
	registryInspector, registryError := registryResolver.Resolve(deleterTokenConstant)
	require.NoError(testInstance, registryError)
	require.NotNil(testInstance, registryInspector)

	dockerResolver := &sweep.DefaultInspectorResolver{Logger: zap.NewNop(), Mode: sweep.DockerInspectorMode}
	dockerInspector, dockerError := dockerResolver.Resolve(deleterTokenConstant)
	require.NoError(testInstance, dockerError)
	require.NotNil(testInstance, dockerInspector)
}
