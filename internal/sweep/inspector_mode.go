package sweep

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/execshell"
	"github.com/avetis/ghcrsweep/internal/manifest"
)

const (
	inspectorModeDockerConstant             InspectorMode = "docker"
	inspectorModeRegistryConstant           InspectorMode = "registry"
	inspectorModeEmptyErrorMessageConstant                = "inspector mode must be provided"
	inspectorModeInvalidTemplateConstant                  = "inspector mode %q is not supported"
)

// InspectorMode selects how manifest dependencies are inspected.
type InspectorMode string

// DockerInspectorMode shells out to the Docker CLI for manifest inspection.
const DockerInspectorMode InspectorMode = inspectorModeDockerConstant

// RegistryInspectorMode queries the registry manifest endpoint directly.
const RegistryInspectorMode InspectorMode = inspectorModeRegistryConstant

// ParseInspectorMode normalizes textual inspector mode values.
func ParseInspectorMode(inspectorModeValue string) (InspectorMode, error) {
	trimmedValue := strings.TrimSpace(inspectorModeValue)
	if len(trimmedValue) == 0 {
		return "", fmt.Errorf(inspectorModeEmptyErrorMessageConstant)
	}

	switch InspectorMode(strings.ToLower(trimmedValue)) {
	case DockerInspectorMode:
		return DockerInspectorMode, nil
	case RegistryInspectorMode:
		return RegistryInspectorMode, nil
	default:
		return "", fmt.Errorf(inspectorModeInvalidTemplateConstant, inspectorModeValue)
	}
}

// InspectorResolver creates manifest inspectors once the token is known.
type InspectorResolver interface {
	Resolve(token string) (manifest.Inspector, error)
}

// DefaultInspectorResolver builds inspectors matching the configured mode.
type DefaultInspectorResolver struct {
	Logger *zap.Logger
	Mode   InspectorMode
}

// Resolve constructs the Docker CLI or registry-backed inspector.
func (resolver *DefaultInspectorResolver) Resolve(token string) (manifest.Inspector, error) {
	if resolver.Mode == RegistryInspectorMode {
		return manifest.NewRegistryInspector(token), nil
	}

	shellExecutor, executorError := execshell.NewShellExecutor(resolver.Logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}

	return manifest.NewDockerCLIInspector(shellExecutor)
}
