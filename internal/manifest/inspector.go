package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
	imagespecv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/avetis/ghcrsweep/internal/execshell"
)

const (
	registryHostConstant                     = "ghcr.io"
	imageReferenceTemplateConstant           = "%s/%s/%s@%s"
	dockerManifestSubcommandConstant         = "manifest"
	dockerInspectSubcommandConstant          = "inspect"
	executorRequiredMessageConstant          = "manifest inspector requires a shell executor"
	invalidDigestErrorTemplateConstant       = "invalid version digest %q: %w"
	invalidReferenceErrorTemplateConstant    = "invalid image reference %q: %w"
	inspectionFailureErrorTemplateConstant   = "manifest inspection of %s failed: %w"
	manifestDecodingErrorTemplateConstant    = "unable to decode manifest document for %s: %w"
)

// Inspector resolves the sub-manifest digests referenced by an image.
type Inspector interface {
	// ListManifestDependencies returns the digests of every platform-specific
	// sub-image the referenced image depends on. A single-platform image
	// yields an empty result.
	ListManifestDependencies(executionContext context.Context, imageReference string) ([]string, error)
}

// BuildImageReference assembles a fully qualified GHCR image reference for a version digest.
func BuildImageReference(owner string, packageName string, versionDigest string) (string, error) {
	parsedDigest, digestParseError := digest.Parse(versionDigest)
	if digestParseError != nil {
		return "", fmt.Errorf(invalidDigestErrorTemplateConstant, versionDigest, digestParseError)
	}

	imageReference := fmt.Sprintf(imageReferenceTemplateConstant, registryHostConstant, owner, packageName, parsedDigest.String())
	if _, referenceParseError := reference.Parse(imageReference); referenceParseError != nil {
		return "", fmt.Errorf(invalidReferenceErrorTemplateConstant, imageReference, referenceParseError)
	}

	return imageReference, nil
}

// DockerCLIInspector resolves manifest dependencies through "docker manifest inspect".
type DockerCLIInspector struct {
	executor *execshell.ShellExecutor
}

// NewDockerCLIInspector validates the executor and constructs a DockerCLIInspector.
func NewDockerCLIInspector(executor *execshell.ShellExecutor) (*DockerCLIInspector, error) {
	if executor == nil {
		return nil, fmt.Errorf(executorRequiredMessageConstant)
	}
	return &DockerCLIInspector{executor: executor}, nil
}

// ListManifestDependencies shells out to the Docker CLI and parses the returned manifest document.
func (inspector *DockerCLIInspector) ListManifestDependencies(executionContext context.Context, imageReference string) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{dockerManifestSubcommandConstant, dockerInspectSubcommandConstant, imageReference},
	}

	executionResult, executionError := inspector.executor.ExecuteDocker(executionContext, commandDetails)
	if executionError != nil {
		return nil, fmt.Errorf(inspectionFailureErrorTemplateConstant, imageReference, executionError)
	}

	return decodeManifestDependencies(imageReference, []byte(executionResult.StandardOutput))
}

// decodeManifestDependencies extracts sub-manifest digests from an OCI index
// or Docker manifest list document. Documents without a manifests array
// describe single-platform images and yield no dependencies.
func decodeManifestDependencies(imageReference string, manifestDocument []byte) ([]string, error) {
	var decodedIndex imagespecv1.Index
	if decodeError := json.Unmarshal(manifestDocument, &decodedIndex); decodeError != nil {
		return nil, fmt.Errorf(manifestDecodingErrorTemplateConstant, imageReference, decodeError)
	}

	dependencyDigests := make([]string, 0, len(decodedIndex.Manifests))
	for _, manifestDescriptor := range decodedIndex.Manifests {
		dependencyDigests = append(dependencyDigests, manifestDescriptor.Digest.String())
	}

	return dependencyDigests, nil
}
