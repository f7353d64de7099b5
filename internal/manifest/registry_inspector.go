package manifest

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	registryname "github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

const (
	registryAuthUsernameConstant              = "ghcrsweep"
	referenceParsingErrorTemplateConstant     = "unable to parse image reference %q: %w"
	manifestFetchingErrorTemplateConstant     = "unable to fetch manifest for %s: %w"
)

// RegistryInspector resolves manifest dependencies by querying the registry directly.
type RegistryInspector struct {
	token          string
	remoteOptions  []remote.Option
}

// NewRegistryInspector constructs an inspector authenticating with the supplied token.
func NewRegistryInspector(token string, additionalOptions ...remote.Option) *RegistryInspector {
	remoteOptions := []remote.Option{
		remote.WithAuth(&authn.Basic{Username: registryAuthUsernameConstant, Password: token}),
	}
	remoteOptions = append(remoteOptions, additionalOptions...)

	return &RegistryInspector{token: token, remoteOptions: remoteOptions}
}

// ListManifestDependencies fetches the manifest document from the registry and extracts sub-digests.
func (inspector *RegistryInspector) ListManifestDependencies(executionContext context.Context, imageReference string) ([]string, error) {
	parsedReference, parseError := registryname.ParseReference(imageReference)
	if parseError != nil {
		return nil, fmt.Errorf(referenceParsingErrorTemplateConstant, imageReference, parseError)
	}

	fetchOptions := append([]remote.Option{remote.WithContext(executionContext)}, inspector.remoteOptions...)
	fetchedDescriptor, fetchError := remote.Get(parsedReference, fetchOptions...)
	if fetchError != nil {
		return nil, fmt.Errorf(manifestFetchingErrorTemplateConstant, imageReference, fetchError)
	}

	return decodeManifestDependencies(imageReference, fetchedDescriptor.Manifest)
}
