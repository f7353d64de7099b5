package sweep

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/ghcr"
	"github.com/avetis/ghcrsweep/internal/manifest"
)

const (
	inspectorRequiredMessageConstant          = "protected digest resolver requires a manifest inspector"
	dependencyResolutionErrorTemplateConstant = "unable to resolve manifest dependencies for %s: %w"
	protectedDigestsResolvedDebugMessage      = "resolved protected digests"
	logFieldProtectedCountConstant            = "protected_count"
	logFieldInspectedCountConstant            = "inspected_count"
)

// ProtectedDigestResolver computes the digests that tagged multi-platform
// images depend on, so platform-specific sub-images survive an untagged sweep.
//
// The protected set is a point-in-time snapshot of the versions listed at the
// start of the run; it is not recomputed as deletions proceed and offers no
// transactional guarantee against concurrent registry mutations.
type ProtectedDigestResolver struct {
	logger    *zap.Logger
	inspector manifest.Inspector
}

// NewProtectedDigestResolver validates the inspector and constructs a resolver.
func NewProtectedDigestResolver(logger *zap.Logger, inspector manifest.Inspector) (*ProtectedDigestResolver, error) {
	if inspector == nil {
		return nil, fmt.Errorf(inspectorRequiredMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &ProtectedDigestResolver{logger: resolvedLogger, inspector: inspector}, nil
}

// ResolveProtectedDigests inspects every currently tagged version of every
// package and returns the union of sub-manifest digests they reference.
// Untagged versions are never inspected because an untagged multi-platform
// parent cannot protect anything. An inspection failure aborts the run.
func (resolver *ProtectedDigestResolver) ResolveProtectedDigests(executionContext context.Context, owner string, versionsByPackage map[string][]ghcr.PackageVersion) (map[string]struct{}, error) {
	protectedDigests := make(map[string]struct{})
	inspectedCount := 0

	for _, packageName := range sortedPackageNames(versionsByPackage) {
		for _, packageVersion := range versionsByPackage[packageName] {
			if !packageVersion.IsTagged() {
				continue
			}

			imageReference, referenceError := manifest.BuildImageReference(owner, packageName, packageVersion.Name)
			if referenceError != nil {
				return nil, referenceError
			}

			dependencyDigests, inspectionError := resolver.inspector.ListManifestDependencies(executionContext, imageReference)
			if inspectionError != nil {
				return nil, fmt.Errorf(dependencyResolutionErrorTemplateConstant, imageReference, inspectionError)
			}

			inspectedCount++
			for _, dependencyDigest := range dependencyDigests {
				protectedDigests[dependencyDigest] = struct{}{}
			}
		}
	}

	resolver.logger.Debug(
		protectedDigestsResolvedDebugMessage,
		zap.Int(logFieldInspectedCountConstant, inspectedCount),
		zap.Int(logFieldProtectedCountConstant, len(protectedDigests)),
	)

	return protectedDigests, nil
}
