package sweep

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/ghcr"
)

// cutoffTimestampLayoutConstant matches the fixed timestamp format the
// Packages API uses for updated_at. Both sides of the age comparison share
// this exact UTC layout, so lexicographic string order equals chronological
// order; the comparison would break if the API ever returned sub-second
// precision or a non-UTC offset.
const cutoffTimestampLayoutConstant = "2006-01-02T15:04:05Z"

const (
	protectedVersionDebugMessageConstant = "version protected by manifest dependency"
	candidatesSelectedDebugMessage       = "selected deletion candidates"
	logFieldCandidateCountConstant       = "candidate_count"
	logFieldCutoffConstant               = "cutoff"
	logFieldDigestConstant               = "digest"
	logFieldFilterPackageConstant        = "package"
)

// FilterOptions selects the retention predicates applied to the version set.
type FilterOptions struct {
	UntaggedOnly     bool
	OlderThanSeconds int64
}

// Enabled reports whether any version-level predicate was requested.
// Without one, deletion operates on whole packages instead of versions.
func (options FilterOptions) Enabled() bool {
	return options.UntaggedOnly || options.OlderThanSeconds > 0
}

// CandidateVersion pairs a version with the package it belongs to.
type CandidateVersion struct {
	PackageName string
	Version     ghcr.PackageVersion
}

// Clock supplies the current time; it exists so tests can pin the cutoff.
type Clock func() time.Time

// RetentionFilter narrows version sets down to deletion candidates.
type RetentionFilter struct {
	logger *zap.Logger
	clock  Clock
}

// NewRetentionFilter constructs a filter with an optional clock override.
func NewRetentionFilter(logger *zap.Logger, clock Clock) *RetentionFilter {
	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	resolvedClock := clock
	if resolvedClock == nil {
		resolvedClock = time.Now
	}

	return &RetentionFilter{logger: resolvedLogger, clock: resolvedClock}
}

// SelectCandidates applies the retention predicates in their fixed order:
// dependency-protected versions are removed first, then the untagged-only
// predicate, then the age cutoff. Protection must run against versions from
// the original listing because the untagged predicate would otherwise remove
// the tag information identifying multi-platform parents. The selection is a
// pure function of its inputs; repeated runs over unchanged input yield the
// same candidates.
func (filter *RetentionFilter) SelectCandidates(versionsByPackage map[string][]ghcr.PackageVersion, protectedDigests map[string]struct{}, options FilterOptions) []CandidateVersion {
	candidates := make([]CandidateVersion, 0)

	for _, packageName := range sortedPackageNames(versionsByPackage) {
		for _, packageVersion := range versionsByPackage[packageName] {
			if _, isProtected := protectedDigests[packageVersion.Name]; isProtected {
				filter.logger.Debug(
					protectedVersionDebugMessageConstant,
					zap.String(logFieldFilterPackageConstant, packageName),
					zap.String(logFieldDigestConstant, packageVersion.Name),
				)
				continue
			}
			candidates = append(candidates, CandidateVersion{PackageName: packageName, Version: packageVersion})
		}
	}

	if options.UntaggedOnly {
		untaggedCandidates := make([]CandidateVersion, 0, len(candidates))
		for _, candidate := range candidates {
			if candidate.Version.IsTagged() {
				continue
			}
			untaggedCandidates = append(untaggedCandidates, candidate)
		}
		candidates = untaggedCandidates
	}

	if options.OlderThanSeconds > 0 {
		cutoffTimestamp := filter.clock().UTC().Add(-time.Duration(options.OlderThanSeconds) * time.Second).Format(cutoffTimestampLayoutConstant)
		agedCandidates := make([]CandidateVersion, 0, len(candidates))
		for _, candidate := range candidates {
			if candidate.Version.UpdatedAt >= cutoffTimestamp {
				continue
			}
			agedCandidates = append(agedCandidates, candidate)
		}
		candidates = agedCandidates

		filter.logger.Debug(
			candidatesSelectedDebugMessage,
			zap.String(logFieldCutoffConstant, cutoffTimestamp),
			zap.Int(logFieldCandidateCountConstant, len(candidates)),
		)
	}

	return candidates
}

func sortedPackageNames(versionsByPackage map[string][]ghcr.PackageVersion) []string {
	packageNames := make([]string, 0, len(versionsByPackage))
	for packageName := range versionsByPackage {
		packageNames = append(packageNames, packageName)
	}
	sort.Strings(packageNames)
	return packageNames
}
