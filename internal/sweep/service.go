package sweep

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/ghcr"
)

const (
	tokenMissingErrorMessageConstant            = "token must be provided"
	ownerMissingErrorMessageConstant            = "owner must be provided"
	registryClientRequiredMessageConstant       = "sweep service requires a registry client"
	serviceLoggerRequiredMessageConstant        = "sweep service requires a logger"
	inspectorResolverRequiredMessageConstant    = "sweep service requires an inspector resolver"
	versionListingErrorTemplateConstant         = "unable to list versions of package %s: %w"
	deletionFailuresErrorTemplateConstant       = "failed to delete %d of %d targets"
	packageModeInfoMessageConstant              = "no version filters requested, deleting whole packages"
	sweepCompletedInfoMessageConstant           = "sweep completed"
	noTargetsInfoMessageConstant                = "nothing to delete"
	packageTargetDescriptionTemplateConstant    = "package %s"
	versionTargetDescriptionTemplateConstant    = "%s@%s"
	logFieldDeletedCountConstant                = "deleted"
	logFieldFailedCountConstant                 = "failed"
	logFieldTargetCountConstant                 = "targets"
	logFieldServiceOwnerConstant                = "owner"
)

// SweepOptions carries the fully parsed retention policy for one run.
type SweepOptions struct {
	Token                       string
	Owner                       string
	OwnerType                   ghcr.OwnerType
	Repository                  string
	PackageNames                []string
	UntaggedOnly                bool
	ExceptUntaggedMultiplatform bool
	OlderThanSeconds            int64
	DryRun                      bool
}

// SweepResult summarizes a completed run.
type SweepResult struct {
	TargetCount  int
	DeletedCount int
	FailedCount  int
}

// RegistryAPI captures the registry operations the service depends on.
type RegistryAPI interface {
	ListPackages(executionContext context.Context, request ghcr.ListPackagesRequest) ([]ghcr.Package, error)
	ListVersions(executionContext context.Context, token string, packageURL string) ([]ghcr.PackageVersion, error)
	TargetDeleter
}

// SweepService orchestrates listing, dependency protection, filtering, and deletion.
type SweepService struct {
	logger            *zap.Logger
	registryClient    RegistryAPI
	inspectorResolver InspectorResolver
	outputWriter      *PipelineOutputWriter
	clock             Clock
}

// NewSweepService validates collaborators and constructs a SweepService.
func NewSweepService(logger *zap.Logger, registryClient RegistryAPI, inspectorResolver InspectorResolver, outputWriter *PipelineOutputWriter, clock Clock) (*SweepService, error) {
	if logger == nil {
		return nil, errors.New(serviceLoggerRequiredMessageConstant)
	}
	if registryClient == nil {
		return nil, errors.New(registryClientRequiredMessageConstant)
	}
	if inspectorResolver == nil {
		return nil, errors.New(inspectorResolverRequiredMessageConstant)
	}

	resolvedOutputWriter := outputWriter
	if resolvedOutputWriter == nil {
		resolvedOutputWriter = NewPipelineOutputWriter(nil)
	}

	return &SweepService{
		logger:            logger,
		registryClient:    registryClient,
		inspectorResolver: inspectorResolver,
		outputWriter:      resolvedOutputWriter,
		clock:             clock,
	}, nil
}

// Execute runs one sweep. Deletion targets are fully resolved before any
// delete call is issued; every target is attempted, and the run fails after
// the fact when any deletion failed so automation can detect incomplete
// cleanup.
func (service *SweepService) Execute(executionContext context.Context, options SweepOptions) (SweepResult, error) {
	if len(options.Token) == 0 {
		return SweepResult{}, errors.New(tokenMissingErrorMessageConstant)
	}
	if len(options.Owner) == 0 {
		return SweepResult{}, errors.New(ownerMissingErrorMessageConstant)
	}

	listedPackages, listError := service.registryClient.ListPackages(executionContext, ghcr.ListPackagesRequest{
		Token:            options.Token,
		Owner:            options.Owner,
		OwnerType:        options.OwnerType,
		RepositoryFilter: options.Repository,
		PackageNames:     options.PackageNames,
	})
	if listError != nil {
		return SweepResult{}, listError
	}

	filterOptions := FilterOptions{
		UntaggedOnly:     options.UntaggedOnly,
		OlderThanSeconds: options.OlderThanSeconds,
	}

	var deletionTargets []DeletionTarget
	if filterOptions.Enabled() {
		versionTargets, versionTargetsError := service.resolveVersionTargets(executionContext, options, listedPackages, filterOptions)
		if versionTargetsError != nil {
			return SweepResult{}, versionTargetsError
		}
		deletionTargets = versionTargets
	} else {
		// Without version filters the listed packages themselves are deleted,
		// wholesale, including every version they contain.
		service.logger.Info(packageModeInfoMessageConstant, zap.String(logFieldServiceOwnerConstant, options.Owner))
		for _, listedPackage := range listedPackages {
			deletionTargets = append(deletionTargets, DeletionTarget{
				Description: fmt.Sprintf(packageTargetDescriptionTemplateConstant, listedPackage.Name),
				URL:         listedPackage.URL,
			})
		}
	}

	if len(deletionTargets) == 0 {
		service.logger.Info(noTargetsInfoMessageConstant)
	}

	deletionExecutor := NewDeletionExecutor(service.logger, service.registryClient, options.DryRun)
	deletedCount, failedCount := deletionExecutor.DeleteAll(executionContext, options.Token, deletionTargets)

	sweepResult := SweepResult{
		TargetCount:  len(deletionTargets),
		DeletedCount: deletedCount,
		FailedCount:  failedCount,
	}

	service.logger.Info(
		sweepCompletedInfoMessageConstant,
		zap.Int(logFieldTargetCountConstant, sweepResult.TargetCount),
		zap.Int(logFieldDeletedCountConstant, sweepResult.DeletedCount),
		zap.Int(logFieldFailedCountConstant, sweepResult.FailedCount),
	)

	if outputError := service.outputWriter.WriteDeletedCount(sweepResult.DeletedCount); outputError != nil {
		return sweepResult, outputError
	}

	if sweepResult.FailedCount > 0 {
		return sweepResult, fmt.Errorf(deletionFailuresErrorTemplateConstant, sweepResult.FailedCount, sweepResult.TargetCount)
	}

	return sweepResult, nil
}

func (service *SweepService) resolveVersionTargets(executionContext context.Context, options SweepOptions, listedPackages []ghcr.Package, filterOptions FilterOptions) ([]DeletionTarget, error) {
	versionsByPackage := make(map[string][]ghcr.PackageVersion, len(listedPackages))
	for _, listedPackage := range listedPackages {
		packageVersions, versionsError := service.registryClient.ListVersions(executionContext, options.Token, listedPackage.URL)
		if versionsError != nil {
			return nil, fmt.Errorf(versionListingErrorTemplateConstant, listedPackage.Name, versionsError)
		}
		versionsByPackage[listedPackage.Name] = packageVersions
	}

	protectedDigests := map[string]struct{}{}
	if options.ExceptUntaggedMultiplatform {
		inspector, inspectorError := service.inspectorResolver.Resolve(options.Token)
		if inspectorError != nil {
			return nil, inspectorError
		}

		digestResolver, resolverError := NewProtectedDigestResolver(service.logger, inspector)
		if resolverError != nil {
			return nil, resolverError
		}

		resolvedDigests, resolutionError := digestResolver.ResolveProtectedDigests(executionContext, options.Owner, versionsByPackage)
		if resolutionError != nil {
			return nil, resolutionError
		}
		protectedDigests = resolvedDigests
	}

	retentionFilter := NewRetentionFilter(service.logger, service.clock)
	candidates := retentionFilter.SelectCandidates(versionsByPackage, protectedDigests, filterOptions)

	deletionTargets := make([]DeletionTarget, 0, len(candidates))
	for _, candidate := range candidates {
		deletionTargets = append(deletionTargets, DeletionTarget{
			Description: fmt.Sprintf(versionTargetDescriptionTemplateConstant, candidate.PackageName, candidate.Version.Name),
			URL:         candidate.Version.URL,
		})
	}

	return deletionTargets, nil
}
