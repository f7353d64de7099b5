package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avetis/ghcrsweep/internal/ghcr"
	"github.com/avetis/ghcrsweep/internal/utils/flags"
)

const (
	commandUseConstant   = "sweep"
	commandShortConstant = "Delete GitHub Container Registry package versions by retention policy"
	commandLongConstant  = "sweep lists container packages owned by an organization or user and deletes the versions selected by the configured retention filters."

	tokenFlagNameConstant                       = "token"
	tokenFlagUsageConstant                      = "GitHub token with the delete:packages scope"
	tokenSourceFlagNameConstant                 = "token-source"
	tokenSourceFlagUsageConstant                = "token source specification (env:NAME or file:/path)"
	ownerFlagNameConstant                       = "owner"
	ownerFlagUsageConstant                      = "organization or user owning the packages"
	ownerTypeFlagNameConstant                   = "owner-type"
	ownerTypeFlagUsageTemplateConstant          = "owner account type"
	repositoryFlagNameConstant                  = "repository"
	repositoryFlagUsageConstant                 = "restrict packages to this repository (NAME or OWNER/NAME)"
	packageNamesFlagNameConstant                = "package-names"
	packageNamesFlagUsageConstant               = "comma separated package names to sweep"
	untaggedOnlyFlagNameConstant                = "untagged-only"
	untaggedOnlyFlagUsageConstant               = "delete only untagged package versions"
	exceptUntaggedMultiplatformFlagNameConstant = "except-untagged-multiplatform"
	exceptUntaggedMultiplatformFlagUsage        = "keep untagged versions referenced by tagged multi-platform manifests"
	olderFlagNameConstant                       = "older"
	olderFlagUsageConstant                      = "delete only versions updated more than this many seconds ago"
	dryRunFlagNameConstant                      = "dry-run"
	dryRunFlagUsageConstant                     = "log deletions without issuing them"
	inspectorFlagNameConstant                   = "inspector"
	inspectorFlagUsageTemplateConstant          = "manifest inspector"

	unexpectedArgumentsErrorTemplateConstant    = "unexpected arguments: %v"
	loggerProviderMissingMessageConstant        = "logger provider not configured"
	serviceResolverMissingMessageConstant       = "service resolver not configured"
	ownerRequiredMessageConstant                = "owner must be provided via --owner or configuration"
	repositoryOwnerMismatchTemplateConstant     = "repository %q does not belong to owner %q"
	negativeOlderThresholdMessageConstant       = "older threshold must not be negative"
	ownerTypeInvalidErrorTemplateConstant       = "invalid owner type: %w"
	inspectorInvalidErrorTemplateConstant       = "invalid inspector: %w"
	tokenResolutionFailedErrorTemplateConstant  = "resolve token: %w"
	tokenSourceInvalidErrorTemplateConstant     = "invalid token source: %w"
	repositoryOwnerSeparatorConstant            = "/"
	repositoryOwnerSeparatorSplitCountConstant  = 2
	serviceResolutionFailedErrorTemplateBuilder = "resolve sweep service: %w"
)

// LoggerProvider supplies the logger used by command executions.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies configuration defaults for the command.
type ConfigurationProvider func() Configuration

// SweepExecutor executes a configured sweep.
type SweepExecutor interface {
	Execute(executionContext context.Context, options SweepOptions) (SweepResult, error)
}

// ServiceResolver builds the sweep executor used by the command.
type ServiceResolver interface {
	Resolve(logger *zap.Logger) (SweepExecutor, error)
}

// CommandBuilder assembles the sweep command with its collaborators.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	HTTPClient            ghcr.HTTPClient
	EnvironmentLookup     EnvironmentLookup
	FileReader            FileReader
	TokenResolver         TokenResolver
	Clock                 Clock

	serviceBaseURL string
	pageSize       int
	inspectorMode  InspectorMode
}

type commandFlagValues struct {
	untaggedOnly                bool
	exceptUntaggedMultiplatform bool
	dryRun                      bool
}

// Build constructs the sweep command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runSweep(command, arguments, flagValues)
		},
	}
	command.Flags().String(tokenFlagNameConstant, "", tokenFlagUsageConstant)
	command.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagUsageConstant)
	command.Flags().String(ownerFlagNameConstant, "", ownerFlagUsageConstant)
	command.Flags().String(ownerTypeFlagNameConstant, "", flags.FormatChoiceUsage(string(ghcr.OrganizationOwnerType), []string{string(ghcr.OrganizationOwnerType), string(ghcr.UserOwnerType)}, ownerTypeFlagUsageTemplateConstant))
	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagUsageConstant)
	command.Flags().StringSlice(packageNamesFlagNameConstant, nil, packageNamesFlagUsageConstant)
	command.Flags().Int64(olderFlagNameConstant, 0, olderFlagUsageConstant)
	command.Flags().String(inspectorFlagNameConstant, "", flags.FormatChoiceUsage(string(DockerInspectorMode), []string{string(DockerInspectorMode), string(RegistryInspectorMode)}, inspectorFlagUsageTemplateConstant))
	flags.AddToggleFlag(command.Flags(), &flagValues.untaggedOnly, untaggedOnlyFlagNameConstant, false, untaggedOnlyFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.exceptUntaggedMultiplatform, exceptUntaggedMultiplatformFlagNameConstant, false, exceptUntaggedMultiplatformFlagUsage)
	flags.AddToggleFlag(command.Flags(), &flagValues.dryRun, dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) runSweep(command *cobra.Command, arguments []string, flagValues *commandFlagValues) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsErrorTemplateConstant, arguments)
	}
	options, optionsError := builder.parseSweepOptions(command, flagValues)
	if optionsError != nil {
		return optionsError
	}
	executionLogger, loggerError := builder.resolveLogger()
	if loggerError != nil {
		return loggerError
	}
	sweepExecutor, resolverError := builder.resolveService(executionLogger)
	if resolverError != nil {
		return fmt.Errorf(serviceResolutionFailedErrorTemplateBuilder, resolverError)
	}
	_, executionError := sweepExecutor.Execute(command.Context(), options)
	return executionError
}

func (builder *CommandBuilder) parseSweepOptions(command *cobra.Command, flagValues *commandFlagValues) (SweepOptions, error) {
	configuration := builder.resolveConfiguration()

	ownerValue := selectStringValue(command, ownerFlagNameConstant, configuration.Owner)
	if len(ownerValue) == 0 {
		return SweepOptions{}, fmt.Errorf(ownerRequiredMessageConstant)
	}
	ownerValue = strings.ToLower(ownerValue)

	repositoryValue := selectStringValue(command, repositoryFlagNameConstant, configuration.Repository)
	if strings.Contains(repositoryValue, repositoryOwnerSeparatorConstant) {
		repositoryParts := strings.SplitN(repositoryValue, repositoryOwnerSeparatorConstant, repositoryOwnerSeparatorSplitCountConstant)
		if !strings.EqualFold(repositoryParts[0], ownerValue) {
			return SweepOptions{}, fmt.Errorf(repositoryOwnerMismatchTemplateConstant, repositoryValue, ownerValue)
		}
		repositoryValue = repositoryParts[1]
	}
	repositoryValue = strings.ToLower(repositoryValue)

	ownerTypeValue := selectStringValue(command, ownerTypeFlagNameConstant, configuration.OwnerType)
	ownerType, ownerTypeError := ghcr.ParseOwnerType(ownerTypeValue)
	if ownerTypeError != nil {
		return SweepOptions{}, fmt.Errorf(ownerTypeInvalidErrorTemplateConstant, ownerTypeError)
	}

	packageNames := configuration.Sanitize().PackageNames
	if command.Flags().Changed(packageNamesFlagNameConstant) {
		flaggedNames, _ := command.Flags().GetStringSlice(packageNamesFlagNameConstant)
		packageNames = sanitizePackageNames(flaggedNames)
	}

	olderThresholdSeconds := configuration.OlderThanSeconds
	if command.Flags().Changed(olderFlagNameConstant) {
		olderThresholdSeconds, _ = command.Flags().GetInt64(olderFlagNameConstant)
	}
	if olderThresholdSeconds < 0 {
		return SweepOptions{}, fmt.Errorf(negativeOlderThresholdMessageConstant)
	}

	inspectorValue := selectStringValue(command, inspectorFlagNameConstant, configuration.Inspector)
	inspectorMode, inspectorError := ParseInspectorMode(inspectorValue)
	if inspectorError != nil {
		return SweepOptions{}, fmt.Errorf(inspectorInvalidErrorTemplateConstant, inspectorError)
	}
	builder.inspectorMode = inspectorMode
	builder.serviceBaseURL = configuration.Sanitize().ServiceBaseURL
	builder.pageSize = configuration.Sanitize().PageSize

	tokenValue, tokenError := builder.resolveToken(command, configuration)
	if tokenError != nil {
		return SweepOptions{}, tokenError
	}

	options := SweepOptions{
		Token:                       tokenValue,
		Owner:                       ownerValue,
		OwnerType:                   ownerType,
		Repository:                  repositoryValue,
		PackageNames:                packageNames,
		UntaggedOnly:                resolveToggleValue(command, untaggedOnlyFlagNameConstant, flagValues.untaggedOnly, configuration.UntaggedOnly),
		ExceptUntaggedMultiplatform: resolveToggleValue(command, exceptUntaggedMultiplatformFlagNameConstant, flagValues.exceptUntaggedMultiplatform, configuration.ExceptUntaggedMultiplatform),
		OlderThanSeconds:            olderThresholdSeconds,
		DryRun:                      resolveToggleValue(command, dryRunFlagNameConstant, flagValues.dryRun, configuration.DryRun),
	}
	return options, nil
}

func (builder *CommandBuilder) resolveToken(command *cobra.Command, configuration Configuration) (string, error) {
	tokenValue, _ := command.Flags().GetString(tokenFlagNameConstant)
	tokenValue = strings.TrimSpace(tokenValue)
	if len(tokenValue) > 0 {
		return tokenValue, nil
	}
	tokenSourceValue := selectStringValue(command, tokenSourceFlagNameConstant, configuration.TokenSource)
	if len(tokenSourceValue) == 0 {
		tokenSourceValue = defaultTokenSourceValueConstant
	}
	tokenSource, parseError := ParseTokenSource(tokenSourceValue)
	if parseError != nil {
		return "", fmt.Errorf(tokenSourceInvalidErrorTemplateConstant, parseError)
	}
	tokenResolver := builder.TokenResolver
	if tokenResolver == nil {
		tokenResolver = NewTokenResolver(builder.EnvironmentLookup, builder.FileReader)
	}
	resolvedToken, resolveError := tokenResolver.ResolveToken(command.Context(), tokenSource)
	if resolveError != nil {
		return "", fmt.Errorf(tokenResolutionFailedErrorTemplateConstant, resolveError)
	}
	return resolvedToken, nil
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() (*zap.Logger, error) {
	if builder.LoggerProvider == nil {
		return nil, fmt.Errorf(loggerProviderMissingMessageConstant)
	}
	providedLogger := builder.LoggerProvider()
	if providedLogger == nil {
		return nil, fmt.Errorf(loggerProviderMissingMessageConstant)
	}
	return providedLogger, nil
}

func (builder *CommandBuilder) resolveService(executionLogger *zap.Logger) (SweepExecutor, error) {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver.Resolve(executionLogger)
	}
	defaultResolver := &DefaultServiceResolver{
		HTTPClient:        builder.HTTPClient,
		ServiceBaseURL:    builder.serviceBaseURL,
		PageSize:          builder.pageSize,
		InspectorMode:     builder.inspectorMode,
		EnvironmentLookup: builder.EnvironmentLookup,
		Clock:             builder.Clock,
	}
	return defaultResolver.Resolve(executionLogger)
}

// DefaultServiceResolver wires the production sweep service.
type DefaultServiceResolver struct {
	HTTPClient        ghcr.HTTPClient
	ServiceBaseURL    string
	PageSize          int
	InspectorMode     InspectorMode
	EnvironmentLookup EnvironmentLookup
	Clock             Clock
}

// Resolve builds a sweep service backed by the GitHub packages API.
func (resolver *DefaultServiceResolver) Resolve(executionLogger *zap.Logger) (SweepExecutor, error) {
	registryClient, clientError := ghcr.NewRegistryClient(executionLogger, resolver.HTTPClient, ghcr.ClientConfiguration{
		BaseURL:  resolver.ServiceBaseURL,
		PageSize: resolver.PageSize,
	})
	if clientError != nil {
		return nil, clientError
	}
	inspectorResolver := &DefaultInspectorResolver{Logger: executionLogger, Mode: resolver.InspectorMode}
	outputWriter := NewPipelineOutputWriter(resolver.EnvironmentLookup)
	return NewSweepService(executionLogger, registryClient, inspectorResolver, outputWriter, resolver.Clock)
}

func selectStringValue(command *cobra.Command, flagName string, configuredValue string) string {
	if command.Flags().Changed(flagName) {
		flaggedValue, _ := command.Flags().GetString(flagName)
		return strings.TrimSpace(flaggedValue)
	}
	return strings.TrimSpace(configuredValue)
}

func resolveToggleValue(command *cobra.Command, flagName string, flaggedValue bool, configuredValue bool) bool {
	if command.Flags().Changed(flagName) {
		return flaggedValue
	}
	return configuredValue
}
