package sweep

import "strings"

const (
	defaultTokenSourceValueConstant   = "env:GITHUB_TOKEN"
	defaultOwnerTypeValueConstant     = "org"
	defaultInspectorValueConstant     = "docker"
	ownerConfigurationKeyConstant     = "owner"
	ownerTypeConfigurationKeyConstant = "owner_type"
	tokenSourceConfigurationKey       = "token_source"
	inspectorConfigurationKeyConstant = "inspector"
	configurationKeySeparatorConstant = "."
)

// Configuration aggregates settings for the sweep command.
type Configuration struct {
	Owner                       string   `mapstructure:"owner"`
	OwnerType                   string   `mapstructure:"owner_type"`
	Repository                  string   `mapstructure:"repository"`
	PackageNames                []string `mapstructure:"package_names"`
	TokenSource                 string   `mapstructure:"token_source"`
	UntaggedOnly                bool     `mapstructure:"untagged_only"`
	ExceptUntaggedMultiplatform bool     `mapstructure:"except_untagged_multiplatform"`
	OlderThanSeconds            int64    `mapstructure:"older"`
	DryRun                      bool     `mapstructure:"dry_run"`
	Inspector                   string   `mapstructure:"inspector"`
	ServiceBaseURL              string   `mapstructure:"service_base_url"`
	PageSize                    int      `mapstructure:"page_size"`
}

// DefaultConfiguration supplies baseline values for the sweep configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		OwnerType:   defaultOwnerTypeValueConstant,
		TokenSource: defaultTokenSourceValueConstant,
		Inspector:   defaultInspectorValueConstant,
	}
}

// DefaultConfigurationValues exposes defaults keyed for the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		prefixedConfigurationKey(configurationKeyPrefix, ownerTypeConfigurationKeyConstant): defaultOwnerTypeValueConstant,
		prefixedConfigurationKey(configurationKeyPrefix, tokenSourceConfigurationKey):       defaultTokenSourceValueConstant,
		prefixedConfigurationKey(configurationKeyPrefix, inspectorConfigurationKeyConstant): defaultInspectorValueConstant,
	}
}

// Sanitize trims configured values and removes empty entries.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Owner = strings.TrimSpace(configuration.Owner)
	sanitized.Repository = strings.TrimSpace(configuration.Repository)
	sanitized.PackageNames = sanitizePackageNames(configuration.PackageNames)
	sanitized.ServiceBaseURL = strings.TrimSpace(configuration.ServiceBaseURL)
	if sanitized.PageSize < 0 {
		sanitized.PageSize = 0
	}
	return sanitized
}

func sanitizePackageNames(candidateNames []string) []string {
	sanitizedNames := make([]string, 0, len(candidateNames))
	for _, candidateName := range candidateNames {
		trimmedName := strings.ToLower(strings.TrimSpace(candidateName))
		if len(trimmedName) == 0 {
			continue
		}
		sanitizedNames = append(sanitizedNames, trimmedName)
	}
	if len(sanitizedNames) == 0 {
		return nil
	}
	return sanitizedNames
}

func prefixedConfigurationKey(configurationKeyPrefix string, configurationKey string) string {
	if len(configurationKeyPrefix) == 0 {
		return configurationKey
	}
	return configurationKeyPrefix + configurationKeySeparatorConstant + configurationKey
}
