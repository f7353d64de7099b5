package ghcr

// Package describes one container package owned by a user or organization.
type Package struct {
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	Repository PackageRepository `json:"repository"`
}

// PackageRepository carries the source repository linked to a package.
type PackageRepository struct {
	Name string `json:"name"`
}

// PackageVersion describes one immutable, digest-identified version of a package.
type PackageVersion struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	UpdatedAt string          `json:"updated_at"`
	Metadata  VersionMetadata `json:"metadata"`
}

// VersionMetadata wraps the container metadata section of a version record.
type VersionMetadata struct {
	Container ContainerMetadata `json:"container"`
}

// ContainerMetadata lists the tags currently attached to a version.
type ContainerMetadata struct {
	Tags []string `json:"tags"`
}

// Tags returns the tag list attached to the version.
func (version PackageVersion) Tags() []string {
	return version.Metadata.Container.Tags
}

// IsTagged reports whether the version currently carries at least one tag.
func (version PackageVersion) IsTagged() bool {
	return len(version.Metadata.Container.Tags) > 0
}
