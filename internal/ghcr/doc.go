// Package ghcr provides a typed client for the GitHub Packages container APIs.
//
// It defines OwnerType helpers, Package and PackageVersion models, and the
// RegistryClient which performs paginated listing and deletion of container
// packages and their versions. The package powers the sweep CLI command and
// can be pointed at GitHub Enterprise endpoints through its configuration.
package ghcr
