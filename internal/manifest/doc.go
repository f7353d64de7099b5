// Package manifest inspects container image manifests for sub-image references.
//
// The Inspector interface answers which platform-specific digests a
// multi-platform image depends on. DockerCLIInspector shells out to
// "docker manifest inspect" while RegistryInspector queries the registry
// manifest endpoint directly; both decode OCI index documents.
package manifest
