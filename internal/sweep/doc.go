// Package sweep deletes GHCR container package versions according to a retention policy.
//
// It provides CommandBuilder for wiring the Cobra command, SweepService which
// orchestrates listing, dependency protection, filtering, and deletion,
// plus RetentionFilter, ProtectedDigestResolver, DeletionExecutor, token
// resolution utilities, and the pipeline output writer.
package sweep
