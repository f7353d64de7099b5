package sweep

import (
	"context"

	"go.uber.org/zap"
)

const (
	targetDeletedInfoMessageConstant    = "deleted"
	targetFailedErrorMessageConstant    = "deletion failed"
	dryRunSkippedInfoMessageConstant    = "dry-run, would delete"
	logFieldTargetConstant              = "target"
	logFieldDeletionErrorConstant       = "error"
)

// DeletionTarget identifies one package or version scheduled for deletion.
type DeletionTarget struct {
	Description string
	URL         string
}

// TargetDeleter issues a single delete call against the registry API.
type TargetDeleter interface {
	DeleteTarget(executionContext context.Context, token string, targetURL string) error
}

// DeletionExecutor deletes every target sequentially and aggregates the outcome.
type DeletionExecutor struct {
	logger  *zap.Logger
	deleter TargetDeleter
	dryRun  bool
}

// NewDeletionExecutor constructs an executor around the supplied deleter.
func NewDeletionExecutor(logger *zap.Logger, deleter TargetDeleter, dryRun bool) *DeletionExecutor {
	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &DeletionExecutor{logger: resolvedLogger, deleter: deleter, dryRun: dryRun}
}

// DeleteAll attempts to delete every target, never stopping on a failure, and
// returns the deleted and failed counts. In dry-run mode no delete call is
// issued and both counts stay zero.
func (executor *DeletionExecutor) DeleteAll(executionContext context.Context, token string, targets []DeletionTarget) (int, int) {
	deletedCount := 0
	failedCount := 0

	for _, target := range targets {
		if executor.dryRun {
			executor.logger.Info(dryRunSkippedInfoMessageConstant, zap.String(logFieldTargetConstant, target.Description))
			continue
		}

		deletionError := executor.deleter.DeleteTarget(executionContext, token, target.URL)
		if deletionError != nil {
			failedCount++
			executor.logger.Error(
				targetFailedErrorMessageConstant,
				zap.String(logFieldTargetConstant, target.Description),
				zap.String(logFieldDeletionErrorConstant, deletionError.Error()),
			)
			continue
		}

		deletedCount++
		executor.logger.Info(targetDeletedInfoMessageConstant, zap.String(logFieldTargetConstant, target.Description))
	}

	return deletedCount, failedCount
}
