package sweep

import (
	"fmt"
	"os"
)

const (
	pipelineOutputEnvironmentNameConstant = "GITHUB_OUTPUT"
	deletedCountOutputTemplateConstant    = "num_deleted=%d\n"
	outputFileOpenErrorTemplateConstant   = "unable to open pipeline output file %s: %w"
	outputFileWriteErrorTemplateConstant  = "unable to write pipeline output file %s: %w"
	outputFilePermissionsConstant         = 0o644
)

// PipelineOutputWriter appends result variables to the CI pipeline output file.
//
// When the environment does not name an output file, writes are silently
// skipped so local runs behave the same as pipeline runs.
type PipelineOutputWriter struct {
	environmentLookup EnvironmentLookup
}

// NewPipelineOutputWriter creates a writer with an optional lookup override.
func NewPipelineOutputWriter(environmentLookup EnvironmentLookup) *PipelineOutputWriter {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	return &PipelineOutputWriter{environmentLookup: resolvedEnvironmentLookup}
}

// WriteDeletedCount appends the num_deleted output variable when a pipeline output file is configured.
func (writer *PipelineOutputWriter) WriteDeletedCount(deletedCount int) error {
	outputFilePath, outputConfigured := writer.environmentLookup(pipelineOutputEnvironmentNameConstant)
	if !outputConfigured || len(outputFilePath) == 0 {
		return nil
	}

	outputFile, openError := os.OpenFile(outputFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(outputFileOpenErrorTemplateConstant, outputFilePath, openError)
	}
	defer func() { _ = outputFile.Close() }()

	if _, writeError := fmt.Fprintf(outputFile, deletedCountOutputTemplateConstant, deletedCount); writeError != nil {
		return fmt.Errorf(outputFileWriteErrorTemplateConstant, outputFilePath, writeError)
	}

	return nil
}
