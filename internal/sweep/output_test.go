package sweep_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avetis/ghcrsweep/internal/sweep"
)

const (
	outputFileNameConstant         = "pipeline_output"
	existingOutputContentConstant  = "previous=value\n"
	expectedDeletedCountConstant   = 7
	expectedOutputLineConstant     = "num_deleted=7\n"
)

func TestWriteDeletedCountAppendsToOutputFile(testInstance *testing.T) {
	testInstance.Parallel()

	outputFilePath := filepath.Join(testInstance.TempDir(), outputFileNameConstant)
	require.NoError(testInstance, os.WriteFile(outputFilePath, []byte(existingOutputContentConstant), 0o644))

	environmentLookup := func(key string) (string, bool) {
		return outputFilePath, true
	}

	outputWriter := sweep.NewPipelineOutputWriter(environmentLookup)
	require.NoError(testInstance, outputWriter.WriteDeletedCount(expectedDeletedCountConstant))

	writtenContents, readError := os.ReadFile(outputFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, existingOutputContentConstant+expectedOutputLineConstant, string(writtenContents))
}

func TestWriteDeletedCountSkipsWithoutOutputFile(testInstance *testing.T) {
	testInstance.Parallel()

	environmentLookup := func(key string) (string, bool) {
		return "", false
	}

	outputWriter := sweep.NewPipelineOutputWriter(environmentLookup)
	require.NoError(testInstance, outputWriter.WriteDeletedCount(expectedDeletedCountConstant))
}

func TestWriteDeletedCountCreatesMissingOutputFile(testInstance *testing.T) {
	testInstance.Parallel()

	outputFilePath := filepath.Join(testInstance.TempDir(), outputFileNameConstant)

	environmentLookup := func(key string) (string, bool) {
		return outputFilePath, true
	}

	outputWriter := sweep.NewPipelineOutputWriter(environmentLookup)
	require.NoError(testInstance, outputWriter.WriteDeletedCount(expectedDeletedCountConstant))

	writtenContents, readError := os.ReadFile(outputFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, expectedOutputLineConstant, string(writtenContents))
}
