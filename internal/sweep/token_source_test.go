package sweep_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avetis/ghcrsweep/internal/sweep"
)

const (
	tokenEnvironmentNameConstant    = "GHCR_TOKEN"
	tokenFilePathConstant           = "/secrets/ghcr-token"
	environmentTokenValueConstant   = "environment-token"
	fileTokenValueConstant          = "file-token"
	paddedFileTokenContentConstant  = "\n  file-token  \n"
	fileReadFailureMessageConstant  = "permission denied"
	unsupportedSourceValueConstant  = "vault:secret/ghcr"
	bareEnvironmentNameConstant     = "GITHUB_TOKEN"
)

func TestParseTokenSource(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name           string
		input          string
		expectedSource sweep.TokenSourceConfiguration
		expectedError  bool
	}{
		{
			name:  "environment_prefixed",
			input: "env:" + tokenEnvironmentNameConstant,
			expectedSource: sweep.TokenSourceConfiguration{
				Type:      sweep.TokenSourceTypeEnvironment,
				Reference: tokenEnvironmentNameConstant,
			},
		},
		{
			name:  "file_prefixed",
			input: "file:" + tokenFilePathConstant,
			expectedSource: sweep.TokenSourceConfiguration{
				Type:      sweep.TokenSourceTypeFile,
				Reference: tokenFilePathConstant,
			},
		},
		{
			name:  "bare_name_defaults_to_environment",
			input: bareEnvironmentNameConstant,
			expectedSource: sweep.TokenSourceConfiguration{
				Type:      sweep.TokenSourceTypeEnvironment,
				Reference: bareEnvironmentNameConstant,
			},
		},
		{
			name:          "empty_value",
			input:         "   ",
			expectedError: true,
		},
		{
			name:          "missing_environment_name",
			input:         "env:",
			expectedError: true,
		},
		{
			name:          "missing_file_path",
			input:         "file:",
			expectedError: true,
		},
		{
			name:          "unsupported_type",
			input:         unsupportedSourceValueConstant,
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			parsedSource, parseError := sweep.ParseTokenSource(testCase.input)
			if testCase.expectedError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedSource, parsedSource)
		})
	}
}

func TestTokenResolverResolvesEnvironmentTokens(testInstance *testing.T) {
	testInstance.Parallel()

	environmentLookup := func(key string) (string, bool) {
		if key == tokenEnvironmentNameConstant {
			return environmentTokenValueConstant, true
		}
		return "", false
	}

	tokenResolver := sweep.NewTokenResolver(environmentLookup, nil)

	resolvedToken, resolveError := tokenResolver.ResolveToken(context.Background(), sweep.TokenSourceConfiguration{
		Type:      sweep.TokenSourceTypeEnvironment,
		Reference: tokenEnvironmentNameConstant,
	})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, environmentTokenValueConstant, resolvedToken)

	_, missingError := tokenResolver.ResolveToken(context.Background(), sweep.TokenSourceConfiguration{
		Type:      sweep.TokenSourceTypeEnvironment,
		Reference: "UNSET_NAME",
	})
	require.Error(testInstance, missingError)
}

func TestTokenResolverResolvesFileTokens(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name          string
		fileContents  string
		readError     error
		expectedToken string
		expectedError bool
	}{
		{
			name:          "trims_whitespace",
			fileContents:  paddedFileTokenContentConstant,
			expectedToken: fileTokenValueConstant,
		},
		{
			name:          "empty_file",
			fileContents:  "   \n",
			expectedError: true,
		},
		{
			name:          "read_failure",
			readError:     errors.New(fileReadFailureMessageConstant),
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			fileReader := func(path string) ([]byte, error) {
				require.Equal(subTest, tokenFilePathConstant, path)
				if testCase.readError != nil {
					return nil, testCase.readError
				}
				return []byte(testCase.fileContents), nil
			}

			tokenResolver := sweep.NewTokenResolver(nil, fileReader)

			resolvedToken, resolveError := tokenResolver.ResolveToken(context.Background(), sweep.TokenSourceConfiguration{
				Type:      sweep.TokenSourceTypeFile,
				Reference: tokenFilePathConstant,
			})
			if testCase.expectedError {
				require.Error(subTest, resolveError)
				return
			}
			require.NoError(subTest, resolveError)
			require.Equal(subTest, testCase.expectedToken, resolvedToken)
		})
	}
}
