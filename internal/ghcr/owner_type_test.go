package ghcr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avetis/ghcrsweep/internal/ghcr"
)

const (
	ownerTypeUserInputConstant         = "user"
	ownerTypeOrganizationInputConstant = "org"
	ownerTypeUppercaseInputConstant    = "ORG"
	ownerTypePaddedInputConstant       = "  user  "
	ownerTypeInvalidInputConstant      = "team"
)

func TestParseOwnerType(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name          string
		input         string
		expectedType  ghcr.OwnerType
		expectedError bool
	}{
		{
			name:         "user_value",
			input:        ownerTypeUserInputConstant,
			expectedType: ghcr.UserOwnerType,
		},
		{
			name:         "organization_value",
			input:        ownerTypeOrganizationInputConstant,
			expectedType: ghcr.OrganizationOwnerType,
		},
		{
			name:         "uppercase_value",
			input:        ownerTypeUppercaseInputConstant,
			expectedType: ghcr.OrganizationOwnerType,
		},
		{
			name:         "padded_value",
			input:        ownerTypePaddedInputConstant,
			expectedType: ghcr.UserOwnerType,
		},
		{
			name:          "empty_value",
			input:         "",
			expectedError: true,
		},
		{
			name:          "unsupported_value",
			input:         ownerTypeInvalidInputConstant,
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			parsedType, parseError := ghcr.ParseOwnerType(testCase.input)
			if testCase.expectedError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedType, parsedType)
		})
	}
}

func TestOwnerTypePathSegment(testInstance *testing.T) {
	testInstance.Parallel()

	require.Equal(testInstance, "users", ghcr.UserOwnerType.PathSegment())
	require.Equal(testInstance, "orgs", ghcr.OrganizationOwnerType.PathSegment())
	require.Equal(testInstance, "orgs", ghcr.OwnerType("").PathSegment())
}
