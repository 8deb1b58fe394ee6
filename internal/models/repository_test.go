package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOwnerType(t *testing.T) {
	tests := []struct {
		input       string
		expected    OwnerType
		expectError bool
	}{
		{input: "user", expected: OwnerTypeUser},
		{input: " USER ", expected: OwnerTypeUser},
		{input: "org", expected: OwnerTypeOrganization},
		{input: "organization", expected: OwnerTypeOrganization},
		{input: "", expectError: true},
		{input: "team", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ownerType, err := ParseOwnerType(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ownerType)
		})
	}
}

func TestRepository_Visibility(t *testing.T) {
	assert.Equal(t, "private", Repository{Private: true}.Visibility())
	assert.Equal(t, "public", Repository{}.Visibility())
}
