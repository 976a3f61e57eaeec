package authkit_test

import (
	"encoding/json"
	"testing"

	"github.com/contactkit/authkit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStatusLabel(t *testing.T) {
	tests := []struct {
		status authkit.AccountStatus
		label  string
	}{
		{authkit.StatusInactive, "Inactive"},
		{authkit.StatusActive, "Active"},
		{authkit.StatusDeleted, "Deleted"},
		{authkit.StatusBlocked, "Blocked"},
		{authkit.AccountStatus(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, tt.status.Label())
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	user := &authkit.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "$2a$14$secret",
		Status:       authkit.StatusActive,
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.Contains(t, string(raw), "test@example.com")
}
