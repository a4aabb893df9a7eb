package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotestcase/internal/domain"
)

func TestUserUpdate_FieldPresence(t *testing.T) {
	var upd domain.UserUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Maria","avatar":null}`), &upd))

	assert.True(t, upd.Name.Set)
	assert.False(t, upd.Name.Null)
	assert.Equal(t, "Maria", upd.Name.Value)

	assert.True(t, upd.Avatar.Set)
	assert.True(t, upd.Avatar.Null)

	assert.False(t, upd.Email.Set)
	assert.False(t, upd.Password.Set)
}

func TestValidRelease(t *testing.T) {
	assert.True(t, domain.ValidRelease("2025-01"))
	assert.True(t, domain.ValidRelease("2025-12"))
	assert.False(t, domain.ValidRelease("2025-13"))
	assert.False(t, domain.ValidRelease("2025-00"))
	assert.False(t, domain.ValidRelease("2025-1"))
	assert.False(t, domain.ValidRelease("25-01"))
}
