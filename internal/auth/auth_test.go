package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	assert.True(t, Authorize(RoleAdmin, RoleAdmin))
	assert.True(t, Authorize(RoleUser, RoleUser, RoleAdmin))
	assert.False(t, Authorize(RoleUser, RoleAdmin))
	assert.False(t, Authorize(Role("moderator"), RoleUser, RoleAdmin))
	assert.False(t, Authorize(RoleUser))
}
