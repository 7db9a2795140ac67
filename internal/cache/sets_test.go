package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewCache(Config{Host: mr.Host(), Port: mr.Port(), Enabled: true})
	require.NoError(t, err)
	return c
}

func TestSAddSMembersSRem(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SAdd(ctx, "set:1", "a", "b"))

	members, err := c.SMembers(ctx, "set:1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	ok, err := c.SIsMember(ctx, "set:1", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.SRem(ctx, "set:1", "a"))
	members, err = c.SMembers(ctx, "set:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}

func TestSMembersOnMissingKeyIsEmptyNotError(t *testing.T) {
	c := newTestCache(t)
	members, err := c.SMembers(context.Background(), "set:missing")
	require.NoError(t, err)
	assert.Empty(t, members)
}
