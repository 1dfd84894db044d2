package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklist_InMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := NewTokenBlacklist(nil)
	b.now = func() time.Time { return now }

	assert.False(t, b.IsRevoked(ctx, "jti-1"))
	require.NoError(t, b.Revoke(ctx, "jti-1", now.Add(time.Hour)))
	assert.True(t, b.IsRevoked(ctx, "jti-1"))

	now = now.Add(2 * time.Hour)
	assert.False(t, b.IsRevoked(ctx, "jti-1"), "entries lapse with the token")
}

func TestTokenBlacklist_IgnoresExpiredTokens(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(nil)

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Now().Add(-time.Minute)))
	assert.False(t, b.IsRevoked(ctx, "jti-1"))
	assert.False(t, b.IsRevoked(ctx, ""))
}

func TestCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewCache(nil)

	assert.False(t, c.Enabled())
	c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute)
	var out map[string]int
	assert.False(t, c.GetJSON(ctx, "k", &out))
	c.InvalidateByPrefix(ctx, "k")
	c.BumpVersion(ctx, "v")
	_, ok := c.Version(ctx, "v")
	assert.False(t, ok)

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "", SanitizeText("   \n\t "))
	assert.Equal(t, "hello", SanitizeText("  hello  "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "bold", SanitizeText("<b>bold</b>"))
	assert.Equal(t, "R&D < a > b", SanitizeText("R&D < a > b"))
	assert.Equal(t, `"quoted" & 'single'`, SanitizeText(`"quoted" & 'single'`))
}
