package rollgate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlagCache_GetSet(t *testing.T) {
	t.Run("empty cache reports miss", func(t *testing.T) {
		cache := NewFlagCache(defaultCacheConfig())
		result := cache.Get()
		assert.False(t, result.Found)
	})

	t.Run("stores and retrieves a fresh snapshot", func(t *testing.T) {
		cache := NewFlagCache(defaultCacheConfig())
		flags := map[string]FlagValue{"a": BoolValue(true), "b": NumberValue(7)}

		cache.Set(flags)
		result := cache.Get()

		assert.True(t, result.Found)
		assert.False(t, result.Stale)
		v, _ := result.Flags["a"].AsBool()
		assert.True(t, v)
	})
}

func TestFlagCache_TTL(t *testing.T) {
	t.Run("serves stale data after TTL but within StaleTTL", func(t *testing.T) {
		cache := NewFlagCache(CacheConfig{TTL: 10 * time.Millisecond, StaleTTL: time.Hour, Enabled: true})
		cache.Set(map[string]FlagValue{"a": BoolValue(true)})

		time.Sleep(20 * time.Millisecond)

		result := cache.Get()
		assert.True(t, result.Found)
		assert.True(t, result.Stale)
	})

	t.Run("reports miss once past StaleTTL", func(t *testing.T) {
		cache := NewFlagCache(CacheConfig{TTL: 5 * time.Millisecond, StaleTTL: 10 * time.Millisecond, Enabled: true})
		cache.Set(map[string]FlagValue{"a": BoolValue(true)})

		time.Sleep(20 * time.Millisecond)

		result := cache.Get()
		assert.False(t, result.Found)
	})
}

func TestFlagCache_HasFreshHasAny(t *testing.T) {
	cache := NewFlagCache(CacheConfig{TTL: 5 * time.Millisecond, StaleTTL: time.Hour, Enabled: true})
	cache.Set(map[string]FlagValue{"a": BoolValue(true)})

	assert.True(t, cache.HasFresh())
	assert.True(t, cache.HasAny())

	time.Sleep(10 * time.Millisecond)

	assert.False(t, cache.HasFresh())
	assert.True(t, cache.HasAny())
}

func TestFlagCache_Clear(t *testing.T) {
	cache := NewFlagCache(defaultCacheConfig())
	cache.Set(map[string]FlagValue{"a": BoolValue(true)})
	cache.Clear()

	assert.False(t, cache.Get().Found)
}

func TestFlagCache_Disabled(t *testing.T) {
	cache := NewFlagCache(CacheConfig{TTL: time.Hour, StaleTTL: time.Hour, Enabled: false})
	cache.Set(map[string]FlagValue{"a": BoolValue(true)})

	assert.False(t, cache.Get().Found)
}
