package watchlist

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetrack/cinetrack/internal/media"
)

func cachedItems() []Item {
	return []Item{
		{ID: "a", UserID: LocalUserID, ExternalID: 1, Type: media.TypeMovie},
		{ID: "b", UserID: LocalUserID, ExternalID: 2, Type: media.TypeShow},
		{ID: "c", UserID: LocalUserID, ExternalID: 3, Type: media.TypeMovie},
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := NewCache()
	c.Set(LocalUserID, cachedItems())

	got, ok := c.Get(LocalUserID)
	require.True(t, ok)
	got[0].ID = "mutated"

	again, _ := c.Get(LocalUserID)
	assert.Equal(t, "a", again[0].ID)

	_, ok = c.Get("someone-else")
	assert.False(t, ok)
}

func TestCache_PutAndRestore(t *testing.T) {
	tests := []struct {
		name      string
		key       Key
		item      *Item
		wantAfter []string
		wantIndex int
	}{
		{
			name:      "insert new at front",
			key:       Key{UserID: LocalUserID, ExternalID: 9, Type: media.TypeMovie},
			item:      &Item{ID: "tmp-1", ExternalID: 9, Type: media.TypeMovie},
			wantAfter: []string{"tmp-1", "a", "b", "c"},
			wantIndex: -1,
		},
		{
			name:      "replace in place",
			key:       Key{UserID: LocalUserID, ExternalID: 2, Type: media.TypeShow},
			item:      &Item{ID: "b2", ExternalID: 2, Type: media.TypeShow},
			wantAfter: []string{"a", "b2", "c"},
			wantIndex: 1,
		},
		{
			name:      "delete",
			key:       Key{UserID: LocalUserID, ExternalID: 3, Type: media.TypeMovie},
			wantAfter: []string{"a", "b"},
			wantIndex: 2,
		},
		{
			name:      "same id different type is distinct",
			key:       Key{UserID: LocalUserID, ExternalID: 1, Type: media.TypeShow},
			item:      &Item{ID: "show-1", ExternalID: 1, Type: media.TypeShow},
			wantAfter: []string{"show-1", "a", "b", "c"},
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			c.Set(LocalUserID, cachedItems())

			prev, index, ok := c.put(tt.key, tt.item)
			require.True(t, ok)
			assert.Equal(t, tt.wantIndex, index)
			assert.Equal(t, tt.wantIndex >= 0, prev != nil)

			after, _ := c.Get(LocalUserID)
			assert.Equal(t, tt.wantAfter, ids(after))

			c.restore(tt.key, prev, index)
			restored, _ := c.Get(LocalUserID)
			assert.Equal(t, cachedItems(), restored)
		})
	}
}

func TestCache_PutWithoutCachedList(t *testing.T) {
	c := NewCache()
	_, _, ok := c.put(Key{UserID: "u", ExternalID: 1, Type: media.TypeMovie}, &Item{ID: "x"})
	assert.False(t, ok)

	_, cached := c.Get("u")
	assert.False(t, cached, "put must not create a partial list")
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache()
	c.Set("u1", cachedItems())
	c.Set("u2", nil)

	c.Invalidate("u1")
	_, ok := c.Get("u1")
	assert.False(t, ok)

	empty, ok := c.Get("u2")
	assert.True(t, ok)
	assert.Empty(t, empty)

	c.InvalidateAll()
	_, ok = c.Get("u2")
	assert.False(t, ok)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	key := Key{UserID: "u", ExternalID: 1, Type: media.TypeMovie}

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(key)
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, km.locks, "released locks are discarded")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	unlockA := km.Lock(Key{UserID: "u", ExternalID: 1, Type: media.TypeMovie})
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock(Key{UserID: "u", ExternalID: 1, Type: media.TypeShow})
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestCache_Fill(t *testing.T) {
	t.Run("empty entry is filled", func(t *testing.T) {
		c := NewCache()
		v := c.Version(LocalUserID)
		got := c.Fill(LocalUserID, cachedItems(), v)
		assert.Equal(t, []string{"a", "b", "c"}, ids(got))

		cached, ok := c.Get(LocalUserID)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, ids(cached))
	})

	t.Run("cached entry wins over the read", func(t *testing.T) {
		c := NewCache()
		v := c.Version(LocalUserID)
		c.Set(LocalUserID, cachedItems()[:1])

		got := c.Fill(LocalUserID, cachedItems(), v)
		assert.Equal(t, []string{"a"}, ids(got))
	})

	t.Run("invalidated while reading is not cached", func(t *testing.T) {
		c := NewCache()
		v := c.Version(LocalUserID)
		c.Invalidate(LocalUserID)

		got := c.Fill(LocalUserID, cachedItems(), v)
		assert.Len(t, got, 3)
		_, ok := c.Get(LocalUserID)
		assert.False(t, ok)
	})

	t.Run("invalidate all bumps every user", func(t *testing.T) {
		c := NewCache()
		v := c.Version("alice")
		c.InvalidateAll()

		c.Fill("alice", cachedItems(), v)
		_, ok := c.Get("alice")
		assert.False(t, ok)
	})
}
