package watchlist

import (
	"slices"
	"sync"
)

// Cache holds each user's list as last read or optimistically written.
// Every change to a user's entry bumps that user's version, so a list read
// from the store is only cached if nothing touched the entry meanwhile.
type Cache struct {
	mu       sync.RWMutex
	lists    map[string][]Item
	versions map[string]uint64
	epoch    uint64
}

// Version identifies the state of a user's entry. Loads compare it to
// decide whether the list they read is still current.
type Version struct {
	epoch uint64
	n     uint64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		lists:    make(map[string][]Item),
		versions: make(map[string]uint64),
	}
}

// Get returns a copy of the user's cached list.
func (c *Cache) Get(userID string) ([]Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, ok := c.lists[userID]
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}

// Version returns the current version of the user's entry. Take it before
// reading the store and pass it to Fill.
func (c *Cache) Version(userID string) Version {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Version{epoch: c.epoch, n: c.versions[userID]}
}

// Fill caches items read from the store at version v. If the entry is
// already cached, or changed since v, the cache is left alone: a cached
// entry is returned in place of items, otherwise items is returned as read.
func (c *Cache) Fill(userID string, items []Item, v Version) []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.lists[userID]; ok {
		return slices.Clone(cached)
	}
	if items == nil {
		items = []Item{}
	}
	if v == (Version{epoch: c.epoch, n: c.versions[userID]}) {
		c.lists[userID] = slices.Clone(items)
	}
	return slices.Clone(items)
}

// Set replaces the user's cached list.
func (c *Cache) Set(userID string, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if items == nil {
		items = []Item{}
	}
	c.lists[userID] = slices.Clone(items)
	c.versions[userID]++
}

// Invalidate drops the user's list so the next read goes to the store.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, userID)
	c.versions[userID]++
}

// InvalidateAll drops every cached list.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = make(map[string][]Item)
	c.epoch++
}

// put replaces the entry for key with item, inserting new items at the
// front, or deletes it when item is nil. It returns the previous entry and
// its position (-1 if absent). ok is false when the user's list is not
// cached, in which case nothing changes.
func (c *Cache) put(key Key, item *Item) (prev *Item, index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[key.UserID]
	if !ok {
		return nil, -1, false
	}

	index = indexOf(items, key)
	if index >= 0 {
		p := items[index]
		prev = &p
	}

	switch {
	case item == nil && index >= 0:
		items = slices.Delete(slices.Clone(items), index, index+1)
	case item != nil && index >= 0:
		items = slices.Clone(items)
		items[index] = *item
	case item != nil:
		items = slices.Insert(slices.Clone(items), 0, *item)
	}
	c.lists[key.UserID] = items
	c.versions[key.UserID]++
	return prev, index, true
}

// restore puts back the entry put replaced: prev at its old position, or no
// entry at all if there was none.
func (c *Cache) restore(key Key, prev *Item, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[key.UserID]
	if !ok {
		return
	}
	items = slices.Clone(items)

	if cur := indexOf(items, key); cur >= 0 {
		items = slices.Delete(items, cur, cur+1)
	}
	if prev != nil {
		index = min(max(index, 0), len(items))
		items = slices.Insert(items, index, *prev)
	}
	c.lists[key.UserID] = items
	c.versions[key.UserID]++
}

func indexOf(items []Item, key Key) int {
	return slices.IndexFunc(items, func(i Item) bool {
		return matches(i, key.ExternalID, key.Type)
	})
}

// keyedMutex serializes work per item so a second mutation of an item
// starts from the outcome of the first.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[Key]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[Key]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key Key) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
