// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache keeps paged restaurant search results for a while so the same query doesn't hit the
// network twice. Entries expire by age and are evicted least-recently-used once the cache is full.
// Every mutation rewrites the whole snapshot to durable storage.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/food-lucky-box/lucky-box/luckybox/persistence"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

// StorageKey is where the snapshot lives in the store.
const StorageKey = "restaurant-search-cache"

const (
	DefaultExpiry        = 24 * time.Hour
	DefaultMaxSize       = 200
	DefaultSweepInterval = 30 * time.Minute
)

type Entry struct {
	Data         []restaurant.Restaurant `json:"data"`
	Timestamp    time.Time               `json:"timestamp"`
	LastAccessed time.Time               `json:"lastAccessed"`
}

type Options struct {
	Expiry        time.Duration
	MaxSize       int
	SweepInterval time.Duration
	Clock         clock.Clock
}

type Cache struct {
	store  storage.Store
	clock  clock.Clock
	expiry time.Duration
	max    int

	mu      sync.Mutex
	entries map[string]*Entry

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Key identifies one page of results for an exact coordinate. There is no rounding: a hit needs the
// same floats.
func Key(loc restaurant.Location, page int) string {
	return fmt.Sprintf("%s_%s_%d",
		strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		page)
}

// New loads whatever snapshot the store holds and starts the background sweep. Close stops it.
func New(ctx context.Context, store storage.Store, opts Options) *Cache {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	c := &Cache{
		store:   store,
		clock:   opts.Clock,
		expiry:  opts.Expiry,
		max:     opts.MaxSize,
		entries: make(map[string]*Entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	var snapshot map[string]*Entry
	if persistence.Load(ctx, store, StorageKey, &snapshot) {
		for k, e := range snapshot {
			if e != nil {
				c.entries[k] = e
			}
		}
		zap.S().Infof("Restored %d cached searches", len(c.entries))
	}
	go c.sweepLoop(c.clock.Ticker(opts.SweepInterval))
	return c
}

func (c *Cache) sweepLoop(ticker *clock.Ticker) {
	defer close(c.done)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Sweep(context.Background()); n > 0 {
				zap.S().Infof("Swept %d expired searches", n)
			}
		}
	}
}

// Close stops the background sweep. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Cache) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.Timestamp) > c.expiry
}

// Get returns the cached page for key. Expired entries are dropped on the way.
func (c *Cache) Get(ctx context.Context, key string) ([]restaurant.Restaurant, bool) {
	ctx, span := beeline.StartSpan(ctx, "cache.get")
	defer span.Send()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		span.AddField("hit", false)
		return nil, false
	}
	now := c.clock.Now()
	if c.expired(e, now) {
		delete(c.entries, key)
		c.persistLocked(ctx)
		span.AddField("hit", false)
		span.AddField("expired", true)
		return nil, false
	}
	e.LastAccessed = now
	c.persistLocked(ctx)
	span.AddField("hit", true)
	return slices.Clone(e.Data), true
}

// Set stores data under key, then drops expired entries and evicts the least recently used ones until the
// cache is within its size bound.
func (c *Cache) Set(ctx context.Context, key string, data []restaurant.Restaurant) {
	ctx, span := beeline.StartSpan(ctx, "cache.set")
	defer span.Send()
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.entries[key] = &Entry{Data: slices.Clone(data), Timestamp: now, LastAccessed: now}
	c.removeExpiredLocked(now)
	evicted := 0
	for len(c.entries) > c.max {
		delete(c.entries, c.oldestLocked())
		evicted++
	}
	span.AddField("evicted", evicted)
	c.persistLocked(ctx)
}

// Sweep removes every expired entry and returns how many went.
func (c *Cache) Sweep(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.removeExpiredLocked(c.clock.Now())
	if n > 0 {
		c.persistLocked(ctx)
	}
	return n
}

func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.persistLocked(ctx)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeExpiredLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// oldestLocked finds the least recently accessed key. Ties go to the older entry, then the smaller key.
func (c *Cache) oldestLocked() string {
	var oldest string
	var oe *Entry
	for k, e := range c.entries {
		if oe == nil || e.LastAccessed.Before(oe.LastAccessed) ||
			(e.LastAccessed.Equal(oe.LastAccessed) && (e.Timestamp.Before(oe.Timestamp) ||
				(e.Timestamp.Equal(oe.Timestamp) && k < oldest))) {
			oldest, oe = k, e
		}
	}
	return oldest
}

func (c *Cache) persistLocked(ctx context.Context) {
	persistence.SaveQuietly(ctx, c.store, StorageKey, c.entries)
}
