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

// Package luckybox wires the restaurant roulette core together: map providers, the search cache,
// favorites and the platform's location services.
package luckybox

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox/cache"
	"github.com/food-lucky-box/lucky-box/luckybox/config"
	"github.com/food-lucky-box/lucky-box/luckybox/favorites"
	"github.com/food-lucky-box/lucky-box/luckybox/location"
	"github.com/food-lucky-box/lucky-box/luckybox/maps"
	"github.com/food-lucky-box/lucky-box/luckybox/overpass"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/gmaps"
	"github.com/food-lucky-box/lucky-box/luckybox/util/mapbox"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

// Platform is what the host environment provides. Any field may be nil.
type Platform struct {
	Permissions location.PermissionQuerier
	Device      location.Geolocator
	Notifier    location.Notifier
}

type Client struct {
	Maps      *maps.Service
	Favorites *favorites.Store
	store     storage.Store
}

// NewSDK returns the primary map SDK selected by cfg, or nil for none.
func NewSDK(cfg *config.Config) maps.SDK {
	switch cfg.MapProvider {
	case config.ProviderGoogle:
		return gmaps.New(gmaps.Options{
			APIKey:      cfg.GoogleMapsKey,
			Radius:      cfg.SearchRadiusMeters,
			Geolocation: cfg.SDKGeolocation,
			Language:    cfg.Language.String(),
		})
	case config.ProviderMapbox:
		return mapbox.New(mapbox.Options{
			AccessToken: cfg.MapboxKey,
			Radius:      cfg.SearchRadiusMeters,
			PageSize:    cfg.PageSize,
		})
	case config.ProviderNone:
		return nil
	}
	zap.S().Warnf("Unknown map provider %q, running without one", cfg.MapProvider)
	return nil
}

// NewStore returns Redis-backed storage if Redis is configured, and process memory otherwise. Redis keys
// are namespaced by CLIENT_ID, or by the id kept in Redis when that is unset.
func NewStore(ctx context.Context, cfg *config.Config) storage.Store {
	r := storage.GetRedis()
	if r == nil {
		return storage.NewMemory()
	}
	return newRedisStore(ctx, r, cfg.ClientID)
}

func newRedisStore(ctx context.Context, r *redis.Client, clientID string) storage.Store {
	namespace, err := storage.Namespace(ctx, r, clientID)
	if err != nil {
		zap.S().Errorf("Resolving the storage namespace failed, using in-memory storage: %v", err)
		return storage.NewMemory()
	}
	zap.S().Infof("Using Redis storage namespace %q", namespace)
	return storage.NewRedis(r, namespace)
}

// New builds a client. It takes ownership of store and closes it on Close if it can be closed.
func New(ctx context.Context, cfg *config.Config, sdk maps.SDK, store storage.Store, platform Platform) *Client {
	svc := maps.NewService(ctx, maps.Options{
		SDK: sdk,
		Fallback: overpass.New(overpass.Options{
			URL:      cfg.OverpassURL,
			Radius:   cfg.SearchRadiusMeters,
			PageSize: cfg.PageSize,
		}),
		Store: store,
		Cache: cache.Options{
			Expiry:        cfg.CacheExpiry,
			MaxSize:       cfg.CacheMaxSize,
			SweepInterval: cfg.CacheSweepInterval,
		},
		Permissions: location.NewHelper(platform.Permissions, platform.Device, platform.Notifier),
		Device:      platform.Device,
	})
	return &Client{
		Maps:      svc,
		Favorites: favorites.Open(ctx, store),
		store:     store,
	}
}

// Start loads the primary map SDK. Failing to is not fatal: searches use the fallback provider.
func (c *Client) Start(ctx context.Context) {
	if err := c.Maps.Init(ctx); err != nil {
		zap.S().Warnf("Map SDK unavailable, searching with the fallback provider only: %v", err)
	}
}

// Nearby returns one page of restaurants near loc that pass filter.
func (c *Client) Nearby(ctx context.Context, loc restaurant.Location, page int, filter restaurant.Filter) ([]restaurant.Restaurant, error) {
	results, err := c.Maps.SearchNearby(ctx, loc, page)
	if err != nil {
		return nil, err
	}
	return filter.Apply(results), nil
}

// Pick chooses a random restaurant, other than excludeID, and remembers it as the selection.
func (c *Client) Pick(ctx context.Context, restaurants []restaurant.Restaurant, excludeID string) (restaurant.Restaurant, error) {
	r, err := restaurant.Random(restaurants, excludeID)
	if err != nil {
		return restaurant.Restaurant{}, err
	}
	c.Favorites.SetSelected(ctx, r)
	return r, nil
}

func (c *Client) Close() error {
	c.Maps.Close()
	var err error
	if closer, ok := c.store.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
