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

// Package maps is the map-data access layer: it owns the primary map SDK, the search cache and the
// fallback search provider, and answers "where am I" and "what's nearby".
package maps

import (
	"context"
	"sync"

	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/food-lucky-box/lucky-box/luckybox/cache"
	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/location"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/retry"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

// Geocoder turns coordinates into a formatted address. An empty address with a nil error means the
// provider had nothing conclusive.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Searcher finds restaurants around a point, one page at a time. Pages start at 1.
type Searcher interface {
	SearchNearby(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, error)
}

// Geolocation locates the device through the SDK. Failures it can't fix by retrying must be
// fault.Permission errors.
type Geolocation interface {
	CurrentLocation(ctx context.Context) (restaurant.Location, error)
}

// Capabilities is what a loaded SDK offers. Geolocation may be nil; some builds don't have it.
type Capabilities struct {
	Geocoder    Geocoder
	PlaceSearch Searcher
	Geolocation Geolocation
}

// SDK loads the primary map provider.
type SDK interface {
	Name() string
	Load(ctx context.Context) (*Capabilities, error)
}

type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "uninitialized"
}

type Options struct {
	// SDK is the primary provider. Nil means there is none and searches go straight to Fallback.
	SDK SDK
	// Fallback serves searches when the primary provider is missing or fails.
	Fallback Searcher
	Store    storage.Store
	Cache    cache.Options
	// Permissions guards CurrentLocation.
	Permissions *location.Helper
	// Device is the platform geolocation used when the SDK can't locate us.
	Device location.Geolocator
	// LocateRetry tunes retries of SDK geolocation. Its ShouldRetry is always replaced.
	LocateRetry retry.Options
}

type Service struct {
	sdk         SDK
	fallback    Searcher
	cache       *cache.Cache
	permissions *location.Helper
	device      location.Geolocator
	locateRetry retry.Options

	mu      sync.Mutex
	state   State
	pending chan struct{}
	caps    *Capabilities
	initErr error

	locating singleflight.Group
}

// NewService builds the service and loads the search cache from opts.Store. Call Init before
// relying on the primary provider, and Close when done.
func NewService(ctx context.Context, opts Options) *Service {
	store := opts.Store
	if store == nil {
		store = storage.NewMemory()
	}
	permissions := opts.Permissions
	if permissions == nil {
		permissions = location.NewHelper(nil, opts.Device, nil)
	}
	return &Service{
		sdk:         opts.SDK,
		fallback:    opts.Fallback,
		cache:       cache.New(ctx, store, opts.Cache),
		permissions: permissions,
		device:      opts.Device,
		locateRetry: opts.LocateRetry,
	}
}

// Init loads the SDK once. Callers that arrive while a load is running wait for it and get its
// result. A failed load is tried again on the next call.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Ready:
		s.mu.Unlock()
		return nil
	case Initializing:
		pending := s.pending
		s.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.initErr
	}
	s.state = Initializing
	s.pending = make(chan struct{})
	pending := s.pending
	s.mu.Unlock()

	caps, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.initErr = err
	} else {
		s.state = Ready
		s.caps = caps
		s.initErr = nil
	}
	close(pending)
	return err
}

func (s *Service) load(ctx context.Context) (*Capabilities, error) {
	ctx, span := beeline.StartSpan(ctx, "maps.init")
	defer span.Send()
	if s.sdk == nil {
		err := fault.New(fault.ProviderUnavailable, "maps.init", "no map SDK configured")
		span.AddField("error", err)
		return nil, err
	}
	span.AddField("sdk", s.sdk.Name())
	zap.S().Infof("Initializing %s map SDK...", s.sdk.Name())
	caps, err := s.sdk.Load(ctx)
	if err != nil {
		span.AddField("error", err)
		zap.S().Errorf("Loading %s map SDK failed: %v", s.sdk.Name(), err)
		if fault.KindOf(err) == fault.Unknown {
			err = fault.Wrap(fault.ProviderUnavailable, "maps.init", err)
		}
		return nil, err
	}
	if caps == nil {
		caps = &Capabilities{}
	}
	span.AddField("geolocation", caps.Geolocation != nil)
	zap.S().Infof("%s map SDK ready (geolocation: %t)", s.sdk.Name(), caps.Geolocation != nil)
	return caps, nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// capabilities returns the loaded capabilities, or nil unless the SDK is ready.
func (s *Service) capabilities() *Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return nil
	}
	return s.caps
}

func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}

// Close stops the cache sweep.
func (s *Service) Close() {
	s.cache.Close()
}
