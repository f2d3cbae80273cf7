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

package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/location"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/retry"
)

const deviceTimeout = 10 * time.Second

// CurrentLocation returns where the user is, with an address. Concurrent callers share one lookup.
// SDK geolocation is tried first (with retries); if it's unavailable or fails, the device position
// is reverse geocoded instead.
//
// The shared lookup is detached from any one caller's context, so a caller that gives up only stops
// its own wait and the others still get the result.
func (s *Service) CurrentLocation(ctx context.Context) (restaurant.Location, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.locating.DoChan("current-location", func() (interface{}, error) {
		return s.locate(detached)
	})
	select {
	case <-ctx.Done():
		return restaurant.Location{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			zap.S().Debug("Joined an in-flight location lookup")
		}
		if res.Err != nil {
			return restaurant.Location{}, res.Err
		}
		return res.Val.(restaurant.Location), nil
	}
}

func (s *Service) locate(ctx context.Context) (restaurant.Location, error) {
	ctx, span := beeline.StartSpan(ctx, "maps.current_location")
	defer span.Send()
	if !s.permissions.Request(ctx) {
		err := fault.New(fault.Permission, "maps.current_location", "location permission not granted")
		span.AddField("error", err)
		return restaurant.Location{}, err
	}

	if caps := s.capabilities(); caps != nil && caps.Geolocation != nil {
		opts := s.locateRetry
		opts.ShouldRetry = func(err error) bool { return !fault.Is(err, fault.Permission) }
		loc, err := retry.Do(ctx, caps.Geolocation.CurrentLocation, opts)
		if err == nil {
			span.AddField("source", "sdk")
			return loc, nil
		}
		span.AddField("sdk_error", err)
		zap.S().Warnf("SDK geolocation failed, falling back to the device: %v", err)
	}

	loc, err := s.deviceLocation(ctx)
	if err != nil {
		span.AddField("error", err)
		return restaurant.Location{}, err
	}
	span.AddField("source", "device")
	return loc, nil
}

func (s *Service) deviceLocation(ctx context.Context) (restaurant.Location, error) {
	if s.device == nil {
		return restaurant.Location{}, fault.New(fault.ProviderUnavailable, "maps.device_location", "geolocation is not supported")
	}
	dctx, cancel := context.WithTimeout(ctx, deviceTimeout)
	pos, err := s.device.CurrentPosition(dctx, location.PositionOptions{
		EnableHighAccuracy: true,
		Timeout:            deviceTimeout,
		MaximumAge:         0,
	})
	cancel()
	if err != nil {
		var perr *location.PositionError
		if errors.As(err, &perr) && perr.Code == location.PermissionDenied {
			return restaurant.Location{}, fault.Wrap(fault.Permission, "maps.device_location", err)
		}
		return restaurant.Location{}, fault.Wrap(fault.Transient, "maps.device_location", err)
	}
	address, err := s.Address(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		return restaurant.Location{}, fmt.Errorf("failed to resolve address of device position: %w", err)
	}
	return restaurant.Location{Latitude: pos.Latitude, Longitude: pos.Longitude, Address: address}, nil
}

// Address reverse geocodes a point with the primary provider. Only a conclusive, non-empty address
// counts as success.
func (s *Service) Address(ctx context.Context, lat, lon float64) (string, error) {
	ctx, span := beeline.StartSpan(ctx, "maps.address")
	defer span.Send()
	caps := s.capabilities()
	if caps == nil || caps.Geocoder == nil {
		err := fault.New(fault.ProviderUnavailable, "maps.address", "map service is not initialized")
		span.AddField("error", err)
		return "", err
	}
	address, err := caps.Geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		span.AddField("error", err)
		if fault.KindOf(err) == fault.Unknown {
			err = fault.Wrap(fault.Transient, "maps.address", err)
		}
		return "", err
	}
	if address == "" {
		err := fault.New(fault.Empty, "maps.address", "no address found")
		span.AddField("error", err)
		return "", err
	}
	return address, nil
}
