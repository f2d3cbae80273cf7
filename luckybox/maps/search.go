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

	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox/cache"
	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
)

// SearchNearby returns one page of restaurants around loc. A fresh cached page is returned without
// touching any provider. Otherwise the primary provider is asked if it is ready, and the fallback
// covers for it when it isn't or when it fails. Whatever comes back is cached.
func (s *Service) SearchNearby(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, error) {
	ctx, span := beeline.StartSpan(ctx, "maps.search_nearby")
	defer span.Send()
	if page < 1 {
		page = 1
	}
	span.AddField("page", page)

	key := cache.Key(loc, page)
	if results, ok := s.cache.Get(ctx, key); ok {
		span.AddField("source", "cache")
		span.AddField("results", len(results))
		return results, nil
	}

	results, source, err := s.search(ctx, loc, page)
	if err != nil {
		span.AddField("error", err)
		return nil, err
	}
	span.AddField("source", source)
	span.AddField("results", len(results))
	s.cache.Set(ctx, key, results)
	return results, nil
}

func (s *Service) search(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, string, error) {
	if caps := s.capabilities(); caps != nil && caps.PlaceSearch != nil {
		results, err := caps.PlaceSearch.SearchNearby(ctx, loc, page)
		if err == nil {
			return results, "primary", nil
		}
		zap.S().Warnf("Primary search failed, using the fallback provider: %v", err)
	}
	if s.fallback == nil {
		return nil, "", fault.New(fault.ProviderUnavailable, "maps.search_nearby", "no search provider available")
	}
	results, err := s.fallback.SearchNearby(ctx, loc, page)
	if err != nil {
		if fault.KindOf(err) == fault.Unknown {
			err = fault.Wrap(fault.Transient, "maps.search_nearby", err)
		}
		return nil, "", err
	}
	return results, "fallback", nil
}
