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

// Package mapbox adapts Mapbox geocoding and Search Box category search to the map SDK
// capabilities. Mapbox has no geolocation, so neither does this SDK.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/honeycombio/beeline-go"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/maps"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
)

const (
	DefaultBaseURL  = "https://api.mapbox.com"
	DefaultRadius   = 2000
	DefaultPageSize = 20
	// categoryLimit is the most results Search Box returns for one category query.
	categoryLimit = 25
	IDPrefix      = "mapbox_"
)

type FeatureCollection struct {
	Features []Feature `json:"features"`
}

type Feature struct {
	ID         string     `json:"id"`
	PlaceType  []string   `json:"place_type"`
	Text       string     `json:"text"`
	Relevance  float64    `json:"relevance"`
	PlaceName  string     `json:"place_name"`
	Center     []float64  `json:"center"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type Geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	MapboxID    string   `json:"mapbox_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	FullAddress string   `json:"full_address"`
	POICategory []string `json:"poi_category"`
	Metadata    Metadata `json:"metadata"`
	Distance    float64  `json:"distance"`
}

type Metadata struct {
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

type Options struct {
	AccessToken string
	// Radius is in meters. Category search has no radius, so results beyond it are dropped.
	Radius     int
	PageSize   int
	BaseURL    string
	HTTPClient *http.Client
}

type SDK struct {
	opts Options
}

func New(opts Options) *SDK {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &SDK{opts: opts}
}

func (s *SDK) Name() string {
	return "mapbox"
}

func (s *SDK) Load(ctx context.Context) (*maps.Capabilities, error) {
	if s.opts.AccessToken == "" {
		return nil, fault.New(fault.ProviderUnavailable, "mapbox.load", "no Mapbox access token configured")
	}
	return &maps.Capabilities{Geocoder: s, PlaceSearch: s}, nil
}

func (s *SDK) get(ctx context.Context, path string, params url.Values) (*FeatureCollection, error) {
	params.Set("access_token", s.opts.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Transient, "mapbox.request", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fault.New(fault.Permission, "mapbox.request", "mapbox rejected the access token: "+resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fault.New(fault.Transient, "mapbox.request", "mapbox returned "+resp.Status)
	}
	var collection FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fault.Wrap(fault.Transient, "mapbox.request", fmt.Errorf("failed to decode response: %w", err))
	}
	return &collection, nil
}

// ReverseGeocode returns the most specific place name Mapbox has for a point.
func (s *SDK) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, span := beeline.StartSpan(ctx, "mapbox.reverse_geocode")
	defer span.Send()
	params := url.Values{}
	params.Set("types", "address,poi,neighborhood,locality,place")
	params.Set("limit", "1")
	search := strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
	collection, err := s.get(ctx, "/geocoding/v5/mapbox.places/"+url.PathEscape(search)+".json", params)
	if err != nil {
		span.AddField("error", err)
		return "", err
	}
	if len(collection.Features) == 0 {
		return "", nil
	}
	return collection.Features[0].PlaceName, nil
}

// SearchNearby asks Search Box for restaurants near loc and pages through them locally.
func (s *SDK) SearchNearby(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, error) {
	ctx, span := beeline.StartSpan(ctx, "mapbox.search_nearby")
	defer span.Send()
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("proximity", strconv.FormatFloat(loc.Longitude, 'f', -1, 64)+","+strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(categoryLimit))
	collection, err := s.get(ctx, "/search/searchbox/v1/category/restaurant", params)
	if err != nil {
		span.AddField("error", err)
		return nil, err
	}

	var results []restaurant.Restaurant
	for _, f := range collection.Features {
		r, ok := s.toRestaurant(f, loc)
		if !ok || r.Distance > float64(s.opts.Radius) {
			continue
		}
		results = append(results, r)
	}
	restaurant.SortByDistance(results)
	span.AddField("results", len(results))

	return restaurant.Page(results, page, s.opts.PageSize), nil
}

func (s *SDK) toRestaurant(f Feature, from restaurant.Location) (restaurant.Restaurant, bool) {
	coords := f.Geometry.Coordinates
	if len(coords) < 2 {
		coords = f.Center
	}
	if len(coords) < 2 || f.Properties.Name == "" {
		return restaurant.Restaurant{}, false
	}
	id := f.Properties.MapboxID
	if id == "" {
		id = f.ID
	}
	address := f.Properties.FullAddress
	if address == "" {
		address = f.Properties.Address
	}
	lon, lat := coords[0], coords[1]
	return restaurant.Restaurant{
		ID:      IDPrefix + id,
		Name:    f.Properties.Name,
		Address: address,
		Location: restaurant.Location{
			Latitude:  lat,
			Longitude: lon,
			Address:   address,
		},
		Distance: restaurant.Distance(from.Latitude, from.Longitude, lat, lon),
		Photos:   []string{},
		Type:     strings.Join(f.Properties.POICategory, ";"),
		Tel:      f.Properties.Metadata.Phone,
	}, true
}
