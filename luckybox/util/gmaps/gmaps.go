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

// Package gmaps adapts the Google Maps web services to the map SDK capabilities.
package gmaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	luckymaps "github.com/food-lucky-box/lucky-box/luckybox/maps"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/retry"
)

const (
	// Keyword is what we search for. It means "good food".
	Keyword       = "美食"
	DefaultRadius = 2000
	photoEndpoint = "https://maps.googleapis.com/maps/api/place/photo"
	photoMaxWidth = 400
	// tokenDelay is how long a fresh next-page token takes to become usable.
	tokenDelay = 2 * time.Second
)

type Options struct {
	APIKey string
	// Radius is in meters.
	Radius int
	// Geolocation enables locating through the Geolocation API.
	Geolocation bool
	Language    string
	// TokenRetry tunes retries of page token requests. Defaults to three attempts two seconds apart.
	TokenRetry retry.Options
	// BaseURL replaces the Google API hosts. Used for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// SDK loads a Google Maps client on demand.
type SDK struct {
	opts Options
}

func New(opts Options) *SDK {
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	return &SDK{opts: opts}
}

func (s *SDK) Name() string {
	return "google"
}

func (s *SDK) Load(ctx context.Context) (*luckymaps.Capabilities, error) {
	if s.opts.APIKey == "" {
		return nil, fault.New(fault.ProviderUnavailable, "gmaps.load", "no Google Maps API key configured")
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(s.opts.APIKey)}
	if s.opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(s.opts.BaseURL))
	}
	if s.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, maps.WithHTTPClient(s.opts.HTTPClient))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	p := &provider{
		client: client,
		opts:   s.opts,
		tokens: map[string]string{},
	}
	caps := &luckymaps.Capabilities{Geocoder: p, PlaceSearch: p}
	if s.opts.Geolocation {
		caps.Geolocation = p
	}
	return caps, nil
}

type provider struct {
	client *maps.Client
	opts   Options

	mu sync.Mutex
	// tokens maps "lat,lon,page" to the token that fetches that page.
	tokens map[string]string
}

func (p *provider) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, span := beeline.StartSpan(ctx, "gmaps.reverse_geocode")
	defer span.Send()
	results, err := p.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lon},
		Language: p.opts.Language,
	})
	if err != nil {
		span.AddField("error", err)
		return "", classify("gmaps.reverse_geocode", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}

func (p *provider) CurrentLocation(ctx context.Context) (restaurant.Location, error) {
	ctx, span := beeline.StartSpan(ctx, "gmaps.geolocate")
	defer span.Send()
	result, err := p.client.Geolocate(ctx, &maps.GeolocationRequest{ConsiderIP: true})
	if err != nil {
		span.AddField("error", err)
		return restaurant.Location{}, classify("gmaps.geolocate", err)
	}
	span.AddField("accuracy", result.Accuracy)
	address, err := p.ReverseGeocode(ctx, result.Location.Lat, result.Location.Lng)
	if err != nil {
		return restaurant.Location{}, err
	}
	if address == "" {
		return restaurant.Location{}, fault.New(fault.Empty, "gmaps.geolocate", "no address for current position")
	}
	return restaurant.Location{
		Latitude:  result.Location.Lat,
		Longitude: result.Location.Lng,
		Address:   address,
	}, nil
}

// SearchNearby returns one page of Places results. The Places API only pages forward through
// tokens, so an unseen page is reached by walking from the last page we have a token for.
func (p *provider) SearchNearby(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, error) {
	ctx, span := beeline.StartSpan(ctx, "gmaps.search_nearby")
	defer span.Send()
	if page < 1 {
		page = 1
	}
	span.AddField("page", page)

	start, token := p.resume(loc, page)
	for current := start; ; current++ {
		req := &maps.NearbySearchRequest{PageToken: token}
		if token == "" {
			req = &maps.NearbySearchRequest{
				Location: &maps.LatLng{Lat: loc.Latitude, Lng: loc.Longitude},
				Radius:   uint(p.opts.Radius),
				Keyword:  Keyword,
				Language: p.opts.Language,
				Type:     maps.PlaceTypeRestaurant,
			}
		}
		resp, err := p.nearbySearch(ctx, req)
		if err != nil {
			span.AddField("error", err)
			return nil, classify("gmaps.search_nearby", err)
		}
		if resp.NextPageToken != "" {
			p.remember(loc, current+1, resp.NextPageToken)
		}
		if current == page {
			return p.convert(loc, resp.Results), nil
		}
		if resp.NextPageToken == "" {
			zap.S().Debugf("Places ran out of pages at %d of %d", current, page)
			return []restaurant.Restaurant{}, nil
		}
		token = resp.NextPageToken
	}
}

// nearbySearch sends one Places request. A next-page token is rejected with INVALID_REQUEST until
// Google activates it, roughly two seconds after it was issued, so token requests are retried.
func (p *provider) nearbySearch(ctx context.Context, req *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error) {
	if req.PageToken == "" {
		return p.client.NearbySearch(ctx, req)
	}
	opts := p.opts.TokenRetry
	if opts.Delay <= 0 {
		opts.Delay = tokenDelay
	}
	opts.Backoff = 1
	opts.ShouldRetry = func(err error) bool {
		return strings.Contains(err.Error(), "INVALID_REQUEST")
	}
	return retry.Do(ctx, func(ctx context.Context) (maps.PlacesSearchResponse, error) {
		return p.client.NearbySearch(ctx, req)
	}, opts)
}

func tokenKey(loc restaurant.Location, page int) string {
	return strconv.FormatFloat(loc.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Longitude, 'f', -1, 64) + "," + strconv.Itoa(page)
}

// resume returns the closest page at or before page that we can fetch directly, and its token.
func (p *provider) resume(loc restaurant.Location, page int) (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for n := page; n > 1; n-- {
		if token, ok := p.tokens[tokenKey(loc, n)]; ok {
			return n, token
		}
	}
	return 1, ""
}

func (p *provider) remember(loc restaurant.Location, page int, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[tokenKey(loc, page)] = token
}

func (p *provider) convert(from restaurant.Location, results []maps.PlacesSearchResult) []restaurant.Restaurant {
	restaurants := make([]restaurant.Restaurant, 0, len(results))
	for _, r := range results {
		address := r.Vicinity
		if address == "" {
			address = r.FormattedAddress
		}
		lat, lon := r.Geometry.Location.Lat, r.Geometry.Location.Lng
		var photos []string
		for _, photo := range r.Photos {
			if photo.PhotoReference == "" {
				continue
			}
			photos = append(photos, photoURL(photo.PhotoReference))
		}
		if photos == nil {
			photos = []string{}
		}
		restaurants = append(restaurants, restaurant.Restaurant{
			ID:      r.PlaceID,
			Name:    r.Name,
			Address: address,
			Location: restaurant.Location{
				Latitude:  lat,
				Longitude: lon,
				Address:   address,
			},
			Rating:   float64(r.Rating),
			Distance: restaurant.Distance(from.Latitude, from.Longitude, lat, lon),
			Photos:   photos,
			Type:     strings.Join(r.Types, ";"),
			Cost:     priceLevel(r.PriceLevel),
		})
	}
	return restaurants
}

// photoURL builds a keyless photo URL. Restaurants are persisted, so the API key is added by
// SignedPhotoURL only when a photo is fetched.
func photoURL(reference string) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(photoMaxWidth))
	params.Set("photo_reference", reference)
	return photoEndpoint + "?" + params.Encode()
}

// SignedPhotoURL adds apiKey to a photo URL from Restaurant.Photos so it can be fetched.
func SignedPhotoURL(photo, apiKey string) (string, error) {
	u, err := url.Parse(photo)
	if err != nil {
		return "", fmt.Errorf("invalid photo URL: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// priceLevel renders Google's 1-4 price level. Zero means unknown.
func priceLevel(level int) *string {
	if level <= 0 {
		return nil
	}
	cost := strings.Repeat("$", min(level, 4))
	return &cost
}

// classify maps Google error statuses onto fault kinds. The client library only gives us
// "maps: STATUS - message" strings, so this matches on text.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.Transient, op, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "request_denied"), strings.Contains(msg, "denied"), strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "api key"), strings.Contains(msg, "keyinvalid"):
		return fault.Wrap(fault.Permission, op, err)
	case strings.Contains(msg, "zero_results"), strings.Contains(msg, "notfound"), strings.Contains(msg, "not found"):
		return fault.Wrap(fault.Empty, op, err)
	}
	return fault.Wrap(fault.Transient, op, err)
}
