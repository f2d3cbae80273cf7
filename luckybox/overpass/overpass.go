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

// Package overpass searches OpenStreetMap restaurant data through an Overpass API endpoint.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/honeycombio/beeline-go"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/retry"
)

const (
	DefaultURL      = "https://overpass-api.de/api/interpreter"
	DefaultRadius   = 2000
	DefaultPageSize = 20

	UnknownAddress = "Address unknown"
	UnknownType    = "Unknown type"

	// IDPrefix keeps OSM ids apart from the primary provider's.
	IDPrefix = "osm_"
)

type Options struct {
	URL string
	// Radius is in meters.
	Radius   int
	PageSize int
	// Retry defaults to three attempts one second apart.
	Retry      retry.Options
	HTTPClient *http.Client
}

type Client struct {
	url      string
	radius   int
	pageSize int
	retry    retry.Options
	http     *http.Client
}

func New(opts Options) *Client {
	c := &Client{
		url:      opts.URL,
		radius:   opts.Radius,
		pageSize: opts.PageSize,
		retry:    opts.Retry,
		http:     opts.HTTPClient,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.radius <= 0 {
		c.radius = DefaultRadius
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.retry.MaxAttempts <= 0 {
		c.retry.MaxAttempts = 3
	}
	if c.retry.Delay <= 0 {
		c.retry.Delay = time.Second
	}
	// Fixed delay between attempts.
	c.retry.Backoff = 1
	c.retry.ShouldRetry = nil
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c
}

type response struct {
	Elements []Element `json:"elements"`
}

// Element is a node, way or relation. Ways and relations carry their position in Center.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// restaurantID includes the element type: OSM numbers nodes, ways and relations independently.
func (e Element) restaurantID() string {
	kind := e.Type
	if kind == "" {
		kind = "node"
	}
	return IDPrefix + kind + "_" + strconv.FormatInt(e.ID, 10)
}

func (e Element) position() (float64, float64) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon
	}
	return e.Lat, e.Lon
}

// Query returns the Overpass QL for restaurants within radius meters of a point.
func Query(lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))
	return "[out:json][timeout:25];(" +
		`node["amenity"="restaurant"]` + around + ";" +
		`way["amenity"="restaurant"]` + around + ";" +
		`relation["amenity"="restaurant"]` + around + ";" +
		");out center;"
}

// SearchNearby fetches every restaurant in range, nearest first, and returns the requested page.
func (c *Client) SearchNearby(ctx context.Context, loc restaurant.Location, page int) ([]restaurant.Restaurant, error) {
	ctx, span := beeline.StartSpan(ctx, "overpass.search_nearby")
	defer span.Send()
	if page < 1 {
		page = 1
	}
	elements, err := retry.Do(ctx, func(ctx context.Context) ([]Element, error) {
		return c.fetch(ctx, Query(loc.Latitude, loc.Longitude, c.radius))
	}, c.retry)
	if err != nil {
		span.AddField("error", err)
		return nil, fault.Wrap(fault.Transient, "overpass.search_nearby", err)
	}
	span.AddField("elements", len(elements))

	var results []restaurant.Restaurant
	for _, e := range elements {
		if e.Tags["name"] == "" {
			continue
		}
		results = append(results, toRestaurant(e, loc))
	}
	restaurant.SortByDistance(results)
	span.AddField("results", len(results))

	return restaurant.Page(results, page, c.pageSize), nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]Element, error) {
	ctx, span := beeline.StartSpan(ctx, "overpass.fetch")
	defer span.Send()
	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		span.AddField("error", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		span.AddField("error", err)
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()
	span.AddField("status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("overpass returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		span.AddField("error", err)
		return nil, err
	}
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		span.AddField("error", err)
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}
	return r.Elements, nil
}

func toRestaurant(e Element, from restaurant.Location) restaurant.Restaurant {
	lat, lon := e.position()
	address := formatAddress(e.Tags)
	kind := e.Tags["cuisine"]
	if kind == "" {
		kind = UnknownType
	}
	return restaurant.Restaurant{
		ID:      e.restaurantID(),
		Name:    e.Tags["name"],
		Address: address,
		Location: restaurant.Location{
			Latitude:  lat,
			Longitude: lon,
			Address:   address,
		},
		Rating:   0,
		Distance: restaurant.Distance(from.Latitude, from.Longitude, lat, lon),
		Photos:   []string{},
		Type:     kind,
		Tel:      e.Tags["phone"],
	}
}

func formatAddress(tags map[string]string) string {
	var parts []string
	street := strings.TrimSpace(tags["addr:street"] + " " + tags["addr:housenumber"])
	if street != "" {
		parts = append(parts, street)
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	if len(parts) == 0 {
		return UnknownAddress
	}
	return strings.Join(parts, ", ")
}
