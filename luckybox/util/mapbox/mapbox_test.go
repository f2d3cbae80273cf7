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

package mapbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
)

var here = restaurant.Location{Latitude: 22.99, Longitude: 113.23}

func feature(id, name string, lat float64) Feature {
	return Feature{
		Geometry: Geometry{Coordinates: []float64{113.23, lat}},
		Properties: Properties{
			MapboxID:    id,
			Name:        name,
			FullAddress: name + " Road, Foshan",
			POICategory: []string{"restaurant", "food"},
			Metadata:    Metadata{Phone: "+86 757 0000"},
		},
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/geocoding/v5/mapbox.places/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pk.test", r.URL.Query().Get("access_token"))
		if r.URL.Path == "/geocoding/v5/mapbox.places/0,0.json" {
			_ = json.NewEncoder(w).Encode(FeatureCollection{})
			return
		}
		assert.Equal(t, "/geocoding/v5/mapbox.places/113.23,22.99.json", r.URL.Path)
		_ = json.NewEncoder(w).Encode(FeatureCollection{Features: []Feature{{PlaceName: "8 Lecong Road, Foshan, China"}}})
	})
	mux.HandleFunc("/search/searchbox/v1/category/restaurant", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "113.23,22.99", r.URL.Query().Get("proximity"))
		_ = json.NewEncoder(w).Encode(FeatureCollection{Features: []Feature{
			feature("far", "Far", 22.995),
			feature("near", "Near", 22.991),
			feature("outside", "Outside", 23.1),
			{Properties: Properties{Name: "Nowhere"}},
			feature("mid", "Middle", 22.993),
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad(t *testing.T) {
	_, err := New(Options{}).Load(context.Background())
	assert.True(t, fault.Is(err, fault.ProviderUnavailable))

	caps, err := New(Options{AccessToken: "pk.test"}).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, caps.Geolocation)
}

func TestReverseGeocode(t *testing.T) {
	srv := newServer(t)
	s := New(Options{AccessToken: "pk.test", BaseURL: srv.URL})

	address, err := s.ReverseGeocode(context.Background(), 22.99, 113.23)
	require.NoError(t, err)
	assert.Equal(t, "8 Lecong Road, Foshan, China", address)

	address, err = s.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, address)
}

func TestSearchNearby(t *testing.T) {
	srv := newServer(t)
	s := New(Options{AccessToken: "pk.test", BaseURL: srv.URL, PageSize: 2})
	ctx := context.Background()

	first, err := s.SearchNearby(ctx, here, 1)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "mapbox_near", first[0].ID)
	assert.Equal(t, "mapbox_mid", first[1].ID)
	assert.Equal(t, "Near Road, Foshan", first[0].Address)
	assert.Equal(t, "restaurant;food", first[0].Type)
	assert.Equal(t, "+86 757 0000", first[0].Tel)
	assert.Nil(t, first[0].Cost)

	second, err := s.SearchNearby(ctx, here, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "mapbox_far", second[0].ID)

	third, err := s.SearchNearby(ctx, here, 3)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()
	s := New(Options{AccessToken: "pk.bad", BaseURL: srv.URL})

	_, err := s.SearchNearby(context.Background(), here, 1)
	assert.True(t, fault.Is(err, fault.Permission))

	status.Store(http.StatusServiceUnavailable)
	_, err = s.ReverseGeocode(context.Background(), 1, 2)
	assert.True(t, fault.Is(err, fault.Transient))
}
