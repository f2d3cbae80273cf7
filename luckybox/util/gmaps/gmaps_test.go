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

package gmaps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-lucky-box/lucky-box/luckybox/cache"
	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	luckymaps "github.com/food-lucky-box/lucky-box/luckybox/maps"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/retry"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

var here = restaurant.Location{Latitude: 22.99, Longitude: 113.23}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func place(id, name string, lat float64) map[string]any {
	return map[string]any{
		"place_id": id,
		"name":     name,
		"vicinity": name + " Road",
		"rating":   4.5,
		"types":    []string{"restaurant", "food"},
		"geometry": map[string]any{"location": map[string]any{"lat": lat, "lng": 113.23}},
	}
}

type fakeGoogle struct {
	*httptest.Server
	nearby atomic.Int32
	// inactiveToken is how many more times tok2 is rejected as not yet valid.
	inactiveToken atomic.Int32
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{}
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		if r.URL.Query().Get("latlng") == "0,0" {
			writeJSON(w, map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
			return
		}
		writeJSON(w, map[string]any{
			"status":  "OK",
			"results": []map[string]any{{"formatted_address": "8 Lecong Road, Foshan"}},
		})
	})
	mux.HandleFunc("/maps/api/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		f.nearby.Add(1)
		q := r.URL.Query()
		switch q.Get("pagetoken") {
		case "":
			assert.Equal(t, Keyword, q.Get("keyword"))
			assert.Equal(t, "restaurant", q.Get("type"))
			assert.Equal(t, "2000", q.Get("radius"))
			p := place("g1", "First", 22.991)
			p["price_level"] = 2
			p["photos"] = []map[string]any{{"photo_reference": "ref1"}}
			writeJSON(w, map[string]any{"status": "OK", "results": []any{p}, "next_page_token": "tok2"})
		case "tok2":
			if f.inactiveToken.Add(-1) >= 0 {
				writeJSON(w, map[string]any{"status": "INVALID_REQUEST"})
				return
			}
			writeJSON(w, map[string]any{"status": "OK", "results": []any{place("g2", "Second", 22.992)}})
		default:
			writeJSON(w, map[string]any{"status": "INVALID_REQUEST", "error_message": "bad token"})
		}
	})
	mux.HandleFunc("/geolocation/v1/geolocate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"location": map[string]any{"lat": 22.99, "lng": 113.23}, "accuracy": 30})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func TestLoad(t *testing.T) {
	_, err := New(Options{}).Load(context.Background())
	assert.True(t, fault.Is(err, fault.ProviderUnavailable))

	caps, err := New(Options{APIKey: "test-key"}).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, caps.Geocoder)
	assert.NotNil(t, caps.PlaceSearch)
	assert.Nil(t, caps.Geolocation)

	caps, err = New(Options{APIKey: "test-key", Geolocation: true}).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, caps.Geolocation)
}

func TestReverseGeocode(t *testing.T) {
	g := newFakeGoogle(t)
	caps, err := New(Options{APIKey: "test-key", BaseURL: g.URL}).Load(context.Background())
	require.NoError(t, err)

	address, err := caps.Geocoder.ReverseGeocode(context.Background(), 22.99, 113.23)
	require.NoError(t, err)
	assert.Equal(t, "8 Lecong Road, Foshan", address)

	address, err = caps.Geocoder.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, address)
}

func TestSearchNearby(t *testing.T) {
	g := newFakeGoogle(t)
	caps, err := New(Options{APIKey: "test-key", BaseURL: g.URL}).Load(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := caps.PlaceSearch.SearchNearby(ctx, here, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	r := first[0]
	assert.Equal(t, "g1", r.ID)
	assert.Equal(t, "First Road", r.Address)
	assert.Equal(t, "restaurant;food", r.Type)
	assert.InDelta(t, 4.5, r.Rating, 0.001)
	assert.InDelta(t, 111.2, r.Distance, 1)
	require.NotNil(t, r.Cost)
	assert.Equal(t, "$$", *r.Cost)
	require.Len(t, r.Photos, 1)
	assert.True(t, strings.Contains(r.Photos[0], "photo_reference=ref1"))
	assert.NotContains(t, r.Photos[0], "test-key")

	second, err := caps.PlaceSearch.SearchNearby(ctx, here, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "g2", second[0].ID)
	assert.Nil(t, second[0].Cost)
	assert.Empty(t, second[0].Photos)
	assert.EqualValues(t, 2, g.nearby.Load())

	third, err := caps.PlaceSearch.SearchNearby(ctx, here, 3)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestSearchNearbyWalksToUnseenPage(t *testing.T) {
	g := newFakeGoogle(t)
	caps, err := New(Options{APIKey: "test-key", BaseURL: g.URL}).Load(context.Background())
	require.NoError(t, err)

	second, err := caps.PlaceSearch.SearchNearby(context.Background(), here, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Second", second[0].Name)
	assert.EqualValues(t, 2, g.nearby.Load())
}

func TestSearchNearbyWaitsForPageToken(t *testing.T) {
	g := newFakeGoogle(t)
	g.inactiveToken.Store(2)
	caps, err := New(Options{
		APIKey:     "test-key",
		BaseURL:    g.URL,
		TokenRetry: retry.Options{Delay: time.Millisecond},
	}).Load(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = caps.PlaceSearch.SearchNearby(ctx, here, 1)
	require.NoError(t, err)
	second, err := caps.PlaceSearch.SearchNearby(ctx, here, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "g2", second[0].ID)
	assert.EqualValues(t, 4, g.nearby.Load())
}

func TestSearchNearbyGivesUpOnDeadToken(t *testing.T) {
	g := newFakeGoogle(t)
	g.inactiveToken.Store(10)
	caps, err := New(Options{
		APIKey:     "test-key",
		BaseURL:    g.URL,
		TokenRetry: retry.Options{Delay: time.Millisecond},
	}).Load(context.Background())
	require.NoError(t, err)

	_, err = caps.PlaceSearch.SearchNearby(context.Background(), here, 2)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Transient))
	assert.EqualValues(t, 4, g.nearby.Load())
}

func TestPersistedPhotosCarryNoKey(t *testing.T) {
	g := newFakeGoogle(t)
	store := storage.NewMemory()
	svc := luckymaps.NewService(context.Background(), luckymaps.Options{
		SDK:   New(Options{APIKey: "test-key", BaseURL: g.URL}),
		Store: store,
		Cache: cache.Options{Clock: clock.NewMock()},
	})
	defer svc.Close()
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	results, err := svc.SearchNearby(ctx, here, 1)
	require.NoError(t, err)
	require.Len(t, results[0].Photos, 1)

	snapshot, ok, err := store.Get(ctx, cache.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(snapshot), "ref1")
	assert.NotContains(t, string(snapshot), "test-key")

	signed, err := SignedPhotoURL(results[0].Photos[0], "test-key")
	require.NoError(t, err)
	assert.Contains(t, signed, "key=test-key")
	assert.Contains(t, signed, "photo_reference=ref1")
	assert.True(t, strings.HasPrefix(signed, photoEndpoint+"?"))

	_, err = SignedPhotoURL("http://[::1", "test-key")
	assert.Error(t, err)
}

func TestCurrentLocation(t *testing.T) {
	g := newFakeGoogle(t)
	caps, err := New(Options{APIKey: "test-key", BaseURL: g.URL, Geolocation: true}).Load(context.Background())
	require.NoError(t, err)

	loc, err := caps.Geolocation.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, restaurant.Location{Latitude: 22.99, Longitude: 113.23, Address: "8 Lecong Road, Foshan"}, loc)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want fault.Kind
	}{
		{"maps: REQUEST_DENIED - The provided API key is invalid.", fault.Permission},
		{"maps: ZERO_RESULTS - ", fault.Empty},
		{"maps: OVER_QUERY_LIMIT - slow down", fault.Transient},
		{"Not Found", fault.Empty},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, fault.KindOf(classify("test", errorString(tt.msg))))
		})
	}
	assert.Equal(t, fault.Transient, fault.KindOf(classify("test", context.DeadlineExceeded)))
}

type errorString string

func (e errorString) Error() string { return string(e) }
