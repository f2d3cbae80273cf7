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

package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type Config struct {
	MapProvider        string
	GoogleMapsKey      string
	MapboxKey          string
	SDKGeolocation     bool
	RedisURL           string
	HoneycombKey       string
	// ClientID namespaces durable storage. Empty means the id kept in Redis is used.
	ClientID           string
	OverpassURL        string
	SearchRadiusMeters int
	// Language is what providers should answer in.
	Language           language.Tag
	PageSize           int
	CacheExpiry        time.Duration
	CacheMaxSize       int
	CacheSweepInterval time.Duration
	LocationPermission string
	DeviceLat          *float64
	DeviceLon          *float64
}

const (
	ProviderGoogle = "google"
	ProviderMapbox = "mapbox"
	ProviderNone   = "none"
)

var (
	c    Config
	once sync.Once
)

// GetConfig loads the configuration on first use, so that warnings go to whatever logger is installed by then.
func GetConfig() *Config {
	once.Do(func() {
		// Load .env file if it exists
		if err := godotenv.Load(); err != nil {
			// Only log if the file exists but couldn't be loaded
			if !os.IsNotExist(err) {
				zap.S().Warnf("Error loading .env file: %v", err)
			}
		}
		c = Load()
	})
	return &c
}

// Load reads the configuration from the environment. Malformed values fall back to their defaults.
func Load() Config {
	return Config{
		MapProvider:        stringOr("MAP_PROVIDER", ProviderGoogle),
		GoogleMapsKey:      os.Getenv("GOOGLE_MAPS_KEY"),
		MapboxKey:          os.Getenv("MAPBOX_KEY"),
		SDKGeolocation:     boolOr("SDK_GEOLOCATION", true),
		RedisURL:           os.Getenv("REDIS_URL"),
		HoneycombKey:       os.Getenv("HONEYCOMB_KEY"),
		ClientID:           os.Getenv("CLIENT_ID"),
		OverpassURL:        stringOr("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		SearchRadiusMeters: intOr("SEARCH_RADIUS_METERS", 2000),
		Language:           languageOr("LANGUAGE", language.MustParse("zh-CN")),
		PageSize:           intOr("PAGE_SIZE", 20),
		CacheExpiry:        durationOr("CACHE_EXPIRY", 24*time.Hour),
		CacheMaxSize:       intOr("CACHE_MAX_SIZE", 200),
		CacheSweepInterval: durationOr("CACHE_SWEEP_INTERVAL", 30*time.Minute),
		LocationPermission: os.Getenv("LOCATION_PERMISSION"),
		DeviceLat:          floatPtr("DEVICE_LAT"),
		DeviceLon:          floatPtr("DEVICE_LON"),
	}
}

func stringOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		zap.S().Warnf("Ignoring invalid %s=%q, using %d", key, v, def)
		return def
	}
	return i
}

func boolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		zap.S().Warnf("Ignoring invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}

func durationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.S().Warnf("Ignoring invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func floatPtr(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		zap.S().Warnf("Ignoring invalid %s=%q", key, v)
		return nil
	}
	return &f
}

func languageOr(key string, def language.Tag) language.Tag {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	tag, err := language.Parse(v)
	if err != nil {
		zap.S().Warnf("Ignoring invalid %s=%q, using %s", key, v, def)
		return def
	}
	return tag
}
