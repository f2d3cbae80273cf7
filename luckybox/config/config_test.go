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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MAP_PROVIDER", "CLIENT_ID", "PAGE_SIZE", "CACHE_EXPIRY", "LANGUAGE", "DEVICE_LAT", "SDK_GEOLOCATION"} {
		t.Setenv(key, "")
	}
	c := Load()
	assert.Equal(t, ProviderGoogle, c.MapProvider)
	assert.Empty(t, c.ClientID)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, 2000, c.SearchRadiusMeters)
	assert.Equal(t, 24*time.Hour, c.CacheExpiry)
	assert.Equal(t, 200, c.CacheMaxSize)
	assert.Equal(t, 30*time.Minute, c.CacheSweepInterval)
	assert.Equal(t, language.MustParse("zh-CN"), c.Language)
	assert.True(t, c.SDKGeolocation)
	assert.Nil(t, c.DeviceLat)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAP_PROVIDER", ProviderMapbox)
	t.Setenv("CLIENT_ID", "client-1")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("CACHE_EXPIRY", "1h")
	t.Setenv("LANGUAGE", "en-GB")
	t.Setenv("SDK_GEOLOCATION", "false")
	t.Setenv("DEVICE_LAT", "22.99")
	c := Load()
	assert.Equal(t, ProviderMapbox, c.MapProvider)
	assert.Equal(t, "client-1", c.ClientID)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, time.Hour, c.CacheExpiry)
	assert.Equal(t, "en-GB", c.Language.String())
	assert.False(t, c.SDKGeolocation)
	require.NotNil(t, c.DeviceLat)
	assert.Equal(t, 22.99, *c.DeviceLat)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("PAGE_SIZE", "-3")
	t.Setenv("CACHE_EXPIRY", "tomorrow")
	t.Setenv("LANGUAGE", "not a language!")
	t.Setenv("SDK_GEOLOCATION", "maybe")
	t.Setenv("DEVICE_LAT", "north")
	c := Load()
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, 24*time.Hour, c.CacheExpiry)
	assert.Equal(t, language.MustParse("zh-CN"), c.Language)
	assert.True(t, c.SDKGeolocation)
	assert.Nil(t, c.DeviceLat)
}

func TestGetConfigWarnsThroughInstalledLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()
	t.Setenv("PAGE_SIZE", "-3")

	c := GetConfig()
	assert.Equal(t, 20, c.PageSize)
	assert.Same(t, c, GetConfig())
	assert.Equal(t, 1, logs.FilterMessageSnippet("PAGE_SIZE").Len())
}
