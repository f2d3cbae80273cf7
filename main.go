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

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/honeycombio/beeline-go"
	"github.com/honeycombio/beeline-go/wrappers/hnynethttp"
	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox"
	"github.com/food-lucky-box/lucky-box/luckybox/config"
	"github.com/food-lucky-box/lucky-box/luckybox/location"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/redact"
)

// main runs one round of restaurant roulette: find the user, list what's nearby, pick one.
// An optional argument filters the list by keyword.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Creating logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	cfg := config.GetConfig()
	beeline.Init(beeline.Config{
		WriteKey:    cfg.HoneycombKey,
		Dataset:     "luckybox",
		ServiceName: "lucky-box",
		PresendHook: redact.CleanHoneycomb,
	})
	defer beeline.Close()
	http.DefaultTransport = hnynethttp.WrapRoundTripper(http.DefaultTransport)

	platform := luckybox.Platform{
		Permissions: location.StaticPermissions{State: location.Permission(cfg.LocationPermission)},
		Notifier:    location.LogNotifier{},
	}
	var device *location.Position
	if cfg.DeviceLat != nil && cfg.DeviceLon != nil {
		device = &location.Position{Latitude: *cfg.DeviceLat, Longitude: *cfg.DeviceLon}
		platform.Device = location.StaticGeolocator{Position: device}
	}

	ctx := context.Background()
	client := luckybox.New(ctx, cfg, luckybox.NewSDK(cfg), luckybox.NewStore(ctx, cfg), platform)
	defer func() {
		if err := client.Close(); err != nil {
			zap.S().Errorf("Shutting down failed: %v", err)
		}
	}()
	client.Start(ctx)

	here, err := client.Maps.CurrentLocation(ctx)
	if err != nil {
		if device == nil {
			zap.S().Errorf("Could not work out where you are: %v", err)
			return
		}
		zap.S().Warnf("Could not resolve your address, using raw device coordinates: %v", err)
		here = restaurant.Location{Latitude: device.Latitude, Longitude: device.Longitude}
	}
	zap.S().Infof("You are at %q (%f, %f)", here.Address, here.Latitude, here.Longitude)

	filter := restaurant.Filter{Keyword: strings.Join(os.Args[1:], " ")}
	nearby, err := client.Nearby(ctx, here, 1, filter)
	if err != nil {
		zap.S().Errorf("Searching for restaurants failed: %v", err)
		return
	}
	for _, r := range nearby {
		zap.S().Infof("%s  %s  %s", restaurant.FormatDistance(r.Distance), r.Name, r.Address)
	}

	var last string
	if prev, ok := client.Favorites.Selected(); ok {
		last = prev.ID
	}
	pick, err := client.Pick(ctx, nearby, last)
	if err != nil {
		zap.S().Warnf("Nothing to pick: %v", err)
		return
	}
	zap.S().Infof("Today you're eating at %s (%s, %s away). Phone: %s", pick.Name, pick.Address,
		restaurant.FormatDistance(pick.Distance), strings.Join(pick.PhoneNumbers(), ", "))
}
