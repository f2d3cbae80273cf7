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

package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Position struct {
	Latitude  float64
	Longitude float64
	// Accuracy is in meters, 0 if unknown.
	Accuracy float64
}

type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	// MaximumAge is how old a cached position may be. Zero forces a fresh fix.
	MaximumAge time.Duration
}

type PositionErrorCode int

const (
	PermissionDenied    PositionErrorCode = 1
	PositionUnavailable PositionErrorCode = 2
	Timeout             PositionErrorCode = 3
)

type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// Geolocator is the device's one-shot position API.
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// StaticGeolocator reports a fixed position, or PositionUnavailable if it has none.
type StaticGeolocator struct {
	Position *Position
}

func (g StaticGeolocator) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, &PositionError{Code: Timeout, Message: "timed out"}
		}
		return Position{}, err
	}
	if g.Position == nil {
		return Position{}, &PositionError{Code: PositionUnavailable, Message: "no position available"}
	}
	return *g.Position, nil
}

// StaticPermissions reports a fixed permission state. An empty state behaves like a missing permission API.
type StaticPermissions struct {
	State Permission
}

func (p StaticPermissions) QueryGeolocation(context.Context) (Permission, error) {
	if p.State == "" {
		return "", errors.New("permissions API unavailable")
	}
	return p.State, nil
}

// LogNotifier writes user-facing messages to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) {
	zap.S().Infof("[notice] %s", message)
}
