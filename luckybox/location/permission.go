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

// Package location asks the platform for geolocation permission and device position.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/honeycombio/beeline-go"
	"go.uber.org/zap"
)

type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
	// Prompt means undetermined. It is also what we assume when the platform can't tell us.
	Prompt Permission = "prompt"
)

const (
	DeniedMessage      = "Location permission is required. Please enable it in your browser settings."
	UnavailableMessage = "Failed to get your location. Please check that location services are enabled."
)

const promptTimeout = 5 * time.Second

// PermissionQuerier is the platform's permission API.
type PermissionQuerier interface {
	QueryGeolocation(ctx context.Context) (Permission, error)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string)
}

type Helper struct {
	permissions PermissionQuerier
	device      Geolocator
	notifier    Notifier
}

// NewHelper builds a Helper. A nil permissions API is treated as "always Prompt".
func NewHelper(permissions PermissionQuerier, device Geolocator, notifier Notifier) *Helper {
	return &Helper{permissions: permissions, device: device, notifier: notifier}
}

// Check returns the platform's permission state, or Prompt if it can't be determined.
func (h *Helper) Check(ctx context.Context) Permission {
	if h.permissions == nil {
		return Prompt
	}
	p, err := h.permissions.QueryGeolocation(ctx)
	if err != nil {
		zap.S().Debugf("Permission query failed, assuming prompt: %v", err)
		return Prompt
	}
	switch p {
	case Granted, Denied:
		return p
	}
	return Prompt
}

// Request makes sure geolocation is allowed. When the state is undetermined it does a one-shot position
// fetch so the OS shows its prompt. The user is told why whenever this returns false.
func (h *Helper) Request(ctx context.Context) bool {
	ctx, span := beeline.StartSpan(ctx, "location.request_permission")
	defer span.Send()
	p := h.Check(ctx)
	span.AddField("permission", string(p))
	switch p {
	case Granted:
		return true
	case Denied:
		h.notify(DeniedMessage)
		return false
	}
	if h.device == nil {
		h.notify(UnavailableMessage)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, promptTimeout)
	defer cancel()
	_, err := h.device.CurrentPosition(ctx, PositionOptions{Timeout: promptTimeout})
	if err == nil {
		return true
	}
	span.AddField("error", err)
	var pe *PositionError
	if errors.As(err, &pe) && pe.Code == PermissionDenied {
		h.notify(DeniedMessage)
	} else {
		h.notify(UnavailableMessage)
	}
	return false
}

func (h *Helper) notify(msg string) {
	if h.notifier != nil {
		h.notifier.Notify(msg)
	}
}
