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

// Package persistence saves whole JSON snapshots to a storage.Store. Reading is forgiving: missing or
// corrupt data comes back as "not found" so callers start cold instead of failing.
package persistence

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

// Load decodes the snapshot under key into v. It reports false if there is no usable snapshot.
func Load(ctx context.Context, s storage.Store, key string, v any) bool {
	b, ok, err := s.Get(ctx, key)
	if err != nil {
		zap.S().Warnf("Loading %q failed, starting empty: %v", key, fault.Wrap(fault.Persistence, "persistence.load", err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		zap.S().Warnf("Discarding corrupt %q snapshot: %v", key, err)
		return false
	}
	return true
}

// Save writes v under key. Failures are returned as fault.Persistence; most callers just log them.
func Save(ctx context.Context, s storage.Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fault.Wrap(fault.Persistence, "persistence.save", err)
	}
	if err := s.Set(ctx, key, b); err != nil {
		return fault.Wrap(fault.Persistence, "persistence.save", err)
	}
	return nil
}

// SaveQuietly is Save for best-effort writes: errors are logged, never returned.
func SaveQuietly(ctx context.Context, s storage.Store, key string, v any) {
	if err := Save(ctx, s, key, v); err != nil {
		zap.S().Errorf("Persisting %q failed: %v", key, err)
	}
}
