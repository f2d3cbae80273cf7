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

// Package favorites keeps the user's saved restaurants and the most recent pick.
package favorites

import (
	"context"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/food-lucky-box/lucky-box/luckybox/persistence"
	"github.com/food-lucky-box/lucky-box/luckybox/restaurant"
	"github.com/food-lucky-box/lucky-box/luckybox/util/storage"
)

const (
	// FavoritesKey holds just the favorites list.
	FavoritesKey = "food-lucky-box"
	// StateKey holds the favorites and the selected restaurant together. It wins over FavoritesKey on load.
	StateKey = "appState"
)

type favoritesSnapshot struct {
	Favorites []restaurant.Restaurant `json:"favorites"`
}

type stateSnapshot struct {
	SelectedRestaurant *restaurant.Restaurant  `json:"selectedRestaurant"`
	Favorites          []restaurant.Restaurant `json:"favorites"`
}

type Store struct {
	store storage.Store

	mu        sync.Mutex
	favorites []restaurant.Restaurant
	selected  *restaurant.Restaurant
}

// Open loads saved state from s. Missing or corrupt snapshots start empty.
func Open(ctx context.Context, s storage.Store) *Store {
	f := &Store{store: s}
	var favs favoritesSnapshot
	if persistence.Load(ctx, s, FavoritesKey, &favs) {
		f.favorites = favs.Favorites
	}
	var state stateSnapshot
	if persistence.Load(ctx, s, StateKey, &state) {
		if state.Favorites != nil {
			f.favorites = state.Favorites
		}
		f.selected = state.SelectedRestaurant
	}
	f.favorites = dedupe(f.favorites)
	return f
}

func dedupe(rs []restaurant.Restaurant) []restaurant.Restaurant {
	out := make([]restaurant.Restaurant, 0, len(rs))
	for _, r := range rs {
		if !slices.ContainsFunc(out, func(o restaurant.Restaurant) bool { return o.ID == r.ID }) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Store) List() []restaurant.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.favorites)
}

func (f *Store) Contains(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexLocked(id) >= 0
}

func (f *Store) indexLocked(id string) int {
	return slices.IndexFunc(f.favorites, func(r restaurant.Restaurant) bool { return r.ID == id })
}

// Add appends r unless a restaurant with the same id is already saved. It reports whether r was added.
func (f *Store) Add(ctx context.Context, r restaurant.Restaurant) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexLocked(r.ID) >= 0 {
		return false
	}
	f.favorites = append(f.favorites, r)
	f.persistLocked(ctx, true)
	return true
}

// Remove drops the restaurant with the given id. It reports whether anything was removed.
func (f *Store) Remove(ctx context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return false
	}
	f.favorites = slices.Delete(f.favorites, i, i+1)
	f.persistLocked(ctx, true)
	return true
}

// Toggle adds r if it isn't saved and removes it if it is. It reports whether r is saved afterwards.
func (f *Store) Toggle(ctx context.Context, r restaurant.Restaurant) bool {
	if f.Remove(ctx, r.ID) {
		return false
	}
	f.Add(ctx, r)
	return true
}

func (f *Store) SetSelected(ctx context.Context, r restaurant.Restaurant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = &r
	f.persistLocked(ctx, false)
}

// Selected returns the last picked restaurant, if any.
func (f *Store) Selected() (restaurant.Restaurant, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return restaurant.Restaurant{}, false
	}
	return *f.selected, true
}

func (f *Store) persistLocked(ctx context.Context, favoritesChanged bool) {
	favs := f.favorites
	if favs == nil {
		favs = []restaurant.Restaurant{}
	}
	if favoritesChanged {
		persistence.SaveQuietly(ctx, f.store, FavoritesKey, favoritesSnapshot{Favorites: favs})
	}
	persistence.SaveQuietly(ctx, f.store, StateKey, stateSnapshot{SelectedRestaurant: f.selected, Favorites: favs})
}
