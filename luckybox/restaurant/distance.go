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

package restaurant

import (
	"github.com/umahmood/haversine"
	"golang.org/x/exp/slices"
)

// Distance returns the great-circle distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p := haversine.Coord{Lat: lat1, Lon: lon1}
	q := haversine.Coord{Lat: lat2, Lon: lon2}
	_, km := haversine.Distance(p, q)
	return km * 1000
}

// SortByDistance orders restaurants nearest first, keeping the provider's order for ties.
func SortByDistance(rs []Restaurant) {
	slices.SortStableFunc(rs, func(a, b Restaurant) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
}

// Page returns the 1-based page of rs, or an empty slice past the end.
func Page(rs []Restaurant, page, size int) []Restaurant {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if size <= 0 || start >= len(rs) {
		return []Restaurant{}
	}
	return rs[start:min(start+size, len(rs))]
}
