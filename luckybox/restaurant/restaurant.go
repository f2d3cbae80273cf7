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

// Package restaurant is the data model shared by every map provider, plus the small pure helpers the
// presentation layer needs: random pick, filtering, distance and formatting.
package restaurant

// Location is a point plus its human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type Restaurant struct {
	// ID is stable for a place within a provider. Providers prefix their IDs so they never collide.
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
	// Rating is 0 when unknown.
	Rating float64 `json:"rating"`
	// Distance is in meters from the query point.
	Distance float64  `json:"distance"`
	Photos   []string `json:"photos"`
	// Type is a semicolon-delimited category list.
	Type string `json:"type"`
	// Tel is a semicolon-delimited list of phone numbers.
	Tel string `json:"tel"`
	// Cost is the per-person price, nil when unknown.
	Cost *string `json:"cost,omitempty"`
}
