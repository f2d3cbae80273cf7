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
	"strings"

	"golang.org/x/exp/slices"
)

// Filter narrows a result list on the client. Zero fields don't filter.
type Filter struct {
	// Keyword matches name, type or address, case-insensitively.
	Keyword   string
	MinRating float64
	// MaxDistance is in meters.
	MaxDistance float64
}

func (f Filter) Match(r Restaurant) bool {
	if f.MinRating > 0 && r.Rating < f.MinRating {
		return false
	}
	if f.MaxDistance > 0 && r.Distance > f.MaxDistance {
		return false
	}
	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	if kw == "" {
		return true
	}
	return slices.ContainsFunc([]string{r.Name, r.Type, r.Address}, func(s string) bool {
		return strings.Contains(strings.ToLower(s), kw)
	})
}

// Apply returns the matching restaurants in their original order.
func (f Filter) Apply(restaurants []Restaurant) []Restaurant {
	out := make([]Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
