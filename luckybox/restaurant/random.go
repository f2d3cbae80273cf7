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
	"math/rand/v2"

	"github.com/food-lucky-box/lucky-box/luckybox/fault"
)

// Random picks a restaurant uniformly at random, skipping the one whose ID is excludeID if it is non-empty.
// It fails with fault.Empty when nothing is left to pick from.
func Random(restaurants []Restaurant, excludeID string) (Restaurant, error) {
	candidates := restaurants
	if excludeID != "" {
		candidates = make([]Restaurant, 0, len(restaurants))
		for _, r := range restaurants {
			if r.ID != excludeID {
				candidates = append(candidates, r)
			}
		}
	}
	if len(candidates) == 0 {
		return Restaurant{}, fault.New(fault.Empty, "restaurant.random", "no restaurants available")
	}
	return candidates[rand.IntN(len(candidates))], nil
}
