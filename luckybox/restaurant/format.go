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
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// FormatDistance renders meters as "350m" below a kilometer and "1.2km" above.
func FormatDistance(meters float64) string {
	rounded := math.Round(meters)
	if rounded >= 1000 {
		return fmt.Sprintf("%.1fkm", meters/1000)
	}
	return fmt.Sprintf("%dm", int(rounded))
}

func (r Restaurant) PhoneNumbers() []string {
	var out []string
	for _, n := range strings.Split(r.Tel, ";") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Categories splits Type into distinct categories, keeping the first occurrence of each.
func (r Restaurant) Categories() []string {
	var out []string
	for _, c := range strings.Split(r.Type, ";") {
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
