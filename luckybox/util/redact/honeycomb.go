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

// Package redact strips locations and credentials from trace events before they leave the process.
package redact

import (
	"net/url"
	"regexp"

	"golang.org/x/exp/slices"
)

var sensitiveQueryParams = []string{
	"access_token", // mapbox token
	"key",          // google maps API key
	"lat", "lon",   // the user's location
	"latlng",    // reverse geocoding target
	"location",  // nearby search center
	"proximity", // mapbox search center
	"data",      // overpass query, embeds the search center
	"pagetoken", // places paging token, tied to a location
}

var mapboxPathRegex = regexp.MustCompile(`^/geocoding/v5/mapbox\.places/.+?\.json$`)

func redactQuery(query string) string {
	values, err := url.ParseQuery(query)
	if err != nil {
		return "[parse error redacted for safety]"
	}
	newValues := url.Values{}
	for k, v := range values {
		if slices.Contains(sensitiveQueryParams, k) {
			newValues[k] = []string{"redacted"}
		} else {
			newValues[k] = v
		}
	}
	return newValues.Encode()
}

func cleanPath(path string) string {
	if mapboxPathRegex.MatchString(path) {
		return "/geocoding/v5/mapbox.places/[place].json"
	}
	return path
}

func cleanURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "[parse error redacted for safety]"
	}
	parsed.Path = cleanPath(parsed.Path)
	parsed.RawPath = ""
	parsed.RawQuery = redactQuery(parsed.RawQuery)
	return parsed.String()
}

// CleanHoneycomb is a beeline PresendHook. Outgoing HTTP requests carry coordinates and API keys,
// neither of which belongs in Honeycomb.
func CleanHoneycomb(data map[string]interface{}) {
	if query, ok := data["request.query"]; ok {
		if queryStr, ok := query.(string); ok {
			data["request.query"] = redactQuery(queryStr)
		}
	}
	if path, ok := data["request.path"]; ok {
		if pathStr, ok := path.(string); ok {
			data["request.path"] = cleanPath(pathStr)
		}
	}
	if u, ok := data["request.url"]; ok {
		if urlStr, ok := u.(string); ok {
			data["request.url"] = cleanURL(urlStr)
		}
	}
}
