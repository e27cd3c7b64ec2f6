// Copyright 2025 Metabase MCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filters

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	dashboardIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	dashboardIDLength   = 8
	idRetryLimit        = 10

	// "tab" is reserved by the platform for dashboard tab routing.
	reservedSlug = "tab"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// NewCardParameterID returns a fresh UUID-shaped identifier linking a
// template tag with its paired card parameter.
func NewCardParameterID() string {
	return uuid.NewString()
}

// NewDashboardParameterID returns an 8-character alphanumeric
// identifier not present in existing. It retries on collision and
// fails loudly rather than returning a duplicate.
func NewDashboardParameterID(existing map[string]bool) (string, error) {
	for range idRetryLimit {
		b := make([]byte, dashboardIDLength)
		for i := range b {
			b[i] = dashboardIDAlphabet[rand.Intn(len(dashboardIDAlphabet))]
		}
		id := string(b)
		if !existing[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique dashboard parameter ID after %d attempts", idRetryLimit)
}

// Slugify derives a stable URL-safe slug from a display name:
// lowercased, runs of non-alphanumeric characters collapsed to single
// underscores, never empty, never the reserved name "tab".
func Slugify(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "parameter"
	}
	if slug == reservedSlug {
		return "tab_parameter"
	}
	return slug
}
