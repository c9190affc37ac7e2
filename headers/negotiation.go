// Copyright 2025 The Nancy Authors
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

package headers

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Entry is a single value of a negotiation header together with its quality.
type Entry struct {
	Value   string
	Quality float64
}

// parseNegotiation parses the raw values of an Accept-style header into
// entries sorted by descending quality. The sort is stable so entries of
// equal quality keep their request order.
func parseNegotiation(raw []string) []Entry {
	entries := make([]Entry, 0, len(raw)*2)

	for _, value := range raw {
		for token := range strings.SplitSeq(value, ",") {
			if entry, ok := parseToken(token); ok {
				entries = append(entries, entry)
			}
		}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Quality, a.Quality)
	})

	return entries
}

// parseToken parses one "value;param=x;q=0.5" token. Parameters other than
// q are discarded. The token is rejected when it is empty or when its q
// parameter is not a decimal in [0, 1].
func parseToken(token string) (Entry, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Entry{}, false
	}

	value, params, hasParams := strings.Cut(token, ";")
	entry := Entry{Value: strings.TrimSpace(value), Quality: 1}
	if entry.Value == "" {
		return Entry{}, false
	}
	if !hasParams {
		return entry, true
	}

	for param := range strings.SplitSeq(params, ";") {
		key, raw, found := strings.Cut(param, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, ok := parseQuality(strings.TrimSpace(raw))
		if !ok {
			return Entry{}, false
		}
		entry.Quality = q
	}

	return entry, true
}

// parseQuality parses a q-value written as digits[.digits]. Values
// outside [0, 1] are invalid.
func parseQuality(s string) (float64, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || !(q >= 0 && q <= 1) {
		return 0, false
	}
	return q, true
}

func isDecimal(s string) bool {
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" || (hasDot && frac == "") {
		return false
	}
	return allDigits(whole) && allDigits(frac)
}

func allDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
