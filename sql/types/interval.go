// Copyright 2024 The qpmodel Authors
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

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses a date'...' literal body (e.g. "2024-03-05") into
// a calendar-date Value. Only the date component is kept; there is no
// time-of-day in this model.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Value{}, fmt.Errorf("bad date literal %q: %w", s, err)
	}
	return DateValue(t), nil
}

// daysPerMonth and daysPerYear are the approximations spec §4.A and
// §9 call out explicitly: calendar-correct interval arithmetic is out
// of scope, and callers that need it must adjust.
const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// ParseInterval parses an interval'...' literal body such as
// "1 year 2 months 3 days" into a day count, normalizing month/year
// components via the 30/365 approximation.
func ParseInterval(s string) (int64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields)%2 != 0 {
		return 0, fmt.Errorf("bad interval literal %q", s)
	}
	var total int64
	for i := 0; i < len(fields); i += 2 {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad interval literal %q: %w", s, err)
		}
		unit := strings.ToLower(strings.TrimSuffix(fields[i+1], "s"))
		switch unit {
		case "day":
			total += n
		case "month":
			total += n * daysPerMonth
		case "year":
			total += n * daysPerYear
		default:
			return 0, fmt.Errorf("bad interval unit %q in %q", fields[i+1], s)
		}
	}
	return total, nil
}
