// SPDX-License-Identifier: MIT

package epg

import (
	"fmt"
	"strings"
	"time"
)

// xmltvTimeLayouts covers the timestamp spellings seen in the wild, most
// specific first. Layouts without a zone are interpreted in local time.
var xmltvTimeLayouts = []string{
	"20060102150405 -0700",
	"20060102150405 -07:00",
	"20060102150405",
	"200601021504 -0700",
	"200601021504",
	"2006010215",
	"20060102",
}

// ParseTime parses an XMLTV start/stop timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range xmltvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized xmltv timestamp %q", s)
}

// FormatTime renders a timestamp in the canonical XMLTV form.
func FormatTime(t time.Time) string {
	return t.Format("20060102150405 -0700")
}

// formatSyntheticTime renders a synthetic programme boundary. Minutes and
// seconds are zeroed so synthetic blocks land on whole hours.
func formatSyntheticTime(t time.Time) string {
	return t.Format("2006010215") + "0000 " + t.Format("-0700")
}

// Window is the symmetric programme time window around the reference clock.
type Window struct {
	Now   time.Time
	Range time.Duration
}

// NewWindow builds a window of +/- rangeHours around now.
func NewWindow(now time.Time, rangeHours int) Window {
	return Window{Now: now, Range: time.Duration(rangeHours) * time.Hour}
}

// Contains reports whether ts falls inside the window, boundary-inclusive.
func (w Window) Contains(ts time.Time) bool {
	start := w.Now.Add(-w.Range)
	end := w.Now.Add(w.Range)
	return !ts.Before(start) && !ts.After(end)
}
