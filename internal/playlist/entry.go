// SPDX-License-Identifier: MIT

// Package playlist implements the M3U entry model, the attribute extractor
// and the playlist serializers.
package playlist

// Entry is one structured channel record from the playlist.
type Entry struct {
	TvgName       string // tvg-name attribute, falls back to the display text
	TvgID         string // tvg-id attribute, the guide cross-reference key
	TvgLogo       string // tvg-logo attribute
	Group         string // group-title attribute
	Timeshift     string // timeshift attribute, passed through untouched
	CatchupDays   string // catchup-days attribute, passed through untouched
	Catchup       string // catchup attribute, passed through untouched
	CatchupSource string // catchup-source attribute, passed through untouched
	Name          string // display text after the final attribute comma
	URL           string // the resource locator line
}

// IsValid reports whether the entry carries enough data to enter the
// pipeline. A name and a group are always required; the identifier is
// required unless the caller explicitly allows identifier-less entries.
func (e Entry) IsValid(allowNoID bool) bool {
	if e.TvgName == "" || e.Group == "" {
		return false
	}
	if !allowNoID && e.TvgID == "" {
		return false
	}
	return true
}
