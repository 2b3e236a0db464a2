// SPDX-License-Identifier: MIT

package epg

import (
	"context"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/rules"
)

// Guide channel element sort modes.
const (
	XMLSortNone  = "none"
	XMLSortAlpha = "alpha"
	XMLSortM3U   = "m3u"
)

// syntheticBlocks bounds synthetic programme generation to a 7 day horizon
// of 2 hour blocks.
const (
	syntheticBlocks   = 167
	syntheticDuration = 2 * time.Hour
)

// Options configures guide reconciliation.
type Options struct {
	RangeHours        int    // symmetric programme window in hours
	XMLSortType       string // XMLSortNone, XMLSortAlpha or XMLSortM3U
	PreserveCase      bool   // keep identifier case instead of normalizing
	HTTPOnlyImages    bool   // blank non-http icon references
	AllowNoID         bool   // identifier-less entries were allowed in
	ForceSynthetic    bool   // synthesize guide data for identifier-less entries
	ChannelTransforms []rules.Transform
	Now               time.Time // reference clock; zero value means wall clock
}

// Result is the outcome of one reconciliation run.
type Result struct {
	TV          *TV
	NoGuideData []playlist.Entry // entries with no guide data, diagnostic
	MaxStart    time.Time        // latest programme start seen in the source
}

// Reconcile cross-references the filtered, ordered entries against the source
// guide and builds a fresh output guide containing only matching channel
// nodes and the programme nodes inside the configured time window.
func Reconcile(ctx context.Context, source *TV, entries []playlist.Entry, opts Options) *Result {
	logger := melog.WithComponentFromContext(ctx, "epg")

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	window := NewWindow(now, opts.RangeHours)
	synthesize := opts.AllowNoID && opts.ForceSynthetic

	// stage 1: case-normalized identifier -> entry, last write wins, key
	// order follows first appearance
	keys := make([]string, 0, len(entries))
	deduped := make(map[string]playlist.Entry, len(entries))
	for _, e := range entries {
		key := channelKey(e.TvgID, opts.PreserveCase)
		if _, ok := deduped[key]; !ok {
			keys = append(keys, key)
		}
		deduped[key] = e
	}
	logger.Info().
		Str("event", "epg.reconcile.start").
		Int("unique_ids", len(keys)).
		Int("range_hours", opts.RangeHours).
		Msg("reconciling guide")

	out := NewTV()

	// stage 2: project matching channel nodes into the output tree
	seen := make(map[string]bool, len(source.Channels))
	for _, ch := range source.Channels {
		if ch.ID == "" || seen[ch.ID] {
			continue
		}
		key := channelKey(ch.ID, opts.PreserveCase)
		if _, ok := deduped[key]; !ok {
			continue
		}
		seen[ch.ID] = true

		id := ch.ID
		if !opts.PreserveCase {
			id = strings.ToLower(id)
		}
		projected := Channel{ID: id}
		for _, el := range ch.Elems {
			copied := el.clone()
			switch strings.ToLower(copied.XMLName.Local) {
			case "display-name":
				copied.Text = rules.Apply(copied.Text, opts.ChannelTransforms)
			case "icon":
				if opts.HTTPOnlyImages {
					for i, attr := range copied.Attrs {
						if !strings.HasPrefix(attr.Value, "http") {
							copied.Attrs[i].Value = ""
						}
					}
				}
			}
			projected.Elems = append(projected.Elems, copied)
		}
		out.Channels = append(out.Channels, projected)
	}

	// stage 3: synthetic channels for identifier-less entries
	if synthesize {
		for _, e := range entries {
			if e.TvgID != "" {
				continue
			}
			out.Channels = append(out.Channels, Channel{
				ID: e.TvgName,
				Elems: []Element{{
					XMLName: xml.Name{Local: "display-name"},
					Text:    e.TvgName,
				}},
			})
		}
	}

	// stage 4: optional channel node ordering
	switch opts.XMLSortType {
	case XMLSortAlpha:
		sort.SliceStable(out.Channels, func(i, j int) bool {
			return out.Channels[i].ID < out.Channels[j].ID
		})
	case XMLSortM3U:
		pos := make(map[string]int, len(keys))
		for i, k := range keys {
			pos[k] = i
		}
		rank := func(id string) int {
			if p, ok := pos[channelKey(id, opts.PreserveCase)]; ok {
				return p
			}
			return len(keys)
		}
		sort.SliceStable(out.Channels, func(i, j int) bool {
			return rank(out.Channels[i].ID) < rank(out.Channels[j].ID)
		})
	}

	// stage 5: channel identifier -> programmes, one scan of the source
	index := make(map[string][]Programme, len(source.Channels))
	for _, p := range source.Programmes {
		key := channelKey(p.Channel, opts.PreserveCase)
		index[key] = append(index[key], p)
	}

	// stage 6: project programmes inside the time window
	var (
		noGuide  []playlist.Entry
		maxStart time.Time
	)
	for _, key := range keys {
		entry := deduped[key]
		if entry.TvgID == "" {
			if !synthesize {
				noGuide = append(noGuide, entry)
			}
			continue
		}
		programmes, ok := index[key]
		if !ok {
			if !synthesize {
				noGuide = append(noGuide, entry)
			}
			continue
		}

		id := entry.TvgID
		if !opts.PreserveCase {
			id = strings.ToLower(id)
		}
		for _, p := range programmes {
			start, err := ParseTime(p.Start)
			if err != nil {
				logger.Debug().
					Str("event", "epg.bad_timestamp").
					Str("channel", p.Channel).
					Str("start", p.Start).
					Msg("skipping programme with unparseable start")
				continue
			}
			if start.After(maxStart) {
				maxStart = start
			}
			if !window.Contains(start) {
				continue
			}
			copied := p.clone()
			copied.Channel = id
			out.Programmes = append(out.Programmes, copied)
		}
	}

	// stage 7: synthetic programme blocks for identifier-less entries
	if synthesize {
		for _, e := range entries {
			if e.TvgID != "" {
				continue
			}
			start := now
			stop := now.Add(syntheticDuration)
			if start.After(maxStart) {
				maxStart = start
			}
			for i := 0; i < syntheticBlocks; i++ {
				if window.Contains(start) {
					out.Programmes = append(out.Programmes, Programme{
						Start:   formatSyntheticTime(start),
						Stop:    formatSyntheticTime(stop),
						Channel: e.TvgName,
						Elems: []Element{
							{XMLName: xml.Name{Local: "title"}, Text: e.TvgName},
							{XMLName: xml.Name{Local: "desc"}, Text: e.TvgName},
						},
					})
				}
				start = start.Add(syntheticDuration)
				stop = stop.Add(syntheticDuration)
			}
		}
	}

	rangeStart := now.Add(-time.Duration(opts.RangeHours) * time.Hour)
	rangeEnd := now.Add(time.Duration(opts.RangeHours) * time.Hour)
	logger.Info().
		Str("event", "epg.reconcile.done").
		Int("channels", len(out.Channels)).
		Int("programmes", len(out.Programmes)).
		Int("no_guide_data", len(noGuide)).
		Str("range_start", rangeStart.Format("02 Jan 2006 15:04")).
		Str("range_end", rangeEnd.Format("02 Jan 2006 15:04")).
		Str("max_start", maxStart.Format("02 Jan 2006 15:04")).
		Msg("guide reconciled")

	return &Result{TV: out, NoGuideData: noGuide, MaxStart: maxStart}
}
