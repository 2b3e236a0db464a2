// SPDX-License-Identifier: MIT

// Package pipeline implements the entry reconciliation stages: inclusion
// filtering with override precedence, attribute transforms and deterministic
// ordering.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/rules"
)

// Group filter modes.
const (
	GroupModeKeep    = "keep"
	GroupModeDiscard = "discard"
)

// Rules is the read-only rule set the pipeline consumes. It is supplied fully
// validated by the configuration layer.
type Rules struct {
	Groups    []string // target group list, order defines group rank
	GroupMode string   // GroupModeKeep or GroupModeDiscard

	DiscardChannels []string
	IncludeChannels []string // override list, absolute precedence
	DiscardURLs     []string
	IncludeURLs     []string // override list, absolute precedence

	IDTransforms      []rules.Transform
	GroupTransforms   []rules.Transform
	ChannelTransforms []rules.Transform

	SortChannels []string // explicit channel order, optional
	NoSort       bool     // disables all sorting, including the name baseline
}

// Filter decides per-entry inclusion and applies the transform lists to the
// survivors. Before any filtering it emits every entry to the audit writer as
// a (name, group) listing; the collaborator persists that side channel.
//
// Unless sorting is disabled, entries are first brought to the alphabetical
// display-name baseline both ranking passes build on.
func Filter(ctx context.Context, entries []playlist.Entry, rs Rules, audit io.Writer) ([]playlist.Entry, error) {
	logger := melog.WithComponentFromContext(ctx, "pipeline")
	logger.Info().
		Str("event", "filter.start").
		Str("group_mode", rs.GroupMode).
		Strs("groups", rs.Groups).
		Int("entries", len(entries)).
		Msg("filtering entries")

	if !rs.NoSort {
		entries = append([]playlist.Entry(nil), entries...)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].TvgName < entries[j].TvgName
		})
	}

	if audit != nil {
		if err := playlist.WriteChannelListing(audit, entries); err != nil {
			return nil, fmt.Errorf("write audit listing: %w", err)
		}
	}

	filtered := make([]playlist.Entry, 0, len(entries))
	for _, e := range entries {
		groupMatched := rules.Matches(e.Group, rs.Groups)
		groupIncluded := groupMatched
		if rs.GroupMode == GroupModeDiscard {
			groupIncluded = !groupMatched
		}

		channelDiscarded := rules.Matches(e.TvgName, rs.DiscardChannels)
		urlDiscarded := rules.Matches(e.URL, rs.DiscardURLs)
		// override lists take absolute precedence over every exclusion
		alwaysKept := rules.Matches(e.TvgName, rs.IncludeChannels) ||
			rules.Matches(e.URL, rs.IncludeURLs)

		if !(groupIncluded && !channelDiscarded && !urlDiscarded) && !alwaysKept {
			continue
		}

		e.TvgID = rules.ApplyExact(e.TvgID, e.TvgName, rs.IDTransforms)
		e.Group = rules.Apply(e.Group, rs.GroupTransforms)
		e.TvgName = rules.Apply(e.TvgName, rs.ChannelTransforms)
		e.Name = rules.Apply(e.Name, rs.ChannelTransforms)
		filtered = append(filtered, e)
	}

	logger.Info().
		Str("event", "filter.done").
		Int("survivors", len(filtered)).
		Msg("entries filtered")
	return filtered, nil
}
