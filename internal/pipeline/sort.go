// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"math"
	"sort"
	"strings"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
)

const unranked = math.MaxInt

// Sort orders the filtered entries. With an explicit channel order configured
// the key is (group rank, channel rank): group rank is the group's 1-based
// position in the configured group list (unlisted groups sort last), channel
// rank is the channel's position in the order list (case-insensitive,
// unmatched channels sort last within their group). Without one, entries sort
// alphabetically by (group, display name).
//
// Ranks live in local maps keyed by entry position, the entries themselves
// are not mutated; the returned slice is a fresh ordering.
func Sort(ctx context.Context, entries []playlist.Entry, groupOrder, channelOrder []string) []playlist.Entry {
	logger := melog.WithComponentFromContext(ctx, "pipeline")

	out := append([]playlist.Entry(nil), entries...)

	if len(channelOrder) == 0 {
		logger.Info().
			Str("event", "sort.alpha").
			Msg("sorting entries by group and channel name")
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Group != out[j].Group {
				return out[i].Group < out[j].Group
			}
			return out[i].TvgName < out[j].TvgName
		})
		return out
	}

	logger.Info().
		Str("event", "sort.explicit").
		Strs("channel_order", channelOrder).
		Msg("sorting entries by configured channel order")

	channelRank := make(map[int]int, len(channelOrder))
	for rank, name := range channelOrder {
		for i, e := range out {
			if strings.EqualFold(e.TvgName, name) {
				channelRank[i] = rank
				break
			}
		}
	}

	groupRank := groupRanks(out, groupOrder)
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		ga, gb := groupRank[ia], groupRank[ib]
		if ga != gb {
			return ga < gb
		}
		ca, cb := rankOr(channelRank, ia), rankOr(channelRank, ib)
		return ca < cb
	})

	sorted := make([]playlist.Entry, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// groupRanks assigns each entry the 1-based position of its group in the
// configured order. Entries whose group is not listed stay unranked and sort
// after every ranked group.
func groupRanks(entries []playlist.Entry, groupOrder []string) map[int]int {
	rank := make(map[int]int, len(entries))
	for i := range entries {
		rank[i] = unranked
	}
	for pos, group := range groupOrder {
		for i, e := range entries {
			if e.Group == group {
				rank[i] = pos + 1
			}
		}
	}
	return rank
}

func rankOr(m map[int]int, i int) int {
	if r, ok := m[i]; ok {
		return r
	}
	return unranked
}
