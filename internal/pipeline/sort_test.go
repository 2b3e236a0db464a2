// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
)

func names(entries []playlist.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.TvgName
	}
	return out
}

func TestSortAlphabetical(t *testing.T) {
	entries := []playlist.Entry{
		entry("Sky Sports F1", "Sport", "u"),
		entry("BBC Two", "News", "u"),
		entry("BBC One", "News", "u"),
	}

	got := Sort(context.Background(), entries, nil, nil)
	want := []string{"BBC One", "BBC Two", "Sky Sports F1"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortGroupRankSequence(t *testing.T) {
	entries := []playlist.Entry{
		entry("s1", "Sport", "u"),
		entry("n1", "News", "u"),
		entry("s2", "Sport", "u"),
	}

	// explicit channel order engages the (group-rank, channel-rank) key
	got := Sort(context.Background(), entries, []string{"News", "Sport"}, []string{"n1", "s1", "s2"})
	groups := make([]string, len(got))
	for i, e := range got {
		groups[i] = e.Group
	}
	want := []string{"News", "Sport", "Sport"}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Fatalf("group sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSortExplicitChannelOrder(t *testing.T) {
	entries := []playlist.Entry{
		entry("BBC Two", "News", "u"),
		entry("BBC One", "News", "u"),
		entry("BBC News", "News", "u"),
	}

	// matching is case-insensitive; unmatched channels sort last
	got := Sort(context.Background(), entries, []string{"News"}, []string{"bbc one", "BBC TWO"})
	want := []string{"BBC One", "BBC Two", "BBC News"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortUnlistedGroupSortsLast(t *testing.T) {
	entries := []playlist.Entry{
		entry("x1", "Xtra", "u"),
		entry("n1", "News", "u"),
	}

	got := Sort(context.Background(), entries, []string{"News"}, []string{"n1", "x1"})
	want := []string{"n1", "x1"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	entries := []playlist.Entry{
		entry("b", "G", "u"),
		entry("a", "G", "u"),
	}
	_ = Sort(context.Background(), entries, nil, nil)
	if entries[0].TvgName != "b" {
		t.Fatal("input slice was reordered")
	}
}
