// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/rules"
)

func entry(name, group, url string) playlist.Entry {
	return playlist.Entry{TvgName: name, TvgID: name + ".id", Group: group, Name: name, URL: url}
}

func TestFilterKeepMode(t *testing.T) {
	entries := []playlist.Entry{
		entry("BBC One", "News", "http://s/1"),
		entry("Sky Sports", "Sport", "http://s/2"),
		entry("CBeebies", "Kids", "http://s/3"),
	}
	rs := Rules{Groups: []string{"News", "Sport"}, GroupMode: GroupModeKeep, NoSort: true}

	got, err := Filter(context.Background(), entries, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "BBC One", got[0].TvgName)
	require.Equal(t, "Sky Sports", got[1].TvgName)
}

func TestFilterDiscardMode(t *testing.T) {
	entries := []playlist.Entry{
		entry("BBC One", "News", "http://s/1"),
		entry("CBeebies", "Kids", "http://s/2"),
	}
	rs := Rules{Groups: []string{"Kids"}, GroupMode: GroupModeDiscard, NoSort: true}

	got, err := Filter(context.Background(), entries, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "BBC One", got[0].TvgName)
}

func TestFilterChannelAndURLDiscard(t *testing.T) {
	entries := []playlist.Entry{
		entry("BBC One", "News", "http://s/1"),
		entry("BBC One +1", "News", "http://s/2"),
		entry("BBC Two", "News", "http://bad-host/3"),
	}
	rs := Rules{
		Groups:          []string{"News"},
		GroupMode:       GroupModeKeep,
		DiscardChannels: []string{`\+1$`},
		DiscardURLs:     []string{"bad-host"},
		NoSort:          true,
	}

	got, err := Filter(context.Background(), entries, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "BBC One", got[0].TvgName)
}

func TestFilterOverridePrecedence(t *testing.T) {
	// group excluded, url on the include-override list: the entry survives
	entries := []playlist.Entry{
		entry("Shopping TV", "Shopping", "http://keep-me/1"),
		entry("Other Shopping", "Shopping", "http://s/2"),
	}
	rs := Rules{
		Groups:      []string{"News"},
		GroupMode:   GroupModeKeep,
		IncludeURLs: []string{"keep-me"},
		NoSort:      true,
	}

	got, err := Filter(context.Background(), entries, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Shopping TV", got[0].TvgName)
}

func TestFilterIncludeChannelBeatsDiscard(t *testing.T) {
	entries := []playlist.Entry{entry("BBC One", "News", "http://s/1")}
	rs := Rules{
		Groups:          []string{"News"},
		GroupMode:       GroupModeKeep,
		DiscardChannels: []string{"BBC One"},
		IncludeChannels: []string{"BBC One"},
		NoSort:          true,
	}

	got, err := Filter(context.Background(), entries, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFilterAppliesTransforms(t *testing.T) {
	e := entry("UK: BBC One", "VIP News", "http://s/1")
	e.TvgID = "wrong.id"
	rs := Rules{
		Groups:            []string{"VIP News"},
		GroupMode:         GroupModeKeep,
		IDTransforms:      []rules.Transform{{From: "UK: BBC One", To: "bbc1.uk"}},
		GroupTransforms:   []rules.Transform{{From: "VIP ", To: ""}},
		ChannelTransforms: []rules.Transform{{From: "UK: ", To: ""}},
		NoSort:            true,
	}

	got, err := Filter(context.Background(), []playlist.Entry{e}, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "bbc1.uk", got[0].TvgID)
	require.Equal(t, "News", got[0].Group)
	require.Equal(t, "BBC One", got[0].TvgName)
	require.Equal(t, "BBC One", got[0].Name)
}

func TestFilterAuditListsEveryEntry(t *testing.T) {
	entries := []playlist.Entry{
		entry("Zulu", "Dropped", "http://s/1"),
		entry("Alpha", "News", "http://s/2"),
	}
	rs := Rules{Groups: []string{"News"}, GroupMode: GroupModeKeep}

	var audit strings.Builder
	got, err := Filter(context.Background(), entries, rs, &audit)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// every parsed entry appears, in the display-name baseline order
	want := "\"Alpha\",\"News\"\n\"Zulu\",\"Dropped\"\n"
	require.Equal(t, want, audit.String())
}
