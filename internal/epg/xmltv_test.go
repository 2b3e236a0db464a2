// SPDX-License-Identifier: MIT

package epg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleGuide = `<?xml version="1.0" encoding="UTF-8"?>
<tv generator-info-name="upstream">
  <channel id="bbc1.uk">
    <display-name>BBC One</display-name>
    <icon src="http://logo/bbc1.png"/>
  </channel>
  <channel id="sky1.uk">
    <display-name>Sky One</display-name>
  </channel>
  <programme start="20240101180000 +0000" stop="20240101190000 +0000" channel="bbc1.uk">
    <title lang="en">The News</title>
    <desc>Evening news.</desc>
    <credits>
      <presenter>Someone</presenter>
    </credits>
  </programme>
</tv>
`

func TestParse(t *testing.T) {
	tv, err := Parse(strings.NewReader(sampleGuide))
	require.NoError(t, err)
	require.Len(t, tv.Channels, 2)
	require.Len(t, tv.Programmes, 1)

	require.Equal(t, "bbc1.uk", tv.Channels[0].ID)
	require.Equal(t, "display-name", tv.Channels[0].Elems[0].XMLName.Local)
	require.Equal(t, "BBC One", tv.Channels[0].Elems[0].Text)

	p := tv.Programmes[0]
	require.Equal(t, "bbc1.uk", p.Channel)
	require.Equal(t, "title", p.Elems[0].XMLName.Local)
	require.Equal(t, "The News", p.Elems[0].Text)
	// nested descendants survive
	require.Equal(t, "credits", p.Elems[2].XMLName.Local)
	require.Equal(t, "presenter", p.Elems[2].Children[0].XMLName.Local)
}

func TestParseRecoversFromUndefinedEntities(t *testing.T) {
	raw := `<tv><channel id="x"><display-name>A &nbsp; B</display-name></channel></tv>`
	tv, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, tv.Channels, 1)
}

func TestParseNoRoot(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.True(t, errors.Is(err, ErrNoRoot), "got %v", err)

	_, err = Parse(strings.NewReader("   \n"))
	require.True(t, errors.Is(err, ErrNoRoot), "got %v", err)
}

func TestParseWrongRoot(t *testing.T) {
	_, err := Parse(strings.NewReader("<html></html>"))
	require.Error(t, err)
}

func TestWriteDocumentShape(t *testing.T) {
	tv := NewTV()
	tv.Channels = []Channel{{ID: "bbc1.uk"}}

	var b strings.Builder
	require.NoError(t, Write(&b, tv))

	out := b.String()
	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<!DOCTYPE tv SYSTEM "xmltv.dtd">`+"\n"))
	for _, want := range []string{
		`source-info-name="m3u-epg-editor"`,
		`generator-info-name="m3u-epg-editor"`,
		`generator-info-url="https://github.com/bebo-dot-dev/m3u-epg-editor"`,
		`<channel id="bbc1.uk">`,
	} {
		require.Contains(t, out, want)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tv, err := Parse(strings.NewReader(sampleGuide))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, Write(&b, tv))

	again, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, again.Channels, 2)
	require.Len(t, again.Programmes, 1)
	require.Equal(t, "The News", again.Programmes[0].Elems[0].Text)
}
