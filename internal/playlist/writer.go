// SPDX-License-Identifier: MIT

package playlist

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteOptions controls playlist serialization.
type WriteOptions struct {
	// TvhStart seeds tvh-chnum numbering (1-based). Zero means no explicit
	// start was requested.
	TvhStart int
	// TvhOffset reserves numbering blocks per group: on a group boundary the
	// counter rounds up to the next multiple of the offset. Zero means
	// plain sequential numbering.
	TvhOffset int
	// PreserveCase keeps the original case of tvg-id values instead of
	// lowercasing them.
	PreserveCase bool
	// HTTPOnlyImages blanks logo references that are not http(s) URLs.
	HTTPOnlyImages bool
}

// numberingEnabled reports whether tvh-chnum attributes should be emitted at
// all. Numbering is opt-in: it appears only when a non-default start or a
// per-group offset was requested.
func (o WriteOptions) numberingEnabled() bool {
	return o.TvhStart > 0 || o.TvhOffset > 0
}

// WriteM3U serializes the ordered entries as an M3U document. The caller is
// expected to pass entries in final sort order; tvh-chnum numbering runs over
// the sequence as given.
func WriteM3U(w io.Writer, entries []Entry, opts WriteOptions) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")

	counter := 0
	if opts.TvhStart > 0 {
		counter = opts.TvhStart - 1
	}
	group := ""
	if len(entries) > 0 {
		group = entries[0].Group
	}

	for _, e := range entries {
		buf.WriteString("#EXTINF:-1")

		if opts.numberingEnabled() {
			if e.Group != group {
				group = e.Group
				if opts.TvhOffset > 0 {
					counter = opts.TvhOffset * (counter/opts.TvhOffset + 1)
				}
			}
			counter++
			fmt.Fprintf(buf, ` tvh-chnum="%d"`, counter)
		}

		if e.TvgID != "" {
			id := e.TvgID
			if !opts.PreserveCase {
				id = strings.ToLower(id)
			}
			fmt.Fprintf(buf, ` tvg-id="%s"`, id)
		}

		fmt.Fprintf(buf, ` tvg-name="%s"`, e.TvgName)

		if e.TvgLogo != "" {
			logo := e.TvgLogo
			if opts.HTTPOnlyImages && !strings.HasPrefix(logo, "http") {
				logo = ""
			}
			fmt.Fprintf(buf, ` tvg-logo="%s"`, logo)
		}

		if e.Group != "" {
			fmt.Fprintf(buf, ` group-title="%s"`, e.Group)
		}
		if e.Timeshift != "" {
			fmt.Fprintf(buf, ` timeshift="%s"`, e.Timeshift)
		}
		if e.CatchupDays != "" {
			fmt.Fprintf(buf, ` catchup-days="%s"`, e.CatchupDays)
		}
		if e.Catchup != "" {
			fmt.Fprintf(buf, ` catchup="%s"`, e.Catchup)
		}
		if e.CatchupSource != "" {
			fmt.Fprintf(buf, ` catchup-source="%s"`, e.CatchupSource)
		}

		fmt.Fprintf(buf, ",%s\n", e.Name)
		buf.WriteString(e.URL + "\n")
	}

	_, err := io.Copy(w, buf)
	return err
}

// WriteChannelListing emits one quoted (name, group) pair per entry. This is
// the diagnostic listing format shared by the pre-filter audit and the
// survivors listing.
func WriteChannelListing(w io.Writer, entries []Entry) error {
	buf := &bytes.Buffer{}
	for _, e := range entries {
		fmt.Fprintf(buf, "\"%s\",\"%s\"\n", e.TvgName, e.Group)
	}
	_, err := io.Copy(w, buf)
	return err
}

// WriteIdentifierListing emits one quoted (name, identifier) pair per entry,
// used for the no-guide-data report.
func WriteIdentifierListing(w io.Writer, entries []Entry) error {
	buf := &bytes.Buffer{}
	for _, e := range entries {
		fmt.Fprintf(buf, "\"%s\",\"%s\"\n", e.TvgName, e.TvgID)
	}
	_, err := io.Copy(w, buf)
	return err
}
