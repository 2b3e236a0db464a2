// SPDX-License-Identifier: MIT

package playlist

import (
	"bufio"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
)

// ErrNotM3U is returned when the input does not start with the #EXTM3U header.
var ErrNotM3U = errors.New("input does not start with #EXTM3U")

var (
	tvgNameRe       = attrRe("tvg-name")
	tvgIDRe         = attrRe("tvg-id")
	tvgLogoRe       = attrRe("tvg-logo")
	groupTitleRe    = attrRe("group-title")
	timeshiftRe     = attrRe("timeshift")
	catchupDaysRe   = attrRe("catchup-days")
	catchupRe       = attrRe("catchup")
	catchupSourceRe = attrRe("catchup-source")

	// display text follows the closing quote of the final attribute and its
	// comma separator
	displayNameRe = regexp.MustCompile(`" ?,(.*)$`)
)

func attrRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + name + `="(.*?)"`)
}

func attr(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// extract converts one #EXTINF metadata line into an Entry. Attributes that
// are absent yield empty fields, not errors. When no tvg-name attribute is
// present the display text substitutes for it.
func extract(meta string) Entry {
	e := Entry{
		TvgName:       attr(tvgNameRe, meta),
		TvgID:         attr(tvgIDRe, meta),
		TvgLogo:       attr(tvgLogoRe, meta),
		Group:         attr(groupTitleRe, meta),
		Timeshift:     attr(timeshiftRe, meta),
		CatchupDays:   attr(catchupDaysRe, meta),
		Catchup:       attr(catchupRe, meta),
		CatchupSource: attr(catchupSourceRe, meta),
	}
	if m := displayNameRe.FindStringSubmatch(meta); m != nil {
		e.Name = m[1]
	}
	if e.TvgName == "" {
		e.TvgName = e.Name
	}
	return e
}

// Parse reads a line-oriented M3U document into a list of valid entries.
// A metadata line introduces a channel and the next non-comment line is its
// URL. Malformed or invalid records are logged and skipped; parsing never
// aborts on a single bad record.
func Parse(ctx context.Context, r io.Reader, allowNoID bool) ([]Entry, error) {
	logger := melog.WithComponentFromContext(ctx, "playlist")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotM3U
	}
	if !strings.Contains(scanner.Text(), "#EXTM3U") {
		return nil, ErrNotM3U
	}

	var (
		entries []Entry
		pending *Entry
		lineNo  = 1
		skipped int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			e := extract(line)
			pending = &e
		case strings.HasPrefix(line, "#"):
			// other directives (#EXTGRP, #EXTVLCOPT, ...) are not part of
			// the two-line record
			continue
		default:
			if pending == nil {
				logger.Debug().
					Str("event", "m3u.orphan_url").
					Int("line", lineNo).
					Msg("url line without a preceding #EXTINF record")
				continue
			}
			pending.URL = line
			if pending.IsValid(allowNoID) {
				entries = append(entries, *pending)
			} else {
				skipped++
				logger.Debug().
					Str("event", "m3u.invalid_entry").
					Int("line", lineNo).
					Str("name", pending.TvgName).
					Str("group", pending.Group).
					Msg("dropping invalid entry")
			}
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}

	logger.Info().
		Str("event", "m3u.parsed").
		Int("entries", len(entries)).
		Int("skipped", skipped).
		Msg("m3u parsed")
	return entries, nil
}
