// SPDX-License-Identifier: MIT

// Package epg provides the XMLTV guide model, a recovery-mode parser and the
// guide reconciler.
package epg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	unorm "golang.org/x/text/unicode/norm"
)

// TV is the root of an XMLTV guide document.
type TV struct {
	XMLName           xml.Name    `xml:"tv"`
	SourceInfoName    string      `xml:"source-info-name,attr,omitempty"`
	SourceInfoURL     string      `xml:"source-info-url,attr,omitempty"`
	SourceDataURL     string      `xml:"source-data-url,attr,omitempty"`
	GeneratorInfoName string      `xml:"generator-info-name,attr,omitempty"`
	GeneratorInfoURL  string      `xml:"generator-info-url,attr,omitempty"`
	Channels          []Channel   `xml:"channel"`
	Programmes        []Programme `xml:"programme"`
}

// Channel is one channel definition node. Sub-elements (display-name, icon,
// url, ...) are kept generically so unknown vendor extensions survive a copy.
type Channel struct {
	ID    string    `xml:"id,attr"`
	Elems []Element `xml:",any"`
}

// Programme is one programme record tied to a channel by identifier.
type Programme struct {
	Start   string     `xml:"start,attr"`
	Stop    string     `xml:"stop,attr"`
	Channel string     `xml:"channel,attr"`
	Extra   []xml.Attr `xml:",any,attr"`
	Elems   []Element  `xml:",any"`
}

// Element is a generic XML node: name, attributes, character data and nested
// children. It round-trips arbitrary descendant trees.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Element  `xml:",any"`
}

func (el Element) clone() Element {
	out := Element{XMLName: el.XMLName, Text: el.Text}
	if len(el.Children) > 0 && strings.TrimSpace(el.Text) == "" {
		// inter-child whitespace from a pretty-printed source, not content
		out.Text = ""
	}
	if len(el.Attrs) > 0 {
		out.Attrs = append([]xml.Attr(nil), el.Attrs...)
	}
	for _, child := range el.Children {
		out.Children = append(out.Children, child.clone())
	}
	return out
}

func (p Programme) clone() Programme {
	out := Programme{Start: p.Start, Stop: p.Stop, Channel: p.Channel}
	if len(p.Extra) > 0 {
		out.Extra = append([]xml.Attr(nil), p.Extra...)
	}
	for _, el := range p.Elems {
		out.Elems = append(out.Elems, el.clone())
	}
	return out
}

// NewTV returns an empty output guide carrying the fixed generator attribute
// block.
func NewTV() *TV {
	return &TV{
		SourceInfoName:    "m3u-epg-editor",
		SourceInfoURL:     "github.com/bebo-dot-dev/m3u-epg-editor",
		SourceDataURL:     "github.com/bebo-dot-dev/m3u-epg-editor",
		GeneratorInfoName: "m3u-epg-editor",
		GeneratorInfoURL:  "https://github.com/bebo-dot-dev/m3u-epg-editor",
	}
}

// ErrNoRoot classifies a guide document with no usable root element.
var ErrNoRoot = errors.New("guide document has no root element")

// Parse reads an XMLTV document in best-effort recovery mode: non-strict
// decoding tolerates recoverable structural damage, while a document that
// yields no root element at all is a structural failure.
func Parse(r io.Reader) (*TV, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	// entity expansion stays disabled, undefined entities decode as text
	dec.Entity = map[string]string{}

	var doc TV
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRoot
		}
		return nil, fmt.Errorf("decode xmltv: %w", err)
	}
	if doc.XMLName.Local != "tv" {
		return nil, ErrNoRoot
	}
	return &doc, nil
}

// Write serializes the guide with the XMLTV document header and two-space
// pretty indentation.
func Write(w io.Writer, tv *TV) error {
	out, err := xml.MarshalIndent(tv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal xmltv: %w", err)
	}
	header := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE tv SYSTEM "xmltv.dtd">` + "\n"
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// channelKey produces the case-normalized form of a channel identifier used
// as the cross-reference key. NFC normalization keeps composed and decomposed
// spellings of the same identifier on one key.
func channelKey(id string, preserveCase bool) string {
	if preserveCase {
		return id
	}
	return strings.ToLower(unorm.NFC.String(id))
}
