// SPDX-License-Identifier: MIT

// Package config defines the rule set consumed by the pipeline and its
// hydration from JSON or YAML configuration files.
package config

import (
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/rules"
)

// Group filter modes.
const (
	GroupModeKeep    = "keep"
	GroupModeDiscard = "discard"
)

// Guide channel sort types.
const (
	XMLSortNone  = "none"
	XMLSortAlpha = "alpha"
	XMLSortM3U   = "m3u"
)

// Options is the full run configuration: source locations, the rule set and
// output placement. Field names mirror the configuration file keys.
type Options struct {
	M3UURL         string            `json:"m3uurl" yaml:"m3uurl"`
	EPGURL         string            `json:"epgurl" yaml:"epgurl"`
	RequestHeaders []rules.Transform `json:"request_headers" yaml:"request_headers"`

	Groups    []string `json:"groups" yaml:"groups"`
	GroupMode string   `json:"groupmode" yaml:"groupmode"`

	DiscardChannels []string `json:"discard_channels" yaml:"discard_channels"`
	IncludeChannels []string `json:"include_channels" yaml:"include_channels"`
	DiscardURLs     []string `json:"discard_urls" yaml:"discard_urls"`
	IncludeURLs     []string `json:"include_urls" yaml:"include_urls"`

	IDTransforms      []rules.Transform `json:"id_transforms" yaml:"id_transforms"`
	GroupTransforms   []rules.Transform `json:"group_transforms" yaml:"group_transforms"`
	ChannelTransforms []rules.Transform `json:"channel_transforms" yaml:"channel_transforms"`

	RangeHours   int      `json:"range" yaml:"range"`
	SortChannels []string `json:"sortchannels" yaml:"sortchannels"`
	XMLSortType  string   `json:"xml_sort_type" yaml:"xml_sort_type"`
	TvhStart     int      `json:"tvh_start" yaml:"tvh_start"`
	TvhOffset    int      `json:"tvh_offset" yaml:"tvh_offset"`

	AllowNoID     bool `json:"no_tvg_id" yaml:"no_tvg_id"`
	NoEPG         bool `json:"no_epg" yaml:"no_epg"`
	ForceEPG      bool `json:"force_epg" yaml:"force_epg"`
	NoSort        bool `json:"no_sort" yaml:"no_sort"`
	HTTPForImages bool `json:"http_for_images" yaml:"http_for_images"`
	PreserveCase  bool `json:"preserve_case" yaml:"preserve_case"`

	OutDirectory string `json:"outdirectory" yaml:"outdirectory"`
	OutFilename  string `json:"outfilename" yaml:"outfilename"`

	LogEnabled bool   `json:"log_enabled" yaml:"log_enabled"`
	LogLevel   string `json:"log_level" yaml:"log_level"`

	FetchTimeoutSeconds int `json:"fetch_timeout_seconds" yaml:"fetch_timeout_seconds"`
	FetchRetries        int `json:"fetch_retries" yaml:"fetch_retries"`
}

// Default returns the option defaults applied before any file or flag value.
func Default() Options {
	return Options{
		GroupMode:           GroupModeKeep,
		RangeHours:          168,
		XMLSortType:         XMLSortNone,
		LogLevel:            "info",
		FetchTimeoutSeconds: 300,
		FetchRetries:        2,
	}
}

// HeaderMap converts the configured request header pairs into the map form
// the fetch client consumes.
func (o Options) HeaderMap() map[string]string {
	if len(o.RequestHeaders) == 0 {
		return nil
	}
	m := make(map[string]string, len(o.RequestHeaders))
	for _, h := range o.RequestHeaders {
		m[h.From] = h.To
	}
	return m
}
