// SPDX-License-Identifier: MIT

// Command m3u-epg-editor fetches an M3U playlist and its companion XMLTV
// guide, filters and reorders the playlist against a configured rule set and
// writes a matching, trimmed guide next to it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bebo-dot-dev/m3u-epg-editor/internal/config"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/jobs"
	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/rules"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("m3u-epg-editor", flag.ExitOnError)

	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to a JSON or YAML configuration file")

	m3uURL := fs.String("m3uurl", "", "url to pull the m3u file from (http://, https:// and file:// are supported)")
	epgURL := fs.String("epgurl", "", "url to pull the epg file from (http://, https:// and file:// are supported)")
	requestHeaders := fs.String("request_headers", "", "request headers as JSON, e.g. {\"request_headers\":[{\"User-Agent\":\"curl\"}]}")
	groups := fs.String("groups", "", "comma separated channel groups to keep or discard")
	groupMode := fs.String("groupmode", "", "groups filter mode, keep or discard")
	discardChannels := fs.String("discard_channels", "", "comma separated channel name patterns to discard")
	includeChannels := fs.String("include_channels", "", "comma separated channel name patterns to keep regardless of other filters")
	discardURLs := fs.String("discard_urls", "", "comma separated stream url patterns to discard")
	includeURLs := fs.String("include_urls", "", "comma separated stream url patterns to keep regardless of other filters")
	idTransforms := fs.String("id_transforms", "", "tvg-id transforms as JSON, e.g. {\"id_transforms\":[{\"from\":\"to\"}]}")
	groupTransforms := fs.String("group_transforms", "", "group-title transforms as JSON")
	channelTransforms := fs.String("channel_transforms", "", "channel name transforms as JSON")
	rangeHours := fs.Int("range", -1, "symmetric epg time window in hours around now")
	sortChannels := fs.String("sortchannels", "", "comma separated explicit channel ordering")
	xmlSortType := fs.String("xml_sort_type", "", "epg channel element sort: none, alpha or m3u")
	tvhStart := fs.Int("tvh_start", -1, "first tvh-chnum channel number")
	tvhOffset := fs.Int("tvh_offset", -1, "tvh-chnum numbering block size per group")
	noTvgID := fs.Bool("no_tvg_id", false, "allow entries without a tvg-id")
	noEPG := fs.Bool("no_epg", false, "skip all epg processing")
	forceEPG := fs.Bool("force_epg", false, "synthesize epg data for entries without a tvg-id")
	noSort := fs.Bool("no_sort", false, "keep the original playlist order")
	httpForImages := fs.Bool("http_for_images", false, "blank image references that are not http urls")
	preserveCase := fs.Bool("preserve_case", false, "keep tvg-id case instead of lowercasing")
	outDirectory := fs.String("outdirectory", "", "directory to write the generated files into")
	outFilename := fs.String("outfilename", "", "base filename for the generated files")
	logEnabled := fs.Bool("log_enabled", false, "also write log output to process.log in the output directory")
	logLevel := fs.String("log_level", "", "log level: debug, info, warn or error")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("m3u-epg-editor %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	melog.Configure(melog.Config{Level: "info"})
	logger := melog.WithComponent("cli")

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error().Err(err).
				Str("event", "config.load_failed").
				Str("path", *configPath).
				Msg("failed to load configuration file")
			return 1
		}
		opts = loaded
	}

	// flags set on the command line override file values
	overrides := map[string]func() error{
		"m3uurl":          func() error { opts.M3UURL = *m3uURL; return nil },
		"epgurl":          func() error { opts.EPGURL = *epgURL; return nil },
		"request_headers": func() error { return parseTransformList(*requestHeaders, "request_headers", &opts.RequestHeaders) },
		"groups":          func() error { opts.Groups = splitList(*groups); return nil },
		"groupmode":       func() error { opts.GroupMode = *groupMode; return nil },
		"discard_channels": func() error {
			opts.DiscardChannels = splitList(*discardChannels)
			return nil
		},
		"include_channels": func() error {
			opts.IncludeChannels = splitList(*includeChannels)
			return nil
		},
		"discard_urls":  func() error { opts.DiscardURLs = splitList(*discardURLs); return nil },
		"include_urls":  func() error { opts.IncludeURLs = splitList(*includeURLs); return nil },
		"id_transforms": func() error { return parseTransformList(*idTransforms, "id_transforms", &opts.IDTransforms) },
		"group_transforms": func() error {
			return parseTransformList(*groupTransforms, "group_transforms", &opts.GroupTransforms)
		},
		"channel_transforms": func() error {
			return parseTransformList(*channelTransforms, "channel_transforms", &opts.ChannelTransforms)
		},
		"range":           func() error { opts.RangeHours = *rangeHours; return nil },
		"sortchannels":    func() error { opts.SortChannels = splitList(*sortChannels); return nil },
		"xml_sort_type":   func() error { opts.XMLSortType = *xmlSortType; return nil },
		"tvh_start":       func() error { opts.TvhStart = *tvhStart; return nil },
		"tvh_offset":      func() error { opts.TvhOffset = *tvhOffset; return nil },
		"no_tvg_id":       func() error { opts.AllowNoID = *noTvgID; return nil },
		"no_epg":          func() error { opts.NoEPG = *noEPG; return nil },
		"force_epg":       func() error { opts.ForceEPG = *forceEPG; return nil },
		"no_sort":         func() error { opts.NoSort = *noSort; return nil },
		"http_for_images": func() error { opts.HTTPForImages = *httpForImages; return nil },
		"preserve_case":   func() error { opts.PreserveCase = *preserveCase; return nil },
		"outdirectory":    func() error { opts.OutDirectory = *outDirectory; return nil },
		"outfilename":     func() error { opts.OutFilename = *outFilename; return nil },
		"log_enabled":     func() error { opts.LogEnabled = *logEnabled; return nil },
		"log_level":       func() error { opts.LogLevel = *logLevel; return nil },
	}
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		apply, ok := overrides[f.Name]
		if !ok {
			return
		}
		if err := apply(); err != nil && flagErr == nil {
			flagErr = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	if flagErr != nil {
		logger.Error().Err(flagErr).Str("event", "config.flag_invalid").Msg("invalid flag value")
		return 1
	}

	if err := opts.Validate(); err != nil {
		logger.Error().Err(err).Str("event", "config.invalid").Msg("invalid configuration")
		return 1
	}

	output, closeLog, err := logOutput(opts)
	if err != nil {
		logger.Error().Err(err).Str("event", "config.invalid").Msg("cannot open process log")
		return 1
	}
	defer closeLog()

	melog.Configure(melog.Config{Level: opts.LogLevel, Output: output})
	logger = melog.WithComponent("cli")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status, err := jobs.Run(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Str("event", "run.failed").Msg("run failed")
		return 2
	}
	logger.Info().
		Str("event", "cli.done").
		Int("survivors", status.Survivors).
		Int("programmes", status.Programmes).
		Str("duration", status.Duration).
		Msg("all outputs written")
	return 0
}

// logOutput returns the log writer: stdout, optionally teed into process.log
// in the output directory.
func logOutput(opts config.Options) (io.Writer, func(), error) {
	if !opts.LogEnabled {
		return os.Stdout, func() {}, nil
	}
	path := filepath.Join(config.ExpandUser(opts.OutDirectory), "process.log")
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return io.MultiWriter(os.Stdout, f), func() { _ = f.Close() }, nil
}

// splitList turns a comma separated flag value into a string slice. Items may
// be wrapped in single or double quotes; commas inside quotes are preserved.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		items   []string
		current strings.Builder
		quote   rune
	)
	flush := func() {
		item := strings.TrimSpace(current.String())
		item = strings.Trim(item, `'"`)
		if item != "" {
			items = append(items, item)
		}
		current.Reset()
	}
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == ',':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return items
}

// parseTransformList decodes a transform list flag. The value is JSON, either
// wrapped in an object under the flag's own name or a bare array.
func parseTransformList(s, key string, dst *[]rules.Transform) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*dst = nil
		return nil
	}
	var wrapped map[string][]rules.Transform
	if err := json.Unmarshal([]byte(s), &wrapped); err == nil {
		if list, ok := wrapped[key]; ok {
			*dst = list
			return nil
		}
		return fmt.Errorf("missing %q key", key)
	}
	var bare []rules.Transform
	if err := json.Unmarshal([]byte(s), &bare); err != nil {
		return errors.New("value is neither a wrapped object nor a transform array")
	}
	*dst = bare
	return nil
}
