// SPDX-License-Identifier: MIT

// Package jobs orchestrates one full editing run: fetch the playlist and
// guide, filter, transform and order the entries, reconcile the guide and
// persist every output file atomically.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bebo-dot-dev/m3u-epg-editor/internal/config"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/epg"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/fetch"
	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/pipeline"
	"github.com/bebo-dot-dev/m3u-epg-editor/internal/playlist"
)

// Status summarizes one completed run.
type Status struct {
	StartedAt     time.Time `json:"started_at"`
	Duration      string    `json:"duration"`
	Parsed        int       `json:"parsed"`
	Survivors     int       `json:"survivors"`
	GuideChannels int       `json:"guide_channels"`
	Programmes    int       `json:"programmes"`
	NoGuideData   int       `json:"no_guide_data"`
}

// getter abstracts the fetch client so runs can be driven from canned
// payloads in tests.
type getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Run performs the complete cycle: fetch playlist → filter/transform/order →
// write playlist outputs → fetch guide → reconcile → write guide outputs.
func Run(ctx context.Context, opts config.Options) (*Status, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cl := fetch.New(opts.HeaderMap(),
		time.Duration(opts.FetchTimeoutSeconds)*time.Second, opts.FetchRetries)
	return runWithClient(ctx, opts, cl)
}

// runWithClient is separated for easier testing.
func runWithClient(ctx context.Context, opts config.Options, cl getter) (*Status, error) {
	logger := melog.WithComponentFromContext(ctx, "jobs")
	started := time.Now()
	logger.Info().Str("event", "run.start").Str("m3uurl", opts.M3UURL).Msg("starting run")

	status := &Status{StartedAt: started}
	outDir := config.ExpandUser(opts.OutDirectory)

	entries, err := loadPlaylist(ctx, opts, cl, outDir)
	if err != nil {
		return nil, err
	}
	status.Parsed = len(entries)

	survivors, err := filterPlaylist(ctx, opts, entries, outDir)
	if err != nil {
		return nil, err
	}
	status.Survivors = len(survivors)

	if len(survivors) == 0 {
		logger.Warn().Str("event", "run.empty").
			Msg("no channels survived filtering, skipping output generation")
		status.Duration = time.Since(started).String()
		return status, nil
	}

	if !opts.NoSort {
		survivors = pipeline.Sort(ctx, survivors, opts.Groups, opts.SortChannels)
	}

	if err := writePlaylistOutputs(opts, survivors, outDir); err != nil {
		return nil, err
	}

	if !opts.NoEPG {
		reconcileGuide(ctx, opts, cl, survivors, outDir, status)
	}

	status.Duration = time.Since(started).String()
	logger.Info().Str("event", "run.complete").
		Int("parsed", status.Parsed).
		Int("survivors", status.Survivors).
		Int("guide_channels", status.GuideChannels).
		Int("programmes", status.Programmes).
		Str("duration", status.Duration).
		Msg("run complete")
	return status, nil
}

// loadPlaylist fetches the source playlist, keeps a verbatim copy next to the
// generated outputs and parses it into entries.
func loadPlaylist(ctx context.Context, opts config.Options, cl getter, outDir string) ([]playlist.Entry, error) {
	raw, err := cl.Get(ctx, opts.M3UURL)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	if err := writeBytesAtomic(filepath.Join(outDir, "original.m3u8"), raw); err != nil {
		return nil, err
	}
	entries, err := playlist.Parse(ctx, bytes.NewReader(raw), opts.AllowNoID)
	if err != nil {
		return nil, fmt.Errorf("parse playlist: %w", err)
	}
	return entries, nil
}

// filterPlaylist runs the filter pipeline and persists the pre-filter audit
// listing of every parsed entry.
func filterPlaylist(ctx context.Context, opts config.Options, entries []playlist.Entry, outDir string) ([]playlist.Entry, error) {
	rs := pipeline.Rules{
		Groups:            opts.Groups,
		GroupMode:         opts.GroupMode,
		DiscardChannels:   opts.DiscardChannels,
		IncludeChannels:   opts.IncludeChannels,
		DiscardURLs:       opts.DiscardURLs,
		IncludeURLs:       opts.IncludeURLs,
		IDTransforms:      opts.IDTransforms,
		GroupTransforms:   opts.GroupTransforms,
		ChannelTransforms: opts.ChannelTransforms,
		SortChannels:      opts.SortChannels,
		NoSort:            opts.NoSort,
	}

	var audit bytes.Buffer
	survivors, err := pipeline.Filter(ctx, entries, rs, &audit)
	if err != nil {
		return nil, fmt.Errorf("filter playlist: %w", err)
	}
	if err := writeBytesAtomic(filepath.Join(outDir, "original.channels.txt"), audit.Bytes()); err != nil {
		return nil, err
	}
	return survivors, nil
}

// writePlaylistOutputs persists the edited playlist and the surviving channel
// listing.
func writePlaylistOutputs(opts config.Options, survivors []playlist.Entry, outDir string) error {
	wopts := playlist.WriteOptions{
		TvhStart:       opts.TvhStart,
		TvhOffset:      opts.TvhOffset,
		PreserveCase:   opts.PreserveCase,
		HTTPOnlyImages: opts.HTTPForImages,
	}
	m3uPath := filepath.Join(outDir, opts.OutFilename+".m3u8")
	if err := writeFileAtomic(m3uPath, func(w io.Writer) error {
		return playlist.WriteM3U(w, survivors, wopts)
	}); err != nil {
		return err
	}
	listPath := filepath.Join(outDir, opts.OutFilename+".channels.txt")
	return writeFileAtomic(listPath, func(w io.Writer) error {
		return playlist.WriteChannelListing(w, survivors)
	})
}

// reconcileGuide fetches and reconciles the guide against the surviving
// entries. Guide-side failures never undo the playlist outputs already
// written: they are logged and the guide outputs are skipped.
func reconcileGuide(ctx context.Context, opts config.Options, cl getter, survivors []playlist.Entry, outDir string, status *Status) {
	logger := melog.WithComponentFromContext(ctx, "jobs")

	raw, err := cl.Get(ctx, opts.EPGURL)
	if err != nil {
		logger.Error().Err(err).Str("event", "guide.fetch.failed").
			Msg("guide fetch failed, skipping guide outputs")
		return
	}
	if err := writeBytesAtomic(filepath.Join(outDir, "original.xml"), raw); err != nil {
		logger.Error().Err(err).Str("event", "guide.write.failed").Msg("saving source guide failed")
		return
	}

	source, err := epg.Parse(bytes.NewReader(raw))
	if err != nil {
		logger.Error().Err(err).Str("event", "guide.parse.failed").
			Msg("guide is structurally unusable, skipping guide outputs")
		return
	}

	res := epg.Reconcile(ctx, source, survivors, epg.Options{
		RangeHours:        opts.RangeHours,
		XMLSortType:       opts.XMLSortType,
		PreserveCase:      opts.PreserveCase,
		HTTPOnlyImages:    opts.HTTPForImages,
		AllowNoID:         opts.AllowNoID,
		ForceSynthetic:    opts.ForceEPG,
		ChannelTransforms: opts.ChannelTransforms,
	})
	status.GuideChannels = len(res.TV.Channels)
	status.Programmes = len(res.TV.Programmes)
	status.NoGuideData = len(res.NoGuideData)

	xmlPath := filepath.Join(outDir, opts.OutFilename+".xml")
	if err := writeFileAtomic(xmlPath, func(w io.Writer) error {
		return epg.Write(w, res.TV)
	}); err != nil {
		logger.Error().Err(err).Str("event", "guide.write.failed").Msg("writing guide failed")
		return
	}

	if len(res.NoGuideData) > 0 {
		noEPGPath := filepath.Join(outDir, "no_epg_channels.txt")
		if err := writeFileAtomic(noEPGPath, func(w io.Writer) error {
			return playlist.WriteIdentifierListing(w, res.NoGuideData)
		}); err != nil {
			logger.Error().Err(err).Str("event", "guide.write.failed").
				Msg("writing no-guide listing failed")
		}
	}
}
