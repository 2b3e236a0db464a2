// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel validation errors callers can branch on.
var (
	ErrMissingM3UURL       = errors.New("m3uurl is mandatory")
	ErrMissingEPGURL       = errors.New("epgurl is mandatory when epg processing is enabled")
	ErrMissingGroups       = errors.New("groups is mandatory")
	ErrMissingOutDirectory = errors.New("outdirectory is mandatory")
	ErrMissingOutFilename  = errors.New("outfilename is mandatory")
	ErrForceEPGWithoutNoID = errors.New("force_epg requires no_tvg_id")
)

// Validate rejects caller errors before the pipeline runs. It returns every
// problem found, joined.
func (o Options) Validate() error {
	var errs []error

	if o.M3UURL == "" {
		errs = append(errs, ErrMissingM3UURL)
	}
	if !o.NoEPG && o.EPGURL == "" {
		errs = append(errs, ErrMissingEPGURL)
	}
	if len(o.Groups) == 0 {
		errs = append(errs, ErrMissingGroups)
	}
	if o.GroupMode != GroupModeKeep && o.GroupMode != GroupModeDiscard {
		errs = append(errs, fmt.Errorf("groupmode must be %q or %q, got %q", GroupModeKeep, GroupModeDiscard, o.GroupMode))
	}
	if o.XMLSortType != XMLSortNone && o.XMLSortType != XMLSortAlpha && o.XMLSortType != XMLSortM3U {
		errs = append(errs, fmt.Errorf("xml_sort_type must be %q, %q or %q, got %q", XMLSortNone, XMLSortAlpha, XMLSortM3U, o.XMLSortType))
	}
	if o.RangeHours < 0 {
		errs = append(errs, fmt.Errorf("range must be >= 0, got %d", o.RangeHours))
	}
	if o.TvhStart < 0 {
		errs = append(errs, fmt.Errorf("tvh_start must be >= 0, got %d", o.TvhStart))
	}
	if o.TvhOffset < 0 {
		errs = append(errs, fmt.Errorf("tvh_offset must be >= 0, got %d", o.TvhOffset))
	}
	if o.ForceEPG && !o.AllowNoID {
		errs = append(errs, ErrForceEPGWithoutNoID)
	}

	if o.OutDirectory == "" {
		errs = append(errs, ErrMissingOutDirectory)
	} else {
		dir := ExpandUser(o.OutDirectory)
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("outdirectory %s does not exist", dir))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("outdirectory %s is not a directory", dir))
		}
	}
	if o.OutFilename == "" {
		errs = append(errs, ErrMissingOutFilename)
	}

	return errors.Join(errs...)
}
