// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load hydrates options from the configuration file at path, on top of the
// defaults. The format follows the file extension: .yaml/.yml is YAML,
// anything else is JSON.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator-supplied path
	if err != nil {
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}
	return opts, nil
}

// ExpandUser resolves a leading ~ in a filesystem path.
func ExpandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
