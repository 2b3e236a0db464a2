// SPDX-License-Identifier: MIT

// Package rules implements the match and transform primitives the filter
// pipeline is built from.
package rules

import (
	"regexp"
	"sync"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
)

// regexCache avoids recompiling the same rule pattern for every candidate.
// Patterns come from configuration, so the cache stays small.
var regexCache sync.Map // string -> *regexp.Regexp (nil entry = uncompilable)

func compileRule(pattern string) *regexp.Regexp {
	if cached, ok := regexCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		logger := melog.WithComponent("rules")
		logger.Debug().
			Str("event", "rules.bad_pattern").
			Str("pattern", pattern).
			Err(err).
			Msg("rule is not a valid regular expression, exact matching only")
		re = nil
	}
	regexCache.Store(pattern, re)
	return re
}

// Matches reports whether candidate belongs to the configured rule list.
// The check is two-stage: exact (case-sensitive) membership first, then each
// rule treated as a case-insensitive regular expression. An empty rule list
// never matches anything.
func Matches(candidate string, ruleList []string) bool {
	if len(ruleList) == 0 {
		return false
	}
	for _, rule := range ruleList {
		if candidate == rule {
			return true
		}
	}
	for _, rule := range ruleList {
		if re := compileRule(rule); re != nil && re.MatchString(candidate) {
			return true
		}
	}
	return false
}
