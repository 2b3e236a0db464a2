// SPDX-License-Identifier: MIT

package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transform is one ordered (source key -> replacement) rewrite rule.
//
// On the wire a transform list is an array of single-pair objects, e.g.
// [{"UK: BBC One": "bbc1.uk"}, {"UK: ": ""}]. Order is significant, so the
// list cannot be a plain map.
type Transform struct {
	From string
	To   string
}

// UnmarshalJSON decodes the single-pair object form.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var pair map[string]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 1 {
		return fmt.Errorf("transform rule must contain exactly one key/value pair, got %d", len(pair))
	}
	for k, v := range pair {
		t.From, t.To = k, v
	}
	return nil
}

// MarshalJSON encodes back to the single-pair object form.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{t.From: t.To})
}

// UnmarshalYAML decodes the single-pair mapping form.
func (t *Transform) UnmarshalYAML(node *yaml.Node) error {
	var pair map[string]string
	if err := node.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 1 {
		return fmt.Errorf("transform rule must contain exactly one key/value pair, got %d", len(pair))
	}
	for k, v := range pair {
		t.From, t.To = k, v
	}
	return nil
}

// Apply rewrites value through the rule list in order. Per rule: a literal
// substring occurrence of the source key is replaced first; otherwise the
// source key is attempted as a regular expression substitution. Rules are
// cumulative, each rule sees the previous rule's output.
func Apply(value string, transforms []Transform) string {
	for _, tr := range transforms {
		if strings.Contains(value, tr.From) {
			value = strings.ReplaceAll(value, tr.From, tr.To)
			continue
		}
		if re := compileSub(tr.From); re != nil {
			value = re.ReplaceAllString(value, tr.To)
		}
	}
	return value
}

// ApplyExact rewrites value through the rule list in order, replacing the
// whole value whenever compare equals a rule's source key. Used for
// identifier transforms, where compare is the entry's display name.
func ApplyExact(value, compare string, transforms []Transform) string {
	for _, tr := range transforms {
		if compare == tr.From {
			value = tr.To
		}
	}
	return value
}

// compileSub compiles a substitution pattern, case-sensitively. Uncompilable
// patterns were already handled by the substring stage or match nothing.
func compileSub(pattern string) *regexp.Regexp {
	key := "sub\x00" + pattern
	if cached, ok := regexCache.Load(key); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	regexCache.Store(key, re)
	return re
}
