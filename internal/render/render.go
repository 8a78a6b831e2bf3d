// Package render performs literal placeholder substitution on message templates.
package render

import (
	"sort"
	"strings"
)

// Placeholder keys understood by outreach templates.
const (
	KeyName    = "name"
	KeyAddress = "address"
)

// Render replaces every {key} token in tmpl whose key is present in attrs.
// Unknown tokens are left as they are. Substitution happens in a single pass,
// so values containing placeholder tokens are not expanded again.
func Render(tmpl string, attrs map[string]string) string {
	if tmpl == "" || len(attrs) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", attrs[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// NonprofitAttrs builds the attribute set for a resolved recipient.
func NonprofitAttrs(name, address string) map[string]string {
	return map[string]string{
		KeyName:    name,
		KeyAddress: address,
	}
}
