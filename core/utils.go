package core

import "strings"

// CleanString trims surrounding whitespace off an identifier.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}

// CleanList splits a comma separated setting into lowercase items, dropping blank ones.
func CleanList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.ToLower(CleanString(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}
