// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"net/url"
	"strings"
)

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Hostname returns the host part of rawURL, or "" when it does not parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// CountDomains returns the number of distinct hostnames among urls.
func CountDomains(urls []string) int {
	seen := make(map[string]struct{})
	for _, u := range urls {
		if h := Hostname(u); h != "" {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
