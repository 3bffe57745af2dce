// Package util provides small, stateless helpers shared across the
// application. Functions here have no dependencies on other internal
// packages.
package util

import "strings"

// Slugify derives the URL-safe primary key for a project from its name:
// lowercase, every non-alphanumeric character collapsed to '-', and leading
// or trailing '-' trimmed. The result contains only [a-z0-9-] and Slugify
// is idempotent, so a slug fed back through comes out unchanged.
func Slugify(name string) string {
	lowered := strings.ToLower(name)
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return '-'
	}, lowered)
	return strings.Trim(mapped, "-")
}

// RepoName extracts the project name from a git repository URL: trailing
// slashes and the ".git" suffix are trimmed, then the last path segment is
// taken. "https://host/x/y.git" and "https://host/x/y/" both yield "y".
func RepoName(url string) string {
	trimmed := strings.TrimRight(url, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" {
		return "project"
	}
	return trimmed
}
