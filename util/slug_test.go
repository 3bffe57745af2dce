package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase_passthrough", "myapp", "myapp"},
		{"uppercase", "MyApp", "myapp"},
		{"spaces", "My Cool App", "my-cool-app"},
		{"special_chars", "app_v2.0!", "app-v2-0"},
		{"leading_trailing", "--app--", "app"},
		{"digits_kept", "app123", "app123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"My App", "WEIRD__name", "already-a-slug", "a.b.c"}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "slugify must be idempotent for %q", in)
	}
}

func TestSlugifyCharset(t *testing.T) {
	out := Slugify("Ärger & Freude (v2)!")
	for _, r := range out {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
		assert.True(t, valid, "unexpected rune %q in slug %q", r, out)
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https_with_git", "https://github.com/acme/widgets.git", "widgets"},
		{"https_no_suffix", "https://github.com/acme/widgets", "widgets"},
		{"trailing_slash", "https://github.com/acme/widgets/", "widgets"},
		{"ssh", "git@github.com:acme/widgets.git", "widgets"},
		{"bare_name", "widgets", "widgets"},
		{"empty", "", "project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepoName(tt.url))
		})
	}
}
