package content

import (
	"strings"
	"time"
)

type Layout string

const (
	LayoutPost Layout = "post"
	LayoutPage Layout = "page"
)

type PostMeta struct {
	Title     string
	Slug      string
	Permalink string
	Date      time.Time

	Categories []string
	Layout     Layout

	HeroImage   string
	Attribution string

	Draft  bool
	Hidden bool
}

type BodyRef struct {
	SourcePath  string
	ContentHash string
}

type Post struct {
	Meta PostMeta
	Body BodyRef
}

func (m *PostMeta) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Slug = strings.TrimSpace(m.Slug)
	m.Permalink = strings.TrimSpace(m.Permalink)
	m.HeroImage = strings.TrimSpace(m.HeroImage)
	m.Attribution = strings.TrimSpace(m.Attribution)

	m.Categories = normalizeStrings(m.Categories)

	if m.Layout == "" {
		m.Layout = LayoutPost
	}
}

func (m *PostMeta) HasCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range m.Categories {
		if c == name {
			return true
		}
	}
	return false
}

func normalizeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.ToLower(item)
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
