// Package feed renders RSS/Atom feeds and the sitemap from the built index.
package feed

import (
	"strings"

	"github.com/gorilla/feeds"
	"github.com/microcosm-cc/bluemonday"

	"gambit/internal/catalog"
	"gambit/internal/domain/config"
)

const summaryLimit = 280

var stripTags = bluemonday.StrictPolicy()

type Entry struct {
	Permalink string
	HTML      []byte
}

// Build 用 Recent(n) 的前缀生成 feed；正文 HTML 剥掉标签截成纯文本摘要。
func Build(site config.SiteConfig, ix *catalog.Index, n int, bodies map[string]Entry) *feeds.Feed {
	f := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: site.SiteURL},
		Description: site.Description,
		Author:      &feeds.Author{Name: site.Author},
	}

	for p := range ix.Recent(n) {
		m := p.Meta
		item := &feeds.Item{
			Title:   m.Title,
			Link:    &feeds.Link{Href: absURL(site.SiteURL, m.Permalink)},
			Id:      absURL(site.SiteURL, m.Permalink),
			Created: m.Date,
		}
		if e, ok := bodies[m.Permalink]; ok {
			item.Description = Summarize(e.HTML)
		}
		f.Items = append(f.Items, item)
		if f.Created.IsZero() || m.Date.After(f.Created) {
			f.Created = m.Date
		}
	}
	return f
}

func ToRSS(f *feeds.Feed) (string, error) {
	return f.ToRss()
}

func ToAtom(f *feeds.Feed) (string, error) {
	return f.ToAtom()
}

// Summarize strips markup and truncates on a rune boundary.
func Summarize(html []byte) string {
	text := stripTags.Sanitize(string(html))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= summaryLimit {
		return text
	}
	return strings.TrimSpace(string(runes[:summaryLimit])) + "…"
}

func absURL(base, permalink string) string {
	return strings.TrimSuffix(base, "/") + permalink
}
