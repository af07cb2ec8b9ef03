package feed

import (
	"encoding/xml"
	"time"

	"gambit/internal/catalog"
	"gambit/internal/domain/config"
	"gambit/internal/domain/site"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap covers the home page, every post and every category listing.
func Sitemap(siteCfg config.SiteConfig, ix *catalog.Index) ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	set.URLs = append(set.URLs, sitemapURL{Loc: absURL(siteCfg.SiteURL, "/")})

	for _, p := range ix.All() {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     absURL(siteCfg.SiteURL, p.Meta.Permalink),
			LastMod: p.Meta.Date.Format(time.DateOnly),
		})
	}
	for _, c := range ix.Categories() {
		set.URLs = append(set.URLs, sitemapURL{
			Loc: absURL(siteCfg.SiteURL, site.CategoryPermalink(c)),
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
