package render

import (
	"html/template"
	"time"

	"gambit/internal/domain/config"
	"gambit/internal/domain/content"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

type PostPage struct {
	Site config.SiteConfig
	Meta content.PostMeta
	HTML template.HTML
	TOC  []Heading

	IsDraft   bool
	PageTitle string
}

type ListPage struct {
	Site      config.SiteConfig
	Title     string
	SubTitle  string
	Items     []content.PostMeta
	Total     int
	Category  string
	Generated time.Time
}

type HomePage struct {
	Site      config.SiteConfig
	Items     []content.PostMeta
	Total     int
	Generated time.Time
	PageTitle string
}

type NotFoundPage struct {
	Site config.SiteConfig
	Path string
}

type ArchivesGroup struct {
	Year  int
	Posts []content.PostMeta
	Count int
}

type ArchivesPage struct {
	Site      config.SiteConfig
	Groups    []ArchivesGroup
	Total     int
	PageTitle string
}

type CategoryStat struct {
	Name  string
	Count int
}

type CategoriesPage struct {
	Site       config.SiteConfig
	Categories []CategoryStat
	Total      int
	PageTitle  string
}
