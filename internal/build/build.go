package build

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"gambit/internal/catalog"
	"gambit/internal/domain/config"
	"gambit/internal/domain/content"
	"gambit/internal/domain/site"
	"gambit/internal/feed"
	"gambit/internal/index"
	"gambit/internal/ingest"
	"gambit/internal/render"
)

type Builder struct {
	Cfg       config.Config
	IndexPath string
}

type Result struct {
	Posts       int
	Warnings    []ingest.Warning
	Fingerprint string
}

func (b *Builder) Run(ctx context.Context) (*Result, error) {
	posts, warns, err := ingest.Ingest(b.Cfg.Build.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}

	if !b.Cfg.Build.IncludeDrafts {
		kept := posts[:0]
		for _, p := range posts {
			if p.Meta.Draft {
				continue
			}
			kept = append(kept, p)
		}
		posts = kept
	}

	ix, catWarns, err := catalog.Build(posts)
	if err != nil {
		return nil, fmt.Errorf("index build failed: %w", err)
	}
	for _, w := range catWarns {
		warns = append(warns, ingest.Warning{Path: w.SourcePath, Kind: w.Kind, Msg: w.Msg})
	}

	st, err := index.Open(index.OpenOptions{Path: b.IndexPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	if err := st.Rebuild(ix, index.RebuildOptions{
		IncludeDrafts: b.Cfg.Build.IncludeDrafts,
	}); err != nil {
		return nil, fmt.Errorf("failed to rebuild index store: %w", err)
	}

	md := render.NewMarkdownRenderer()
	tpl, err := render.NewTemplateRenderer(b.Cfg.Build.ThemeDir, b.Cfg.Site.Theme)
	if err != nil {
		return nil, fmt.Errorf("load theme(%s): %w", b.Cfg.Build.ThemeDir, err)
	}

	outDir := b.Cfg.Build.PublicDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir public: %w", err)
	}

	if err := b.buildAll(ctx, ix, md, tpl, outDir); err != nil {
		return nil, err
	}

	return &Result{
		Posts:       ix.Len(),
		Warnings:    warns,
		Fingerprint: Fingerprint(b.Cfg, ix),
	}, nil
}

func (b *Builder) buildAll(
	ctx context.Context,
	ix *catalog.Index,
	md *render.MarkdownRenderer,
	tpl render.Renderer,
	outDir string,
) error {
	bodies, err := b.buildPosts(ctx, ix, md, tpl, outDir)
	if err != nil {
		return fmt.Errorf("build posts: %w", err)
	}

	if err := b.buildHome(ctx, ix, tpl, outDir); err != nil {
		return fmt.Errorf("build home: %w", err)
	}

	if err := b.buildCategories(ctx, ix, tpl, outDir); err != nil {
		return fmt.Errorf("build categories: %w", err)
	}

	if err := b.buildArchives(ctx, ix, tpl, outDir); err != nil {
		return fmt.Errorf("build archives: %w", err)
	}

	if err := b.buildNotFound(ctx, tpl, outDir); err != nil {
		return fmt.Errorf("build 404: %w", err)
	}

	if b.Cfg.Feed.Enabled {
		if err := b.buildFeeds(ix, bodies, outDir); err != nil {
			return fmt.Errorf("build feeds: %w", err)
		}
	}

	if err := feedSitemap(b.Cfg.Site, ix, outDir); err != nil {
		return fmt.Errorf("build sitemap: %w", err)
	}

	if err := b.copyStaticAssets(outDir); err != nil {
		return fmt.Errorf("copy static assets: %w", err)
	}
	return nil
}

// buildPosts 并发渲染每篇文章，同时把渲好的 HTML 留给 feed 复用
func (b *Builder) buildPosts(
	ctx context.Context,
	ix *catalog.Index,
	md *render.MarkdownRenderer,
	tpl render.Renderer,
	outDir string,
) (map[string]feed.Entry, error) {
	all := ix.All()
	entries := make([]feed.Entry, len(all))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, p := range all {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			htmlBody, err := renderOnePost(ctx, b.Cfg.Site, md, tpl, p, outDir)
			if err != nil {
				return err
			}
			entries[i] = feed.Entry{Permalink: p.Meta.Permalink, HTML: htmlBody}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bodies := make(map[string]feed.Entry, len(entries))
	for _, e := range entries {
		bodies[e.Permalink] = e
	}
	return bodies, nil
}

func renderOnePost(
	ctx context.Context,
	siteCfg config.SiteConfig,
	md *render.MarkdownRenderer,
	tpl render.Renderer,
	p content.Post,
	outDir string,
) ([]byte, error) {
	src, err := os.ReadFile(p.Body.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read post source(%s): %w", p.Body.SourcePath, err)
	}

	// 去掉 front matter，只渲染正文
	_, body, _, fmErr := ingest.ParseFrontMatter(src)
	if fmErr != nil {
		body = src
	}

	mdResult, err := md.Render(body)
	if err != nil {
		return nil, fmt.Errorf("markdown render(%s): %w", p.Meta.Permalink, err)
	}

	pp := render.PostPage{
		Site:      siteCfg,
		Meta:      p.Meta,
		HTML:      template.HTML(mdResult.HTML),
		TOC:       mdResult.Headings,
		IsDraft:   p.Meta.Draft,
		PageTitle: p.Meta.Title,
	}

	htmlBytes, err := tpl.RenderPost(ctx, pp)
	if err != nil {
		return nil, fmt.Errorf("render post(%s): %w", p.Meta.Permalink, err)
	}

	if err := writeFile(outDir, site.OutPath(p.Meta.Permalink), htmlBytes); err != nil {
		return nil, err
	}
	return mdResult.HTML, nil
}

func (b *Builder) buildHome(
	ctx context.Context,
	ix *catalog.Index,
	tpl render.Renderer,
	outDir string,
) error {
	var items []content.PostMeta
	for p := range ix.Recent(b.Cfg.Site.Recent) {
		items = append(items, p.Meta)
	}

	page := render.HomePage{
		Site:      b.Cfg.Site,
		Items:     items,
		Total:     ix.Len(),
		Generated: b.Cfg.Build.Now,
		PageTitle: "Home",
	}
	htmlBytes, err := tpl.RenderHome(ctx, page)
	if err != nil {
		return err
	}
	return writeFile(outDir, "index.html", htmlBytes)
}

func (b *Builder) buildCategories(
	ctx context.Context,
	ix *catalog.Index,
	tpl render.Renderer,
	outDir string,
) error {
	stats := make([]render.CategoryStat, 0, len(ix.Categories()))

	for _, cat := range ix.Categories() {
		posts := ix.ByCategory(cat)
		items := make([]content.PostMeta, len(posts))
		for i, p := range posts {
			items[i] = p.Meta
		}
		stats = append(stats, render.CategoryStat{Name: cat, Count: len(items)})

		lp := render.ListPage{
			Site:      b.Cfg.Site,
			Title:     fmt.Sprintf("Category: %s", cat),
			Items:     items,
			Total:     len(items),
			Category:  cat,
			Generated: b.Cfg.Build.Now,
		}
		htmlBytes, err := tpl.RenderList(ctx, lp)
		if err != nil {
			return fmt.Errorf("render category(%s): %w", cat, err)
		}
		outPath := filepath.Join("categories", site.PathSegment(cat), "index.html")
		if err := writeFile(outDir, outPath, htmlBytes); err != nil {
			return err
		}
	}

	page := render.CategoriesPage{
		Site:       b.Cfg.Site,
		Categories: stats,
		Total:      len(stats),
		PageTitle:  "Categories",
	}
	htmlBytes, err := tpl.RenderCategoriesPage(ctx, page)
	if err != nil {
		return err
	}
	return writeFile(outDir, filepath.Join("categories", "index.html"), htmlBytes)
}

func (b *Builder) buildArchives(
	ctx context.Context,
	ix *catalog.Index,
	tpl render.Renderer,
	outDir string,
) error {
	groupsMap := make(map[int][]content.PostMeta)
	var years []int
	// ix.All 已经是降序，年份组内顺序跟着就对
	for _, p := range ix.All() {
		y := p.Meta.Date.Year()
		if _, ok := groupsMap[y]; !ok {
			years = append(years, y)
		}
		groupsMap[y] = append(groupsMap[y], p.Meta)
	}

	groups := make([]render.ArchivesGroup, 0, len(years))
	for _, y := range years {
		groups = append(groups, render.ArchivesGroup{
			Year:  y,
			Posts: groupsMap[y],
			Count: len(groupsMap[y]),
		})
	}

	page := render.ArchivesPage{
		Site:      b.Cfg.Site,
		Groups:    groups,
		Total:     ix.Len(),
		PageTitle: "Archives",
	}
	htmlBytes, err := tpl.RenderArchives(ctx, page)
	if err != nil {
		return err
	}
	return writeFile(outDir, filepath.Join("archives", "index.html"), htmlBytes)
}

func (b *Builder) buildNotFound(
	ctx context.Context,
	tpl render.Renderer,
	outDir string,
) error {
	page := render.NotFoundPage{
		Site: b.Cfg.Site,
		Path: "",
	}
	htmlBytes, err := tpl.RenderNotFound(ctx, page)
	if err != nil {
		return err
	}
	return writeFile(outDir, "404.html", htmlBytes)
}

func (b *Builder) buildFeeds(ix *catalog.Index, bodies map[string]feed.Entry, outDir string) error {
	f := feed.Build(b.Cfg.Site, ix, b.Cfg.Feed.Size, bodies)

	rss, err := feed.ToRSS(f)
	if err != nil {
		return err
	}
	if err := writeFile(outDir, "feed.xml", []byte(rss)); err != nil {
		return err
	}

	atom, err := feed.ToAtom(f)
	if err != nil {
		return err
	}
	return writeFile(outDir, "atom.xml", []byte(atom))
}

func feedSitemap(siteCfg config.SiteConfig, ix *catalog.Index, outDir string) error {
	data, err := feed.Sitemap(siteCfg, ix)
	if err != nil {
		return err
	}
	return writeFile(outDir, "sitemap.xml", data)
}

func (b *Builder) copyStaticAssets(outDir string) error {
	src := filepath.Join(b.Cfg.Build.ThemeDir, b.Cfg.Site.Theme, "static")
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, rel)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}

		in, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, in, 0o644)
	})
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}
