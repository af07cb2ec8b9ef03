package serve

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gambit/internal/catalog"
	"gambit/internal/domain/config"
	"gambit/internal/domain/content"
	"gambit/internal/index"
	"gambit/internal/ingest"
	"gambit/internal/render"
)

type Server struct {
	cfg config.Config

	indexPath string
	st        *index.Store
	md        *render.MarkdownRenderer
	tpl       render.Renderer

	mu sync.RWMutex
	ix *catalog.Index

	sseMu     sync.Mutex
	sseConns  map[chan string]struct{}
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, indexPath string) (*Server, error) {
	md := render.NewMarkdownRenderer()
	tpl, err := render.NewTemplateRenderer(cfg.Build.ThemeDir, cfg.Site.Theme)
	if err != nil {
		return nil, fmt.Errorf("serve: failed to create template renderer: %w", err)
	}
	st, err := index.Open(index.OpenOptions{Path: indexPath})
	if err != nil {
		return nil, fmt.Errorf("serve: failed to open index store: %w", err)
	}

	return &Server{
		cfg:       cfg,
		indexPath: indexPath,
		st:        st,
		md:        md,
		tpl:       tpl,
		sseConns:  make(map[chan string]struct{}),
	}, nil
}

func (s *Server) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.st != nil {
		return s.st.Close()
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.rebuild(); err != nil {
		return err
	}

	if err := s.startWatch(ctx); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/archives", s.handleArchives)
	r.Get("/archives/", s.handleArchives)
	r.Get("/categories", s.handleCategoriesRoot)
	r.Get("/categories/", s.handleCategoriesRoot)
	r.Get("/categories/{name}", s.handleCategory)
	r.Get("/categories/{name}/", s.handleCategory)
	r.Get("/dev/events", s.handleSSE)

	// 正式 permalink 都带尾斜杠，但本地输入经常不带，两种都接
	r.Get("/{year:[0-9]{4}}/{month:[0-9]{2}}/{day:[0-9]{2}}/{slug}", s.handlePost)
	r.Get("/{year:[0-9]{4}}/{month:[0-9]{2}}/{day:[0-9]{2}}/{slug}/", s.handlePost)
	r.Get("/{slug}", s.handlePage)
	r.Get("/{slug}/", s.handlePage)

	staticDir := filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme, "static")
	fileServer := http.FileServer(http.Dir(staticDir))
	r.Handle("/css/*", fileServer)
	r.Handle("/js/*", fileServer)
	r.Handle("/images/*", fileServer)
	r.Handle("/favicon.ico", fileServer)

	r.NotFound(s.handleNotFound)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	log.Printf("[serve] listening on %s", addr)
	return srv.ListenAndServe()
}

// rebuild 重新扫源、建 catalog、刷 bbolt。
// 冲突之类的致命错误不应该杀掉 dev server，保留上一份可用的索引。
func (s *Server) rebuild() error {
	sourceDir := s.cfg.Build.SourceDir
	log.Printf("[serve] ingest from %s ...", sourceDir)
	posts, warns, err := ingest.Ingest(sourceDir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	for _, w := range warns {
		log.Printf("[warn] %s: %s", w.Path, w.Msg)
	}

	ix, catWarns, err := catalog.Build(posts)
	if err != nil {
		s.mu.RLock()
		hasOld := s.ix != nil
		s.mu.RUnlock()
		if hasOld {
			log.Printf("[error] catalog build: %v (keeping previous index)", err)
			return nil
		}
		return fmt.Errorf("catalog build: %w", err)
	}
	for _, w := range catWarns {
		log.Printf("[warn] %s: %s", w.SourcePath, w.Msg)
	}
	log.Printf("[serve] indexed %d posts", ix.Len())

	if err := s.st.Rebuild(ix, index.RebuildOptions{IncludeDrafts: true}); err != nil {
		return fmt.Errorf("index store rebuild: %w", err)
	}

	s.mu.Lock()
	s.ix = ix
	s.mu.Unlock()

	log.Printf("[serve] rebuild complete")
	s.broadcastSSE("reload")
	return nil
}

func (s *Server) catalogSnapshot() *catalog.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		go s.watchLoop(ctx)

		err = filepath.Walk(s.cfg.Build.SourceDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.Add(path)
			}
			return nil
		})
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	log.Printf("[serve] watching for file changes ...")
	debounce := newDebouncer(200 * time.Millisecond)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Trigger()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[warn] watcher error: %v", err)
		case <-debounce.C():
			if err := s.rebuild(); err != nil {
				log.Printf("[serve] rebuild error: %v", err)
			}
		}
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		close(ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	metas, err := s.st.List(index.ListOptions{
		Page:          1,
		Size:          s.cfg.Site.Recent,
		IncludeDrafts: true,
	})
	if err != nil {
		http.Error(w, "home query error", http.StatusInternalServerError)
		return
	}

	ix := s.catalogSnapshot()
	total := 0
	if ix != nil {
		total = ix.Len()
	}

	page := render.HomePage{
		Site:      s.cfg.Site,
		Items:     metas,
		Total:     total,
		Generated: time.Now(),
		PageTitle: "Home",
	}
	htmlBytes, err := s.tpl.RenderHome(r.Context(), page)
	if err != nil {
		log.Printf("render home error: %v", err)
		http.Error(w, "render home error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

// 文章详情页：/YYYY/MM/DD/slug 或带尾斜杠
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	permalink := fmt.Sprintf("/%s/%s/%s/%s/",
		chi.URLParam(r, "year"),
		chi.URLParam(r, "month"),
		chi.URLParam(r, "day"),
		strings.TrimSuffix(chi.URLParam(r, "slug"), "/"),
	)
	s.servePost(w, r, permalink)
}

// 独立页面：/about /chess 这类 layout: page 的 permalink
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSuffix(chi.URLParam(r, "slug"), "/")
	if slug == "" {
		s.handleNotFound(w, r)
		return
	}
	s.servePost(w, r, "/"+slug+"/")
}

func (s *Server) servePost(w http.ResponseWriter, r *http.Request, permalink string) {
	ix := s.catalogSnapshot()
	if ix == nil {
		s.handleNotFound(w, r)
		return
	}
	p, ok := ix.Lookup(permalink)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	src, err := os.ReadFile(p.Body.SourcePath)
	if err != nil {
		log.Printf("read source error: %v", err)
		http.Error(w, "read source error", http.StatusInternalServerError)
		return
	}
	_, body, _, fmErr := ingest.ParseFrontMatter(src)
	if fmErr != nil {
		body = src
	}

	mdResult, err := s.md.Render(body)
	if err != nil {
		log.Printf("markdown render error: %v", err)
		http.Error(w, "markdown render error", http.StatusInternalServerError)
		return
	}

	pp := render.PostPage{
		Site:      s.cfg.Site,
		Meta:      p.Meta,
		HTML:      template.HTML(mdResult.HTML),
		TOC:       mdResult.Headings,
		IsDraft:   p.Meta.Draft,
		PageTitle: p.Meta.Title,
	}

	htmlBytes, err := s.tpl.RenderPost(r.Context(), pp)
	if err != nil {
		log.Printf("render post error: %v", err)
		http.Error(w, "render post error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

// 分类页：/categories/<name>
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		s.handleNotFound(w, r)
		return
	}

	items, err := s.st.ListByCategory(name, index.ListOptions{
		Page:          1,
		Size:          1000,
		IncludeDrafts: true,
	})
	if err != nil || len(items) == 0 {
		s.handleNotFound(w, r)
		return
	}

	lp := render.ListPage{
		Site:      s.cfg.Site,
		Title:     fmt.Sprintf("Category: %s", name),
		Items:     items,
		Total:     len(items),
		Category:  name,
		Generated: time.Now(),
	}
	htmlBytes, err := s.tpl.RenderList(r.Context(), lp)
	if err != nil {
		log.Printf("render category error: %v", err)
		http.Error(w, "render category error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

func (s *Server) handleCategoriesRoot(w http.ResponseWriter, r *http.Request) {
	stats, err := s.st.CategoryCounts(true)
	if err != nil {
		log.Printf("categories query error: %v", err)
		http.Error(w, "categories query error", http.StatusInternalServerError)
		return
	}

	viewStats := make([]render.CategoryStat, len(stats))
	for i, st := range stats {
		viewStats[i] = render.CategoryStat{Name: st.Name, Count: st.Count}
	}

	page := render.CategoriesPage{
		Site:       s.cfg.Site,
		Categories: viewStats,
		Total:      len(viewStats),
		PageTitle:  "Categories",
	}
	htmlBytes, err := s.tpl.RenderCategoriesPage(r.Context(), page)
	if err != nil {
		log.Printf("render categories error: %v", err)
		http.Error(w, "render categories error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

func (s *Server) handleArchives(w http.ResponseWriter, r *http.Request) {
	ix := s.catalogSnapshot()
	if ix == nil {
		s.handleNotFound(w, r)
		return
	}

	groupsMap := make(map[int][]content.PostMeta)
	var years []int
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
		Site:      s.cfg.Site,
		Groups:    groups,
		Total:     ix.Len(),
		PageTitle: "Archives",
	}
	htmlBytes, err := s.tpl.RenderArchives(r.Context(), page)
	if err != nil {
		log.Printf("render archives error: %v", err)
		http.Error(w, "render archives error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	page := render.NotFoundPage{
		Site: s.cfg.Site,
		Path: r.URL.Path,
	}
	htmlBytes, err := s.tpl.RenderNotFound(r.Context(), page)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	writeHTML(w, htmlBytes)
}

func writeHTML(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}
