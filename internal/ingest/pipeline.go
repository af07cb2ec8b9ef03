package ingest

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"gambit/internal/domain/content"
	domainerr "gambit/internal/domain/errors"
)

type Warning struct {
	Path string
	Kind domainerr.Kind
	Msg  string
}

type Result struct {
	Post  content.Post
	Warns []Warning
	Skip  bool
	Err   error
}

// Ingest 并发读取解析，但结果按发现顺序重组：
// 下游的稳定排序依赖输入顺序，不能让 worker 的完成顺序打乱它。
func Ingest(sourceDir string) ([]content.Post, []Warning, error) {
	files, err := DiscoverSource(sourceDir)
	if err != nil {
		return nil, nil, err
	}

	type job struct {
		idx int
		sf  SourceFile
	}

	workers := runtime.GOMAXPROCS(0)
	jobs := make(chan job)
	results := make([]Result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = parseOne(j.sf)
			}
		}()
	}

	for i, f := range files {
		jobs <- job{idx: i, sf: f}
	}
	close(jobs)
	wg.Wait()

	var out []content.Post
	var warns []Warning
	for _, r := range results {
		if r.Err != nil {
			return nil, nil, r.Err
		}
		if len(r.Warns) > 0 {
			warns = append(warns, r.Warns...)
		}
		if r.Skip {
			continue
		}
		out = append(out, r.Post)
	}
	return out, warns, nil
}

func parseOne(sf SourceFile) Result {
	raw, readErr := os.ReadFile(sf.Path)
	if readErr != nil {
		return Result{Err: readErr}
	}
	contentHash := HashBytes(raw)

	fm, _, fmWarns, fmErr := ParseFrontMatter(raw)

	var warns []Warning
	for _, w := range fmWarns {
		warns = append(warns, Warning{Path: sf.Path, Msg: w})
	}
	if fmErr != nil && fmErr != errNoFrontMatter {
		warns = append(warns, Warning{
			Path: sf.Path,
			Msg:  "failed to parse front matter: " + fmErr.Error(),
		})
		return Result{Warns: warns, Skip: true}
	}
	if fm.Hidden {
		return Result{Warns: warns, Skip: true}
	}

	slug := ResolveSlug(fm, sf.Path)
	if slug == "" {
		warns = append(warns, Warning{
			Path: sf.Path,
			Kind: domainerr.KindMissingRequiredField,
			Msg:  "empty slug",
		})
		return Result{Warns: warns, Skip: true}
	}

	meta := content.PostMeta{
		Title:       fm.Title,
		Slug:        slug,
		Permalink:   fm.Permalink,
		Categories:  fm.Categories,
		Layout:      content.Layout(strings.TrimSpace(fm.Layout)),
		HeroImage:   fm.HeroImage,
		Attribution: fm.Attribution,
		Draft:       fm.Draft,
		Hidden:      fm.Hidden,
	}

	fileDate, fileSlug := FromFilename(sf.Path)
	if strings.TrimSpace(fm.Slug) == "" && strings.TrimSpace(fm.Title) == "" {
		meta.Slug = Slugify(fileSlug)
	}

	date, dateErr := ParseDate(fm.Date)
	if dateErr != nil {
		// 写错的日期不兜底成别的时间；每篇只告警一次，这里直接跳过
		warns = append(warns, Warning{
			Path: sf.Path,
			Kind: domainerr.KindMalformedDate,
			Msg:  dateErr.Error(),
		})
		return Result{Warns: warns, Skip: true}
	}
	if date.IsZero() && !fileDate.IsZero() {
		date = fileDate
	}
	meta.Date = date

	if strings.TrimSpace(meta.Title) == "" {
		warns = append(warns, Warning{
			Path: sf.Path,
			Kind: domainerr.KindMissingRequiredField,
			Msg:  "missing required field: title",
		})
		return Result{Warns: warns, Skip: true}
	}
	switch meta.Layout {
	case "", content.LayoutPost, content.LayoutPage:
	default:
		warns = append(warns, Warning{
			Path: sf.Path,
			Msg:  "unknown layout " + string(meta.Layout) + ", treating as post",
		})
		meta.Layout = content.LayoutPost
	}

	meta.Normalize()
	return Result{
		Post: content.Post{
			Meta: meta,
			Body: content.BodyRef{
				SourcePath:  sf.Path,
				ContentHash: contentHash,
			},
		},
		Warns: warns,
	}
}
