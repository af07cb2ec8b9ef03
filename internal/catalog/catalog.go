// Package catalog builds the publishable index of a post corpus:
// a reverse-chronological total order, a bounded "recent" prefix view,
// and the per-category listings. Build is a pure function of its input,
// it performs no I/O and is safe to re-run from scratch.
package catalog

import (
	"iter"
	"sort"
	"strings"

	"gambit/internal/domain/content"
	domainerr "gambit/internal/domain/errors"
	"gambit/internal/domain/site"
)

type Warning struct {
	SourcePath string
	Kind       domainerr.Kind
	Msg        string
}

type Index struct {
	all        []content.Post
	byPermalnk map[string]int
	byCategory map[string][]int
	categories []string
}

// Build 校验、推导 permalink、排序、建分类索引，一趟完成。
// 缺失必填字段只跳过该篇并告警；permalink 冲突是唯一的致命错误。
func Build(posts []content.Post) (*Index, []Warning, error) {
	var warns []Warning

	kept := make([]content.Post, 0, len(posts))
	firstSource := make(map[string]string, len(posts))

	for _, p := range posts {
		m := p.Meta
		m.Normalize()

		if m.Title == "" {
			warns = append(warns, Warning{
				SourcePath: p.Body.SourcePath,
				Kind:       domainerr.KindMissingRequiredField,
				Msg:        "missing required field: title",
			})
			continue
		}
		if m.Date.IsZero() {
			warns = append(warns, Warning{
				SourcePath: p.Body.SourcePath,
				Kind:       domainerr.KindMissingRequiredField,
				Msg:        "missing required field: date",
			})
			continue
		}

		m.Permalink = site.Permalink(m)

		if prev, ok := firstSource[m.Permalink]; ok {
			return nil, warns, &domainerr.PermalinkConflict{
				Permalink: m.Permalink,
				FirstPath: prev,
				OtherPath: p.Body.SourcePath,
			}
		}
		firstSource[m.Permalink] = p.Body.SourcePath

		kept = append(kept, content.Post{Meta: m, Body: p.Body})
	}

	// 降序排，日期相同保持输入顺序
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Meta.Date.After(kept[j].Meta.Date)
	})

	ix := &Index{
		all:        kept,
		byPermalnk: make(map[string]int, len(kept)),
		byCategory: make(map[string][]int),
	}
	for i, p := range kept {
		ix.byPermalnk[p.Meta.Permalink] = i

		seen := make(map[string]struct{}, len(p.Meta.Categories))
		for _, c := range p.Meta.Categories {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			ix.byCategory[c] = append(ix.byCategory[c], i)
		}
	}

	ix.categories = make([]string, 0, len(ix.byCategory))
	for c := range ix.byCategory {
		ix.categories = append(ix.categories, c)
	}
	sort.Strings(ix.categories)

	return ix, warns, nil
}

func (ix *Index) Len() int {
	return len(ix.all)
}

// All returns the full reverse-chronological order. The returned slice is
// shared; callers must not mutate it.
func (ix *Index) All() []content.Post {
	return ix.all
}

// Recent is a lazy, restartable prefix view over All, bounded to
// min(n, Len). Any n, including negative, is fine.
func (ix *Index) Recent(n int) iter.Seq[content.Post] {
	if n > len(ix.all) {
		n = len(ix.all)
	}
	return func(yield func(content.Post) bool) {
		for i := 0; i < n; i++ {
			if !yield(ix.all[i]) {
				return
			}
		}
	}
}

// Categories lists all category names sorted, for deterministic output.
func (ix *Index) Categories() []string {
	return ix.categories
}

// ByCategory returns the posts carrying the category, in All order,
// each post at most once.
func (ix *Index) ByCategory(name string) []content.Post {
	name = strings.ToLower(strings.TrimSpace(name))
	idxs := ix.byCategory[name]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]content.Post, len(idxs))
	for i, j := range idxs {
		out[i] = ix.all[j]
	}
	return out
}

// Lookup resolves a canonical permalink back to its post.
func (ix *Index) Lookup(permalink string) (content.Post, bool) {
	i, ok := ix.byPermalnk[permalink]
	if !ok {
		return content.Post{}, false
	}
	return ix.all[i], true
}
