package index

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"gambit/internal/domain/content"
)

var ErrNotFound = errors.New("not found")

type ListOptions struct {
	Page          int
	Size          int
	IncludeDrafts bool
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 1000 {
		size = 1000
	}
	return page, size
}

func (s *Store) GetMeta(permalink string) (content.PostMeta, error) {
	permalink = strings.TrimSpace(permalink)
	if permalink == "" {
		return content.PostMeta{}, ErrNotFound
	}
	var m content.PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(permalink))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &m)
	})
	return m, err
}

// List 沿日期索引正向扫就是时间降序
func (s *Store) List(opt ListOptions) ([]content.PostMeta, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []content.PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxDate)
		metaB := tx.Bucket(bMeta)
		if idx == nil || metaB == nil {
			return nil
		}

		skip := (opt.Page - 1) * opt.Size
		cur := idx.Cursor()

		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			permalink := permalinkFromDateKey(k)
			if permalink == "" {
				continue
			}
			v := metaB.Get([]byte(permalink))
			if v == nil {
				continue
			}

			var m content.PostMeta
			if err := json.Unmarshal(v, &m); err != nil {
				continue
			}
			if m.Hidden {
				continue
			}
			if m.Draft && !opt.IncludeDrafts {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, m)
			if len(out) >= opt.Size {
				break
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) ListByCategory(cat string, opt ListOptions) ([]content.PostMeta, error) {
	cat = strings.TrimSpace(strings.ToLower(cat))
	if cat == "" {
		return nil, nil
	}
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []content.PostMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxCat)
		metaB := tx.Bucket(bMeta)
		if parent == nil || metaB == nil {
			return nil
		}
		sb := parent.Bucket([]byte(cat))
		if sb == nil {
			return nil
		}

		skip := (opt.Page - 1) * opt.Size
		cur := sb.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			permalink := permalinkFromDateKey(k)
			if permalink == "" {
				continue
			}
			v := metaB.Get([]byte(permalink))
			if v == nil {
				continue
			}
			var m content.PostMeta
			if err := json.Unmarshal(v, &m); err != nil {
				continue
			}
			if m.Hidden {
				continue
			}
			if m.Draft && !opt.IncludeDrafts {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, m)
			if len(out) >= opt.Size {
				break
			}
		}
		return nil
	})
	return out, err
}

type CategoryStat struct {
	Name  string
	Count int
}

// CategoryCounts 给分类总览页用，按数量降序、同数量按名字
func (s *Store) CategoryCounts(includeDrafts bool) ([]CategoryStat, error) {
	counts := make(map[string]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxCat)
		metaB := tx.Bucket(bMeta)
		if parent == nil || metaB == nil {
			return nil
		}
		return parent.ForEachBucket(func(name []byte) error {
			sb := parent.Bucket(name)
			if sb == nil {
				return nil
			}
			return sb.ForEach(func(k, v []byte) error {
				permalink := permalinkFromDateKey(k)
				mv := metaB.Get([]byte(permalink))
				if mv == nil {
					return nil
				}
				var m content.PostMeta
				if err := json.Unmarshal(mv, &m); err != nil {
					return nil
				}
				if m.Hidden || (m.Draft && !includeDrafts) {
					return nil
				}
				counts[string(name)]++
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	stats := make([]CategoryStat, 0, len(counts))
	for name, c := range counts {
		stats = append(stats, CategoryStat{Name: name, Count: c})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Name < stats[j].Name
		}
		return stats[i].Count > stats[j].Count
	})
	return stats, nil
}
