package index

import (
	"encoding/json"
	"strings"

	bolt "go.etcd.io/bbolt"

	"gambit/internal/catalog"
)

type RebuildOptions struct {
	IncludeDrafts bool
}

// Rebuild 全量重建：桶删掉重写，顺序照抄 catalog 的排序结果。
func (s *Store) Rebuild(ix *catalog.Index, opt RebuildOptions) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket(bMeta)
		_ = tx.DeleteBucket(bIdxDate)
		_ = tx.DeleteBucket(bIdxCat)

		metaB, _ := tx.CreateBucket(bMeta)
		idxDateB, _ := tx.CreateBucket(bIdxDate)
		idxCatB, _ := tx.CreateBucket(bIdxCat)

		for i, p := range ix.All() {
			m := p.Meta
			if m.Draft && !opt.IncludeDrafts {
				continue
			}
			if strings.TrimSpace(m.Permalink) == "" {
				continue
			}
			mb, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := metaB.Put([]byte(m.Permalink), mb); err != nil {
				return err
			}

			dKey := makeDateKey(m.Date.UnixNano(), uint32(i), m.Permalink)
			if err := idxDateB.Put(dKey, []byte{1}); err != nil {
				return err
			}

			for _, cat := range m.Categories {
				if cat == "" {
					continue
				}
				sb, err := idxCatB.CreateBucketIfNotExists([]byte(cat))
				if err != nil {
					return err
				}
				if err := sb.Put(dKey, []byte{1}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
