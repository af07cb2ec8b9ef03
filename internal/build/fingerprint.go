package build

import (
	"crypto/sha256"
	"encoding/hex"

	"gambit/internal/catalog"
	"gambit/internal/domain/config"
)

// Fingerprint 把内容哈希和站点配置揉成一个可对比的构建指纹：
// 两次构建指纹相同就意味着输出也应当逐字节一致。
func Fingerprint(cfg config.Config, ix *catalog.Index) string {
	h := sha256.New()
	h.Write([]byte(cfg.Site.Title))
	h.Write([]byte(cfg.Site.SiteURL))
	h.Write([]byte(cfg.Site.Theme))
	h.Write([]byte(cfg.Build.BasePath))
	for _, p := range ix.All() {
		h.Write([]byte(p.Meta.Permalink))
		h.Write([]byte(p.Body.ContentHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}
