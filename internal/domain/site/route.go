package site

import (
	"fmt"
	"path"
	"strings"

	"gambit/internal/domain/content"
)

// Permalink 的推导是确定性的：显式 permalink > page 布局 > 日期式。
// 同一份输入永远得到同一个 URL。
func Permalink(m content.PostMeta) string {
	if p := strings.TrimSpace(m.Permalink); p != "" {
		return canonical(p)
	}
	if m.Layout == content.LayoutPage {
		return "/" + m.Slug + "/"
	}
	d := m.Date
	return fmt.Sprintf("/%04d/%02d/%02d/%s/",
		d.Year(), int(d.Month()), d.Day(), m.Slug,
	)
}

// canonical 统一成 "/.../" 形式
func canonical(p string) string {
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return p
	}
	return p + "/"
}

// OutPath 把 permalink 映射到输出树里的相对路径
func OutPath(permalink string) string {
	trimmed := strings.Trim(permalink, "/")
	if trimmed == "" {
		return "index.html"
	}
	return path.Join(trimmed, "index.html")
}

func CategoryPermalink(name string) string {
	return "/categories/" + PathSegment(name) + "/"
}

// PathSegment 收敛任意字符串为安全的路径段
func PathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	repl := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}
	return strings.Map(repl, s)
}
