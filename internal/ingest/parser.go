package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var errNoFrontMatter = errors.New("no front matter found")
var errInvalidFrontMatter = errors.New("invalid front matter")

// StringList 兼容 "categories: chess" 和 "categories: [a, b]" 两种写法
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		// 单个标量也可能是空格分隔的多个分类（jekyll 风格）
		*l = strings.Fields(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("categories: unsupported YAML node kind %d", node.Kind)
	}
}

// FrontMatter 是封闭的元数据记录：字段在此枚举，未知键单独告警而不是静默吞掉。
type FrontMatter struct {
	Title     string `yaml:"title"`
	Slug      string `yaml:"slug"`
	Date      string `yaml:"date"`
	Layout    string `yaml:"layout"`
	Permalink string `yaml:"permalink"`

	Categories StringList `yaml:"categories"`

	HeroImage   string `yaml:"hero_image"`
	Attribution string `yaml:"attribution"`

	Draft  bool `yaml:"draft"`
	Hidden bool `yaml:"hidden"`
}

// ParseFrontMatter 切出 YAML 头并解析。
// 第二个返回值是正文，第三个是未知键告警（每个文件最多一条）。
func ParseFrontMatter(raw []byte) (FrontMatter, []byte, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return FrontMatter{}, raw, nil, errNoFrontMatter
	}

	// 统一换行符
	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))

	const (
		sep      = "---"
		sepLine  = sep + "\n"
		closeMid = "\n" + sep + "\n"
	)

	if !bytes.HasPrefix(norm, []byte(sepLine)) {
		return FrontMatter{}, raw, nil, errNoFrontMatter
	}

	// 去掉首行 "---\n"
	rest := norm[len(sepLine):]

	var yamlPart, bodyPart []byte

	// 优先走最常见的情况：中间有 "\n---\n"
	if parts := bytes.SplitN(rest, []byte(closeMid), 2); len(parts) == 2 {
		yamlPart = parts[0]
		bodyPart = parts[1]
	} else {
		// 可能是结尾是 "\n---" 且无正文
		if bytes.HasSuffix(rest, []byte("\n"+sep)) {
			yamlPart = rest[:len(rest)-len("\n"+sep)]
			bodyPart = nil
		} else if bytes.Equal(bytes.TrimSpace(rest), []byte(sep)) {
			yamlPart = nil
			bodyPart = nil
		} else {
			return FrontMatter{}, raw, nil, errInvalidFrontMatter
		}
	}

	yamlPart = bytes.TrimSpace(yamlPart)
	bodyPart = bytes.TrimSpace(bodyPart)

	var fm FrontMatter
	var warns []string
	if len(yamlPart) > 0 {
		// 先严格解析探测未知键，再宽松解析取值
		strict := yaml.NewDecoder(bytes.NewReader(yamlPart))
		strict.KnownFields(true)
		var probe FrontMatter
		if err := strict.Decode(&probe); err != nil {
			if isUnknownFieldError(err) {
				warns = append(warns, "unknown front matter key ignored: "+err.Error())
			} else {
				return FrontMatter{}, raw, nil, err
			}
		}
		if err := yaml.Unmarshal(yamlPart, &fm); err != nil {
			return FrontMatter{}, raw, nil, err
		}
	}

	return fm, bodyPart, warns, nil
}

func isUnknownFieldError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found in type")
}

// ParseDate 区分 "缺失"（空串，零值无错）与 "写错了"（非空但解析不了）。
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{
		time.RFC3339,
		time.DateOnly,
		"2006-01-02 15:04",
		time.DateTime,
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed date %q", s)
}

var datedName = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// FromFilename 支持 jekyll 式 "YYYY-MM-DD-title.md" 命名：
// front matter 没写 date/slug 时从文件名兜底。
func FromFilename(path string) (time.Time, string) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	m := datedName.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, base
	}
	t, err := time.ParseInLocation(time.DateOnly, m[1]+"-"+m[2]+"-"+m[3], time.Local)
	if err != nil {
		return time.Time{}, base
	}
	return t, m[4]
}

func ResolveSlug(fm FrontMatter, path string) string {
	if s := strings.TrimSpace(fm.Slug); s != "" {
		return Slugify(s)
	}
	if t := strings.TrimSpace(fm.Title); t != "" {
		return Slugify(t)
	}
	_, name := FromFilename(path)
	return Slugify(name)
}
