package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugNonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugManyDash  = regexp.MustCompile(`-{2,}`)
	slugSeparator = regexp.MustCompile(`[\s_.]+`)
)

// Slugify 先做 Unicode 正规化去掉重音符号，再收敛成 URL 友好的形式。
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(strings.TrimSpace(result))
	result = slugSeparator.ReplaceAllString(result, "-")
	result = slugNonAlnum.ReplaceAllString(result, "")
	result = slugManyDash.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
