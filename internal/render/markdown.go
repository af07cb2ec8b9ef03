package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer 一次解析拿到两样东西：正文 HTML 和 TOC 用的标题列表。
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.Strikethrough,
				extension.Table,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

type MarkdownResult struct {
	HTML     []byte
	Headings []Heading
}

func (r *MarkdownRenderer) Render(src []byte) (MarkdownResult, error) {
	reader := text.NewReader(src)
	doc := r.md.Parser().Parse(reader, parser.WithContext(parser.NewContext()))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return MarkdownResult{}, err
	}
	return MarkdownResult{
		HTML:     buf.Bytes(),
		Headings: collectHeadings(doc, src),
	}, nil
}

// collectHeadings 把 AST 里的标题拍平，ID 来自 WithAutoHeadingID
func collectHeadings(doc ast.Node, src []byte) []Heading {
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}

		var id string
		if v, ok := h.AttributeString("id"); ok {
			switch t := v.(type) {
			case string:
				id = t
			case []byte:
				id = string(t)
			}
		}

		var label bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if tn, ok := c.(*ast.Text); ok {
				label.Write(tn.Segment.Value(src))
			}
		}

		out = append(out, Heading{Level: h.Level, ID: id, Text: label.String()})
		return ast.WalkContinue, nil
	})
	return out
}
