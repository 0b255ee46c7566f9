package generator

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PostProcess 去除首尾空白；若模型仍用代码块包裹输出，则取出代码块内容。
func PostProcess(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	out = unfence(out)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// unfence returns the body of md when md opens with a fenced code block.
// Anything else is returned unchanged.
func unfence(md string) string {
	if !strings.HasPrefix(md, "```") && !strings.HasPrefix(md, "~~~") {
		return md
	}
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	block, ok := doc.FirstChild().(*ast.FencedCodeBlock)
	if !ok {
		return md
	}
	var sb strings.Builder
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimSpace(sb.String())
}
