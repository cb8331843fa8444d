// Package splitter converts raw engine response text into typed content blocks.
//
// Splitting is a pure function of the input text: the same markdown always
// yields the same ordered block list, so every engine's output is decomposed
// identically regardless of arrival order or timing.
package splitter

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hrygo/chorus/store"
)

// Block is a single typed segment of an engine response.
type Block struct {
	Metadata map[string]any
	Type     store.BlockType
	Content  string
}

// chartLanguages are fenced code languages rendered as charts rather than code.
var chartLanguages = map[string]bool{
	"mermaid":   true,
	"chart":     true,
	"vega":      true,
	"vega-lite": true,
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// Split decomposes markdown text into an ordered list of typed blocks.
//
// Each top-level element of the document becomes one block. Nested structure
// (list items, quoted paragraphs) stays inside its parent block's content.
// Unrecognized elements fall back to paragraph.
func Split(content string) []*Block {
	source := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(source))

	blocks := []*Block{}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		block := convertNode(node, source)
		if block == nil {
			continue
		}
		if block.Content == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func convertNode(node ast.Node, source []byte) *Block {
	switch n := node.(type) {
	case *ast.Heading:
		return &Block{
			Type:     store.BlockTypeHeading,
			Content:  nodeSource(n, source),
			Metadata: map[string]any{"level": n.Level},
		}
	case *ast.FencedCodeBlock:
		language := ""
		if lang := n.Language(source); lang != nil {
			language = string(lang)
		}
		blockType := store.BlockTypeCode
		if chartLanguages[language] {
			blockType = store.BlockTypeChart
		}
		block := &Block{
			Type:    blockType,
			Content: codeLines(n, source),
		}
		if language != "" {
			block.Metadata = map[string]any{"language": language}
		}
		return block
	case *ast.CodeBlock:
		return &Block{
			Type:    store.BlockTypeCode,
			Content: codeLines(n, source),
		}
	case *ast.List:
		blockType := store.BlockTypeBullet
		if n.IsOrdered() {
			blockType = store.BlockTypeNumbered
		}
		return &Block{
			Type:    blockType,
			Content: nodeSource(n, source),
		}
	case *ast.Blockquote:
		return &Block{
			Type:    store.BlockTypeQuote,
			Content: nodeSource(n, source),
		}
	case *east.Table:
		return &Block{
			Type:    store.BlockTypeTable,
			Content: nodeSource(n, source),
		}
	default:
		return &Block{
			Type:    store.BlockTypeParagraph,
			Content: nodeSource(node, source),
		}
	}
}

// codeLines joins the interior lines of a code block, without the fences.
func codeLines(node ast.Node, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// nodeSource returns the raw source text covered by a node, including nested
// children. Container nodes like lists and blockquotes carry no line spans of
// their own, so bounds are gathered from their descendants.
func nodeSource(node ast.Node, source []byte) string {
	start, stop := segmentBounds(node)
	if start < 0 || stop <= start || stop > len(source) {
		return ""
	}
	return strings.TrimSpace(string(source[start:stop]))
}

func segmentBounds(node ast.Node) (int, int) {
	start, stop := -1, -1
	extend := func(s, e int) {
		if s < 0 || e < s {
			return
		}
		if start < 0 || s < start {
			start = s
		}
		if e > stop {
			stop = e
		}
	}

	if textNode, ok := node.(*ast.Text); ok {
		extend(textNode.Segment.Start, textNode.Segment.Stop)
	}
	if node.Type() == ast.TypeBlock {
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			extend(segment.Start, segment.Stop)
		}
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		extend(segmentBounds(child))
	}
	return start, stop
}
