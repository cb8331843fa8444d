package splitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/chorus/store"
)

func TestSplitParagraphs(t *testing.T) {
	blocks := Split("First paragraph.\n\nSecond paragraph,\nwrapped.")
	require.Len(t, blocks, 2)
	require.Equal(t, store.BlockTypeParagraph, blocks[0].Type)
	require.Equal(t, "First paragraph.", blocks[0].Content)
	require.Equal(t, store.BlockTypeParagraph, blocks[1].Type)
	require.Equal(t, "Second paragraph,\nwrapped.", blocks[1].Content)
}

func TestSplitHeading(t *testing.T) {
	blocks := Split("## Results\n\nBody.")
	require.Len(t, blocks, 2)
	require.Equal(t, store.BlockTypeHeading, blocks[0].Type)
	require.Equal(t, "Results", blocks[0].Content)
	require.Equal(t, map[string]any{"level": 2}, blocks[0].Metadata)
}

func TestSplitFencedCode(t *testing.T) {
	blocks := Split("```python\nprint(\"hi\")\nprint(\"bye\")\n```")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeCode, blocks[0].Type)
	require.Equal(t, "print(\"hi\")\nprint(\"bye\")", blocks[0].Content)
	require.Equal(t, map[string]any{"language": "python"}, blocks[0].Metadata)
}

func TestSplitCodeWithoutLanguage(t *testing.T) {
	blocks := Split("```\nplain\n```")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeCode, blocks[0].Type)
	require.Nil(t, blocks[0].Metadata)
}

func TestSplitChart(t *testing.T) {
	blocks := Split("```mermaid\ngraph TD; A-->B;\n```")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeChart, blocks[0].Type)
	require.Equal(t, "graph TD; A-->B;", blocks[0].Content)
	require.Equal(t, map[string]any{"language": "mermaid"}, blocks[0].Metadata)
}

func TestSplitLists(t *testing.T) {
	blocks := Split("- alpha\n- beta\n\n1. one\n2. two")
	require.Len(t, blocks, 2)
	require.Equal(t, store.BlockTypeBullet, blocks[0].Type)
	require.Contains(t, blocks[0].Content, "alpha")
	require.Contains(t, blocks[0].Content, "beta")
	require.Equal(t, store.BlockTypeNumbered, blocks[1].Type)
	require.Contains(t, blocks[1].Content, "one")
	require.Contains(t, blocks[1].Content, "two")
}

func TestSplitBlockquote(t *testing.T) {
	blocks := Split("> quoted line\n> second line")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeQuote, blocks[0].Type)
	require.Contains(t, blocks[0].Content, "quoted line")
}

func TestSplitTable(t *testing.T) {
	blocks := Split("| a | b |\n|---|---|\n| 1 | 2 |")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeTable, blocks[0].Type)
}

func TestSplitMixedDocumentKeepsOrder(t *testing.T) {
	text := "# Title\n\nIntro paragraph.\n\n- point one\n- point two\n\n```go\nfmt.Println()\n```\n\n> closing thought"
	blocks := Split(text)
	require.Len(t, blocks, 5)
	require.Equal(t, store.BlockTypeHeading, blocks[0].Type)
	require.Equal(t, store.BlockTypeParagraph, blocks[1].Type)
	require.Equal(t, store.BlockTypeBullet, blocks[2].Type)
	require.Equal(t, store.BlockTypeCode, blocks[3].Type)
	require.Equal(t, store.BlockTypeQuote, blocks[4].Type)
}

func TestSplitIsDeterministic(t *testing.T) {
	text := "# A\n\npara\n\n- l1\n- l2\n\n```sql\nselect 1;\n```"
	first := Split(text)
	for i := 0; i < 10; i++ {
		again := Split(text)
		require.Equal(t, first, again)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	require.Empty(t, Split(""))
	require.Empty(t, Split("   \n\n  "))
}

func TestSplitPlainTextFallsBackToParagraph(t *testing.T) {
	blocks := Split("just one line of plain text")
	require.Len(t, blocks, 1)
	require.Equal(t, store.BlockTypeParagraph, blocks[0].Type)
	require.True(t, blocks[0].Type.IsValid())
}
