package review

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// bodyBlockSelector matches the sections the article body is split into
const bodyBlockSelector = ".page-content--block_editor-content"

const (
	// paragraphMark is written around emphasized runs while flattening a block.
	// The HTML tokenizer turns every carriage return into a newline, so the
	// mark never collides with text coming from the document.
	paragraphMark  = "\r"
	paragraphBreak = "\n\n"
)

// ReconstructBody rebuilds the paragraph structure of the article body.
//
// Emphasized runs (<i>) hold footnotes and leading remarks that the markup
// glues onto the surrounding prose, and newlines inside a block are rendering
// artifacts. Each emphasized run therefore becomes its own paragraph, stray
// newlines and non-breaking spaces are dropped, and blocks are joined with a
// blank line.
func ReconstructBody(blocks *goquery.Selection) string {
	texts := make([]string, 0, blocks.Length())
	for _, n := range blocks.Nodes {
		var b strings.Builder
		flatten(n, &b)
		texts = append(texts, b.String())
	}
	return JoinBlocks(texts)
}

// JoinBlocks cleans flattened block texts and joins them into one body
func JoinBlocks(texts []string) string {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		cleaned = append(cleaned, cleanBlock(t))
	}
	body := strings.Join(cleaned, paragraphBreak)
	// A block boundary next to an emphasized run doubles the break
	return strings.ReplaceAll(body, paragraphBreak+paragraphBreak, paragraphBreak)
}

func cleanBlock(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, paragraphMark, paragraphBreak)
	return strings.TrimSpace(s)
}

// flatten writes the text of n and its descendants, framing <i> runs with paragraphMark
func flatten(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode, html.DocumentNode:
		emphasis := n.Type == html.ElementNode && n.DataAtom == atom.I
		if emphasis {
			b.WriteString(paragraphMark)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			flatten(c, b)
		}
		if emphasis {
			b.WriteString(paragraphMark)
		}
	}
}
