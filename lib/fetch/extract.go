package fetch

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// extractText pulls the text content out of an HTML document. Selectors are
// XPath expressions tried in order; the first that matches wins. With no
// selectors, or when none match, the document body is used.
func extractText(htmlStr string, selectors []string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	for _, sel := range selectors {
		node, err := htmlquery.Query(doc, sel)
		if err != nil {
			return "", err
		}
		if node != nil {
			return digForText(node), nil
		}
	}

	if body := htmlquery.FindOne(doc, "//body"); body != nil {
		return digForText(body), nil
	}
	return digForText(doc), nil
}

func digForText(n *html.Node) string {
	if n == nil {
		return ""
	}
	buf := new(bytes.Buffer)
	dig(n, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return s
}
