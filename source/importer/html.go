package importer

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// parseHTML builds a draft from an HTML document. Readability strips
// navigation and boilerplate down to the main content, which is then
// converted to markdown for the description. HTML documents carry no
// frontmatter, so the logical id and level come from the file name and
// title keywords.
func parseHTML(path string, content []byte) (Draft, error) {
	article, err := readability.FromReader(bytes.NewReader(content), &url.URL{Scheme: "file", Path: path})
	if err != nil {
		return Draft{}, fmt.Errorf("extract content from %s: %w", path, err)
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	body := article.Content
	if strings.TrimSpace(body) == "" {
		body = string(content)
	}
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return Draft{}, fmt.Errorf("convert %s to markdown: %w", path, err)
	}
	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n")

	title := article.Title
	if title == "" {
		title = htmlTitle(content)
	}

	return buildDraft(path, frontmatter{Title: title}, markdown)
}

// htmlTitle returns the document's <title>, or the first H1 when the
// head carries none.
func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title, heading string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.FirstChild != nil {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "h1":
				if heading == "" && n.FirstChild.Type == html.TextNode {
					heading = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title != "" {
		return title
	}
	return heading
}
