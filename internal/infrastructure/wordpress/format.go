package wordpress

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/seoblog/backend/internal/domain/content"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render converts article markdown to post HTML. H2 headings get slug ids
// and a table of contents goes after the H1 (or first). A call to action
// for productName is placed before the Conclusion heading, or at the end.
func Render(md, productName string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("wordpress: convert markdown: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("wordpress: parse html: %w", err)
	}
	body := doc.Find("body")

	var entries []string
	var conclusion *goquery.Selection
	body.Find("h2").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		id := content.Slugify(text)
		if id == "" {
			return
		}
		s.SetAttr("id", id)
		entries = append(entries, fmt.Sprintf(`<li><a href="#%s">%s</a></li>`, id, html.EscapeString(text)))
		if conclusion == nil && strings.EqualFold(text, "conclusion") {
			conclusion = s
		}
	})

	cta := callToAction(productName)
	if conclusion != nil {
		conclusion.BeforeHtml(cta)
	} else {
		body.AppendHtml(cta)
	}

	if len(entries) > 0 {
		toc := tableOfContents(entries)
		if h1 := body.Find("h1").First(); h1.Length() > 0 {
			h1.AfterHtml(toc)
		} else {
			body.PrependHtml(toc)
		}
	}
	return body.Html()
}

func tableOfContents(entries []string) string {
	return "<!-- wp:table-of-contents -->\n" +
		`<div class="wp-block-table-of-contents"><h2>Table of Contents</h2><ul>` +
		strings.Join(entries, "") +
		"</ul></div>\n<!-- /wp:table-of-contents -->\n"
}

func callToAction(productName string) string {
	name := strings.TrimSpace(productName)
	if name == "" {
		name = "This Product"
	}
	return fmt.Sprintf(`<div class="seo-blog-cta" style="text-align: center; margin: 30px 0;">`+
		`<a href="#" style="background-color: #0073aa; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Learn More About %s</a>`+
		"</div>\n", html.EscapeString(name))
}

// PlainText strips the tags from rendered HTML.
func PlainText(rendered string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("wordpress: parse html: %w", err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
