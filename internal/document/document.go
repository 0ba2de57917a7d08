// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package document renders the Markdown index of the site into a complete HTML
document.

The document starts with a banner comment naming the site and its author,
followed by OpenGraph and JSON-LD metadata, links to the bundled stylesheet
and script and the rendered Markdown. After rendering, the document goes
through [Tidy], which drops comments that don't mention the author and
whitespace-only text nodes.
*/
package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"rsc.io/markdown"
)

// ErrMissingProp is returned by Render when a required prop is empty.
var ErrMissingProp = errors.New("missing required document property")

// LivePath is the path of the live reload websocket endpoint.
const LivePath = "/_live"

// Props are the inputs of the document.
type Props struct {
	Content     []byte // Markdown source of the page.
	Href        string // Stylesheet URL. Omitted when empty.
	Src         string // Script URL. Omitted when empty.
	Icon        string // Favicon URL. Omitted when empty.
	Name        string // Site name, required.
	Description string // Site description, required.
	Author      string // Site author, required.
	License     string // Content license, required.
	Live        bool   // Live determines whether the live reload script is included.
}

//go:embed shell.html
var shell string

var shellTpl = template.Must(template.New("shell").Parse(shell))

var parser = &markdown.Parser{
	HeadingID:     true,
	Strikethrough: true,
	TaskList:      true,
	AutoLinkText:  true,
	Table:         true,
	Emoji:         true,
	SmartDot:      true,
	SmartDash:     true,
	SmartQuote:    true,
	Footnote:      true,
}

// schema is the JSON-LD metadata embedded into the page.
type schema struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	License     string `json:"license"`
}

// Render renders the document.
func Render(p Props) ([]byte, error) {
	for _, f := range []struct {
		name, val string
	}{
		{"name", p.Name},
		{"description", p.Description},
		{"author", p.Author},
		{"license", p.License},
	} {
		if f.val == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingProp, f.name)
		}
	}

	ld, err := json.Marshal(schema{
		Context:     "http://schema.org",
		Type:        "WebPage",
		Name:        p.Name,
		Description: p.Description,
		Author:      p.Author,
		License:     p.License,
	})
	if err != nil {
		return nil, err
	}

	content := markdown.ToHTML(parser.Parse(string(p.Content)))

	var buf bytes.Buffer
	if err := shellTpl.Execute(&buf, map[string]any{
		"Banner":      template.HTML(banner(p.Name, p.Author)),
		"Name":        p.Name,
		"Description": p.Description,
		"Schema":      template.JS(ld),
		"Icon":        p.Icon,
		"IconType":    mime.TypeByExtension(path.Ext(p.Icon)),
		"Href":        p.Href,
		"Src":         p.Src,
		"Live":        p.Live,
		"LivePath":    LivePath,
		"Content":     template.HTML(content),
	}); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return nil, err
	}
	Tidy(doc, p.Author)

	out, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// pad fits s into a 64 characters wide banner line.
func pad(s string) string {
	r := []rune("*** " + s + " " + strings.Repeat("*", 60))
	return string(r[:64])
}

func banner(name, author string) string {
	stars := strings.Repeat("*", 64)
	return strings.Join([]string{
		"<!-- " + strings.Repeat("*", 59),
		stars,
		pad(name),
		stars,
		pad(author),
		stars,
		strings.Repeat("*", 60) + " -->",
	}, "\n")
}

// Tidy post-processes the parsed document in place.
//
// Comments that mention author are kept and followed by an empty line, all
// other comments are removed. Text nodes consisting only of whitespace are
// removed everywhere except inside <pre> and <textarea>.
func Tidy(doc *goquery.Document, author string) {
	for _, n := range doc.Nodes {
		tidy(n, author, false)
	}
}

func tidy(n *html.Node, author string, preformatted bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling

		switch c.Type {
		case html.CommentNode:
			if author != "" && strings.Contains(c.Data, author) {
				n.InsertBefore(&html.Node{Type: html.TextNode, Data: "\n\n"}, next)
			} else {
				n.RemoveChild(c)
			}
		case html.TextNode:
			if !preformatted && strings.TrimSpace(c.Data) == "" {
				n.RemoveChild(c)
			}
		case html.ElementNode:
			tidy(c, author, preformatted || c.DataAtom == atom.Pre || c.DataAtom == atom.Textarea)
		}

		c = next
	}
}
