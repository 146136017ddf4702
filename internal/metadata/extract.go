// ABOUTME: Pulls title, image, site name, description, and categories out of page HTML
// ABOUTME: Walks the parsed document for <title> and <meta> tags, then cleans the values
package metadata

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxCategories = 5

var (
	textPolicy = bluemonday.StrictPolicy()

	// YouTube embeds the video category in its player microformat JSON
	microformatRe = regexp.MustCompile(`"playerMicroformatRenderer":\s*\{.*?\}`)
	categoryRe    = regexp.MustCompile(`"category"\s*:\s*"([^"]+)"`)
)

// page holds the raw tag values found in a document
type page struct {
	title string
	meta  map[string]string
	tags  []string
}

// parsePage collects <title> and every <meta> keyed by property or name.
// The first occurrence of a key wins; og:video:tag values are all kept.
func parsePage(doc *html.Node) page {
	p := page{meta: make(map[string]string)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if p.title == "" {
					p.title = textContent(n)
				}
			case atom.Meta:
				p.addMeta(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return p
}

func (p *page) addMeta(n *html.Node) {
	var key, content string
	hasContent := false
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property":
			key = strings.ToLower(strings.TrimSpace(a.Val))
		case "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = a.Val
			hasContent = true
		}
	}
	if key == "" || !hasContent {
		return
	}
	if key == "og:video:tag" {
		p.tags = append(p.tags, content)
		return
	}
	if _, seen := p.meta[key]; !seen {
		p.meta[key] = content
	}
}

// first returns the first non-blank cleaned value among keys
func (p page) first(keys ...string) string {
	for _, k := range keys {
		if v := cleanText(p.meta[k]); v != "" {
			return v
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// cleanText strips any markup a publisher left in a value and collapses whitespace
func cleanText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// rawCategories gathers candidate categories in priority order
func rawCategories(body string, p page) []string {
	var out []string
	if block := microformatRe.FindString(body); block != "" {
		if m := categoryRe.FindStringSubmatch(block); m != nil {
			out = append(out, m[1])
		}
	}
	if v := p.meta["article:section"]; v != "" {
		out = append(out, v)
	}
	if v := p.meta["category"]; v != "" {
		out = append(out, v)
	}
	if v := p.meta["keywords"]; v != "" {
		out = append(out, strings.Split(v, ",")...)
	}
	out = append(out, p.tags...)
	return out
}

// CleanCategories trims each candidate, keeps those of 3 to 29 characters,
// capitalizes the first letter, drops duplicates, and keeps at most five.
func CleanCategories(raw []string) []string {
	out := make([]string, 0, maxCategories)
	seen := make(map[string]bool)
	for _, c := range raw {
		c = cleanText(c)
		n := utf8.RuneCountInString(c)
		if n <= 2 || n >= 30 {
			continue
		}
		c = capitalize(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == maxCategories {
			break
		}
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
