package ai

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxPromptHTML caps cleaned HTML handed to the model. Listing pages past
// this size are cut, not summarized; the pagination walk covers the rest.
const maxPromptHTML = 80000

// removeSelector strips tags that carry no job data but dominate page size.
const removeSelector = "script, style, svg, noscript, head, meta, link, iframe"

// cookieSelectors match consent dialogs, which run to megabytes on some sites.
var cookieSelectors = []string{
	`[role="dialog"]`,
	`[id*="cookie"]`,
	`[id*="consent"]`,
	`[class*="cookie"]`,
	`[class*="consent"]`,
	`[id*="gdpr"]`,
	`[class*="gdpr"]`,
}

// keepAttrs are the only attributes preserved on cleaned tags.
var keepAttrs = map[string]bool{
	"href":          true,
	"class":         true,
	"id":            true,
	"role":          true,
	"data-job":      true,
	"data-position": true,
}

// relevantClassKeywords select which CSS classes survive cleaning.
var relevantClassKeywords = []string{"job", "career", "position", "vacancy", "opening", "title", "list", "item"}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	tagGapRe = regexp.MustCompile(`>\s+<`)
)

// CleanHTML reduces a page to the markup the model needs: navigation
// structure, links, and text. Scripts, consent dialogs, comments, and
// irrelevant attributes go; whitespace collapses; output is size-capped.
func CleanHTML(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(rawHTML)
	}

	doc.Find(removeSelector).Remove()
	for _, selector := range cookieSelectors {
		doc.Find(selector).Remove()
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			stripComments(node)
			filterAttrs(node)
		}
	})

	cleaned, err := doc.Html()
	if err != nil {
		return truncate(rawHTML)
	}

	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	cleaned = tagGapRe.ReplaceAllString(cleaned, "><")
	return truncate(strings.TrimSpace(cleaned))
}

func stripComments(node *html.Node) {
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.CommentNode {
			node.RemoveChild(child)
		}
		child = next
	}
}

func filterAttrs(node *html.Node) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if !keepAttrs[attr.Key] {
			continue
		}
		if attr.Key == "class" {
			if relevant := relevantClasses(attr.Val); relevant != "" {
				attr.Val = relevant
				kept = append(kept, attr)
			}
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}

// relevantClasses keeps up to three job-related class names; the rest are
// framework noise.
func relevantClasses(classAttr string) string {
	var relevant []string
	for _, class := range strings.Fields(classAttr) {
		lower := strings.ToLower(class)
		for _, keyword := range relevantClassKeywords {
			if strings.Contains(lower, keyword) {
				relevant = append(relevant, class)
				break
			}
		}
		if len(relevant) == 3 {
			break
		}
	}
	return strings.Join(relevant, " ")
}

func truncate(s string) string {
	if len(s) > maxPromptHTML {
		return s[:maxPromptHTML]
	}
	return s
}
