package platform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Legal and contact pages sometimes sit on board-like hosts; never treat
// them as a board reference.
var skipBoardURLRe = regexp.MustCompile(`(?i)/(privacy-policy|datenschutz|imprint|impressum|terms|agb|legal|cookie|contact|kontakt)`)

// Inline embed scripts reference boards by full URL in their source text.
var inlineURLRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// FindBoardURL scans page HTML for a link, iframe, embed script, or
// lazy-load attribute pointing at a known hosted job board. Company career
// pages frequently embed their board instead of hosting listings, and the
// embed markup is the only place the board token appears. Returns the
// normalized board listing URL with its platform tag, or "" and Generic
// when the page references no known board.
func (r *Registry) FindBoardURL(html string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", Generic
	}

	var refs []string
	appendAttr := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, sel *goquery.Selection) {
			if v, ok := sel.Attr(attr); ok && v != "" {
				refs = append(refs, v)
			}
		}
	}
	doc.Find("a[href]").Each(appendAttr("href"))
	doc.Find("iframe[src], script[src]").Each(appendAttr("src"))
	doc.Find("[data-src]").Each(appendAttr("data-src"))
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		refs = append(refs, inlineURLRe.FindAllString(sel.Text(), -1)...)
	})

	for _, ref := range refs {
		if !strings.HasPrefix(ref, "http") || skipBoardURLRe.MatchString(ref) {
			continue
		}
		for _, sig := range r.signatures {
			if !sig.urlPattern.MatchString(ref) {
				continue
			}
			if normalized := normalizeBoardURL(sig.platform, ref); normalized != "" {
				return normalized, sig.platform
			}
		}
	}
	return "", Generic
}

// normalizeBoardURL reduces a board reference (embed script, deep job link)
// to the board's listing URL. Platforms carrying the company slug in the
// path keep its first segment; subdomain-scoped boards reduce to the host
// root, preserving only an explicit language selection.
func normalizeBoardURL(platform, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	firstSegment := func() string {
		if len(segments) == 0 {
			return ""
		}
		return u.Scheme + "://" + u.Host + "/" + segments[0]
	}

	switch platform {
	case "greenhouse":
		// Embed scripts carry the board token in ?for=.
		if token := u.Query().Get("for"); token != "" {
			return u.Scheme + "://" + u.Host + "/" + token
		}
		if len(segments) > 0 && segments[0] == "embed" {
			return ""
		}
		return firstSegment()
	case "lever", "smartrecruiters", "ashby":
		return firstSegment()
	case "workable":
		if strings.HasPrefix(strings.ToLower(u.Host), "apply.") {
			return firstSegment()
		}
	}

	root := u.Scheme + "://" + u.Host + "/"
	if lang := u.Query().Get("language"); lang != "" {
		root += "?language=" + lang
	}
	return root
}
