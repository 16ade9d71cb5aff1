// Package extract guesses a job posting's title and company from rendered
// HTML. The rules are an ordered list of extraction strategies, each a pure
// function over the parsed page, applied in priority order until one
// returns a non-empty value. Strong structured sources (JSON-LD JobPosting)
// come first, brittle string heuristics last, and a hostname-derived
// fallback guarantees a non-empty result either way.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/jobsnap/core"
	"github.com/gaurav-prasanna/jobsnap/core/normalize"
)

// page bundles the parsed document with everything the strategies need.
type page struct {
	doc      *goquery.Document
	jsonLD   *jobPosting // nil when no JobPosting block was found
	hostname string
	title    string // og:title or <title>, pre-trimmed
}

// strategy returns its guess or "" to pass to the next one in the chain.
type strategy func(p *page) string

// titleSelectors are attribute patterns job boards commonly use for the
// posting headline, tried after JSON-LD and <h1>.
var titleSelectors = []string{
	`[data-qa*="job-title" i]`,
	`[class*="job-title" i]`,
	`[class*="posting-headline" i]`,
	`[class*="job-header-title" i]`,
	`[class*="job-title-text" i]`,
}

var titleStrategies = []strategy{
	func(p *page) string {
		if p.jsonLD != nil {
			return p.jsonLD.Title
		}
		return ""
	},
	func(p *page) string {
		return strings.TrimSpace(p.doc.Find("h1").First().Text())
	},
	func(p *page) string {
		for _, sel := range titleSelectors {
			if text := strings.TrimSpace(p.doc.Find(sel).First().Text()); text != "" {
				return text
			}
		}
		return ""
	},
	func(p *page) string {
		// "Senior Gopher - Acme | Careers" → "Senior Gopher"
		t := p.title
		if i := strings.Index(t, " - "); i >= 0 {
			t = t[:i]
		}
		if i := strings.Index(t, "|"); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	},
}

var careersNoise = regexp.MustCompile(`(?i)\b(Careers?|Jobs?|Hiring)\b`)

var companyStrategies = []strategy{
	func(p *page) string {
		if p.jsonLD != nil {
			return p.jsonLD.Company
		}
		return ""
	},
	workdayBrand,
	func(p *page) string {
		content, _ := p.doc.Find(`meta[property="og:site_name"]`).Attr("content")
		return strings.TrimSpace(content)
	},
	func(p *page) string {
		org := p.doc.Find(`[itemprop="hiringOrganization"]`).First()
		if org.Length() == 0 {
			return ""
		}
		return strings.TrimSpace(org.Find(`[itemprop="name"]`).First().Text())
	},
	func(p *page) string {
		// "Senior Gopher | Acme Careers" → "Acme"
		if !strings.Contains(p.title, "|") {
			return ""
		}
		parts := strings.Split(p.title, "|")
		tail := careersNoise.ReplaceAllString(parts[len(parts)-1], "")
		return strings.Trim(tail, " -|")
	},
	func(p *page) string {
		// "Senior Gopher at Acme | ..." → "Acme"
		_, after, ok := strings.Cut(p.title, " at ")
		if !ok {
			return ""
		}
		if i := strings.Index(after, "|"); i >= 0 {
			after = after[:i]
		}
		return strings.Trim(after, " -|")
	},
	hostnameBrand,
}

// Guesser implements core.Extractor with the strategy chain above.
type Guesser struct{}

// New creates a Guesser.
func New() *Guesser {
	return &Guesser{}
}

// Extract parses the HTML and runs the title and company chains. It never
// returns an empty title or company: the terminal fallbacks derive both
// from the hostname. The posting body, when one can be located, is
// normalized to Markdown in the Description field.
func (g *Guesser) Extract(html string, pageURL string) core.JobMetadata {
	meta := core.JobMetadata{URL: pageURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable page: fall back to URL-derived values only.
		meta.Title = "Job from " + hostnameOf(pageURL)
		meta.Company = capitalize(hostnameBase(hostnameOf(pageURL)))
		return meta
	}

	p := &page{
		doc:      doc,
		jsonLD:   findJobPosting(doc),
		hostname: hostnameOf(pageURL),
		title:    pageTitle(doc),
	}

	meta.Title = firstHit(titleStrategies, p)
	if meta.Title == "" {
		host := p.hostname
		if host == "" {
			host = "Unknown"
		}
		meta.Title = "Job from " + host
	}

	meta.Company = firstHit(companyStrategies, p)
	if meta.Company == "" {
		meta.Company = "Unknown"
	}

	meta.Description = description(p)
	return meta
}

// firstHit applies strategies in priority order until one succeeds.
func firstHit(chain []strategy, p *page) string {
	for _, s := range chain {
		if v := s(p); v != "" {
			return v
		}
	}
	return ""
}

// description locates the posting body and converts it to Markdown.
// Best effort: an empty string is fine, the record just has no body.
func description(p *page) string {
	var html string
	if p.jsonLD != nil && p.jsonLD.Description != "" {
		html = p.jsonLD.Description
	} else {
		for _, sel := range []string{`[class*="job-description" i]`, `[class*="description" i]`, "main", "article"} {
			node := p.doc.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			if h, err := goquery.OuterHtml(node); err == nil {
				html = h
				break
			}
		}
	}
	if html == "" {
		return ""
	}

	md, err := normalize.ToMarkdown(html)
	if err != nil {
		return ""
	}
	return md
}

// workdayBrand derives the company from Workday tenant hostnames, e.g.
// "manulife.wd3.myworkdayjobs.com" → "Manulife". Strong signal: the tenant
// is always the hiring company.
func workdayBrand(p *page) string {
	if !strings.Contains(p.hostname, "myworkdayjobs.com") {
		return ""
	}
	host := strings.TrimPrefix(p.hostname, "www.")
	brand := strings.Split(host, ".")[0]
	if brand == "" {
		return ""
	}
	words := strings.Split(strings.ReplaceAll(brand, "-", " "), " ")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// hostnameBrand is the terminal company fallback: the registrable part of
// the hostname, capitalized.
func hostnameBrand(p *page) string {
	return capitalize(hostnameBase(p.hostname))
}

// pageTitle prefers og:title over <title>.
func pageTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(content); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// hostnameBase returns the second-level label: "boards.acme.io" → "acme".
func hostnameBase(hostname string) string {
	host := strings.TrimPrefix(hostname, "www.")
	parts := strings.Split(host, ".")
	switch {
	case len(parts) >= 2:
		return parts[len(parts)-2]
	case len(parts) == 1 && parts[0] != "":
		return parts[0]
	default:
		return "Unknown"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
