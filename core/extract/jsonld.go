package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jobPosting holds the fields we care about from a schema.org JobPosting.
// Job boards (Workday especially) embed these as JSON-LD script blocks and
// they are by far the most reliable metadata source.
type jobPosting struct {
	Title       string
	Company     string
	Description string // raw HTML, frequently
}

// findJobPosting scans <script type="application/ld+json"> blocks for a
// JobPosting object, including blocks that wrap it in a top-level array.
func findJobPosting(doc *goquery.Document) *jobPosting {
	var found *jobPosting
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		var raw interface{}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return true // malformed blocks are common; skip quietly
		}

		switch v := raw.(type) {
		case []interface{}:
			for _, item := range v {
				if jp := jobPostingFromObject(item); jp != nil {
					found = jp
					return false
				}
			}
		default:
			if jp := jobPostingFromObject(raw); jp != nil {
				found = jp
				return false
			}
		}
		return true
	})
	return found
}

// jobPostingFromObject validates @type and pulls title, hiring organization
// and description out of a decoded JSON-LD object.
func jobPostingFromObject(obj interface{}) *jobPosting {
	m, ok := obj.(map[string]interface{})
	if !ok {
		return nil
	}

	if !hasJobPostingType(m["@type"]) {
		return nil
	}

	jp := &jobPosting{}

	if title, ok := m["title"].(string); ok {
		jp.Title = strings.TrimSpace(title)
	}
	if jp.Title == "" {
		if ident, ok := m["identifier"].(map[string]interface{}); ok {
			if name, ok := ident["name"].(string); ok {
				jp.Title = strings.TrimSpace(name)
			}
		}
	}

	if org, ok := m["hiringOrganization"].(map[string]interface{}); ok {
		if name, ok := org["name"].(string); ok {
			jp.Company = strings.TrimSpace(name)
		}
	}

	if desc, ok := m["description"].(string); ok {
		jp.Description = strings.TrimSpace(desc)
	}

	if jp.Title == "" && jp.Company == "" && jp.Description == "" {
		return nil
	}
	return jp
}

// hasJobPostingType accepts both "JobPosting" and ["JobPosting", ...].
func hasJobPostingType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}
