package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaurav-prasanna/jobsnap/core/extract"
)

func TestExtractJSONLDJobPosting(t *testing.T) {
	html := `<html><head>
	<title>Whatever | Careers</title>
	<script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@type": "JobPosting",
		"title": "Staff Platform Engineer",
		"hiringOrganization": {"@type": "Organization", "name": "Acme Corp"},
		"description": "<p>Build <b>reliable</b> systems.</p>"
	}
	</script>
	</head><body><h1>Join us!</h1></body></html>`

	meta := extract.New().Extract(html, "https://careers.acme.com/jobs/1")

	assert.Equal(t, "Staff Platform Engineer", meta.Title, "JSON-LD beats the h1")
	assert.Equal(t, "Acme Corp", meta.Company)
	assert.Contains(t, meta.Description, "reliable")
}

func TestExtractJSONLDArrayWrapped(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	[{"@type": "WebSite"}, {"@type": ["JobPosting"], "title": "Data Engineer",
	 "hiringOrganization": {"name": "Initech"}}]
	</script></head><body></body></html>`

	meta := extract.New().Extract(html, "https://jobs.initech.io/p/7")

	assert.Equal(t, "Data Engineer", meta.Title)
	assert.Equal(t, "Initech", meta.Company)
}

func TestExtractWorkdayHostBrand(t *testing.T) {
	html := `<html><head><title>Senior Analyst</title></head>
	<body><h1>Senior Analyst</h1></body></html>`

	meta := extract.New().Extract(html, "https://manulife.wd3.myworkdayjobs.com/en-US/jobs/123")

	assert.Equal(t, "Senior Analyst", meta.Title)
	assert.Equal(t, "Manulife", meta.Company, "Workday tenant is the hiring company")
}

func TestExtractWorkdayHyphenatedBrand(t *testing.T) {
	html := `<html><body><h1>Engineer</h1></body></html>`

	meta := extract.New().Extract(html, "https://big-bank.wd5.myworkdayjobs.com/careers/456")

	assert.Equal(t, "Big Bank", meta.Company)
}

func TestExtractTitleSelectorFallback(t *testing.T) {
	html := `<html><head><title>Acme</title></head><body>
	<div class="posting-headline">Backend Developer</div>
	</body></html>`

	meta := extract.New().Extract(html, "https://acme.com/jobs")

	assert.Equal(t, "Backend Developer", meta.Title)
}

func TestExtractTitlePatternSplit(t *testing.T) {
	html := `<html><head>
	<meta property="og:title" content="Senior Gopher - Remote | Initrode Careers">
	</head><body></body></html>`

	meta := extract.New().Extract(html, "https://jobs.initrode.com/42")

	assert.Equal(t, "Senior Gopher", meta.Title)
	assert.Equal(t, "Initrode", meta.Company, "pipe tail minus Careers noise")
}

func TestExtractCompanyAtPattern(t *testing.T) {
	html := `<html><head><title>Platform Engineer at Hooli | Jobs</title></head>
	<body><h1>Platform Engineer</h1></body></html>`

	meta := extract.New().Extract(html, "https://somejobboard.com/listing/9")

	assert.Equal(t, "Platform Engineer", meta.Title)
	assert.Equal(t, "Hooli", meta.Company)
}

func TestExtractHostnameFallbacks(t *testing.T) {
	meta := extract.New().Extract("<html><body></body></html>", "https://www.pied-piper.net/x")

	assert.Equal(t, "Job from www.pied-piper.net", meta.Title)
	assert.Equal(t, "Pied-piper", meta.Company)
}

func TestExtractOGSiteName(t *testing.T) {
	html := `<html><head>
	<meta property="og:site_name" content="Globex">
	<title>Engineer</title>
	</head><body><h1>Engineer</h1></body></html>`

	meta := extract.New().Extract(html, "https://jobs.lever.co/globex/1")

	assert.Equal(t, "Globex", meta.Company)
}

func TestExtractDescriptionFromContainer(t *testing.T) {
	html := `<html><body>
	<h1>SRE</h1>
	<div class="job-description"><h2>About</h2><p>Keep things up.</p></div>
	</body></html>`

	meta := extract.New().Extract(html, "https://acme.com/jobs/5")

	assert.Contains(t, meta.Description, "Keep things up.")
	assert.Contains(t, meta.Description, "## About")
}
