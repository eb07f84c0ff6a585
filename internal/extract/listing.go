// Package extract turns rendered careers-site HTML into job records. Every
// field is found by an ordered list of strategies; the first strategy that
// returns a value wins.
package extract

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"go-careers-scraper/internal/filter"
	"go-careers-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// ErrExtractionSkip marks a single candidate element that produced no usable
// record. It never aborts a batch.
var ErrExtractionSkip = errors.New("extract: candidate skipped")

var (
	candidateClassRegex = regexp.MustCompile(`(?i)job|listing|position|opening`)
	fallbackLinkSel     = `a[href*="/job"], a[href*="/position"], a[href*="/career"]`

	titleClassRegex      = regexp.MustCompile(`(?i)title|heading`)
	titleLinkClassRegex  = regexp.MustCompile(`(?i)title|job`)
	titleSpanClassRegex  = regexp.MustCompile(`(?i)title|position`)
	locationClassRegex   = regexp.MustCompile(`(?i)location|city|place`)
	departmentClassRegex = regexp.MustCompile(`(?i)department|type|category`)
	levelClassRegex      = regexp.MustCompile(`(?i)level|experience|years`)
	dateClassRegex       = regexp.MustCompile(`(?i)date|posted|time`)

	cityStateRegex    = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?,\s*[A-Z]{2}\b`)
	reqIDFromURLRegex = regexp.MustCompile(`/([A-Z0-9]{8,})/job/`)
	serviceLineRegex  = regexp.MustCompile(`(?i)(?:USA\s*-\s*)?\b(Consulting|Assurance|Tax|Strategy|Advisory)\b`)
	rankRegex         = regexp.MustCompile(`(?i)\b(Staff|Senior|Manager|Director|Associate|Supervising|Principal|Partner|Executive|Intern)\b`)
)

// maxTitleLen guards against a whole container's text being taken as a title.
const maxTitleLen = 200

// Strategy extracts one field from a candidate element.
type Strategy struct {
	Name string
	Find func(card *goquery.Selection) string
}

// firstMatch runs strategies in order and returns the first non-empty result.
func firstMatch(card *goquery.Selection, strategies []Strategy) string {
	for _, s := range strategies {
		if v := strings.TrimSpace(s.Find(card)); v != "" {
			return v
		}
	}
	return ""
}

// childByClass returns the text of the first descendant matching tags whose
// class attribute matches re.
func childByClass(card *goquery.Selection, tags string, re *regexp.Regexp) string {
	el := card.Find(tags).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return re.MatchString(s.AttrOr("class", ""))
	}).First()
	if el.Length() == 0 {
		return ""
	}
	return inlineText(el)
}

// TitleStrategies are tried in order for the listing title.
var TitleStrategies = []Strategy{
	{Name: "heading", Find: func(card *goquery.Selection) string {
		return childByClass(card, "h1, h2, h3, h4", titleClassRegex)
	}},
	{Name: "title-link", Find: func(card *goquery.Selection) string {
		return childByClass(card, "a", titleLinkClassRegex)
	}},
	{Name: "self-link", Find: func(card *goquery.Selection) string {
		if goquery.NodeName(card) != "a" {
			return ""
		}
		return inlineText(card)
	}},
	{Name: "title-span", Find: func(card *goquery.Selection) string {
		return childByClass(card, "span", titleSpanClassRegex)
	}},
}

// LocationStrategies are tried in order for the primary location.
var LocationStrategies = []Strategy{
	{Name: "location-class", Find: func(card *goquery.Selection) string {
		return childByClass(card, "span, div, p", locationClassRegex)
	}},
	{Name: "city-state-text", Find: func(card *goquery.Selection) string {
		return cityStateRegex.FindString(card.Text())
	}},
}

// ListingExtractor parses listing-page HTML into summary records.
type ListingExtractor struct {
	baseURL   *url.URL
	company   string
	exclusion *filter.Exclusion
}

// NewListingExtractor creates an extractor resolving relative links against
// baseURL and stamping company on every record.
func NewListingExtractor(baseURL, company string, exclusion *filter.Exclusion) (*ListingExtractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: invalid base url %q: %w", baseURL, err)
	}
	if exclusion == nil {
		exclusion = filter.NewExclusion(nil)
	}
	return &ListingExtractor{baseURL: u, company: company, exclusion: exclusion}, nil
}

// Extract returns the summary records found in rawHTML in DOM order, with
// excluded roles already removed. Candidates that fail are skipped.
func (e *ListingExtractor) Extract(rawHTML string) ([]models.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse listing html: %w", err)
	}

	candidates := doc.Find("div, article, li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return candidateClassRegex.MatchString(s.AttrOr("class", ""))
	})
	if candidates.Length() == 0 {
		candidates = doc.Find(fallbackLinkSel)
	}

	jobs := make([]models.JobRecord, 0, candidates.Length())
	skipped := 0
	candidates.Each(func(_ int, card *goquery.Selection) {
		job, err := e.safeExtract(card)
		if err != nil {
			skipped++
			return
		}
		jobs = append(jobs, job)
	})
	if skipped > 0 && len(jobs) == 0 {
		log.Printf("⚠️ %d listing candidates produced no record", skipped)
	}

	return e.exclusion.Apply(jobs), nil
}

// safeExtract turns a panic inside one candidate into ErrExtractionSkip.
func (e *ListingExtractor) safeExtract(card *goquery.Selection) (job models.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Error extracting job data: %v", r)
			err = fmt.Errorf("%w: %v", ErrExtractionSkip, r)
		}
	}()
	return e.extractCard(card)
}

func (e *ListingExtractor) extractCard(card *goquery.Selection) (models.JobRecord, error) {
	job := models.JobRecord{Company: e.company}

	job.Title = firstMatch(card, TitleStrategies)
	if job.Title == "" || len(job.Title) > maxTitleLen {
		return job, ErrExtractionSkip
	}

	link := card
	if goquery.NodeName(card) != "a" {
		link = card.Find("a[href]").First()
	}
	if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
		job.URL = e.resolve(href)
		job.RequisitionID = RequisitionIDFromURL(href)
	}

	job.ServiceLine = ServiceLineFromTitle(job.Title)
	job.RankLevel = RankFromTitle(job.Title)
	job.PrimaryLocation = firstMatch(card, LocationStrategies)
	job.Department = childByClass(card, "span, div", departmentClassRegex)
	job.Level = childByClass(card, "span, div", levelClassRegex)
	job.PostedDate = childByClass(card, "span, div, time", dateClassRegex)

	return job, nil
}

func (e *ListingExtractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.baseURL.ResolveReference(ref).String()
}

// RequisitionIDFromURL returns the 8+ character id segment that precedes
// "/job/" in careers URLs, or "".
func RequisitionIDFromURL(href string) string {
	if m := reqIDFromURLRegex.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// ServiceLineFromTitle matches the fixed service-line vocabulary.
func ServiceLineFromTitle(title string) string {
	if m := serviceLineRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// RankFromTitle matches the fixed rank vocabulary.
func RankFromTitle(title string) string {
	if m := rankRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}
