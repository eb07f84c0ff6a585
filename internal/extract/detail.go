package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go-careers-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// MinDescriptionLength is the length a description strategy must reach to be
// accepted outright.
const MinDescriptionLength = 300

const (
	maxBodyDescription = 20000
	minQualifications  = 50
	maxQualLines       = 20
)

var (
	detailReqIDLabelRegex = regexp.MustCompile(`(?i:requisition\s*(?:id|#)?\s*:?)\s*(\d+[A-Z]{2})\b`)
	detailReqIDBareRegex  = regexp.MustCompile(`\b(\d{6,}[A-Z]{2})\b`)

	labeledServiceLineRegex = regexp.MustCompile(`(?i)(?:service\s*line|department)[\s:]+(consulting|assurance|tax|strategy|advisory)\b`)
	labeledSubServiceRegex  = regexp.MustCompile(`(?i)\b(?:sub-?service\s*line|team|practice)\s*:\s*([^.\n]{3,50})`)
	titleSubServiceRegex    = regexp.MustCompile(`(?i)-\s*([^-]+?)\s*-\s*(?:Staff|Senior|Manager|Director|Associate)\b`)
	labeledLocationRegex    = regexp.MustCompile(`(?i:primary\s*location|location)[\s:]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?,\s*[A-Z]{2})\b`)
	secondaryLocationRegex  = regexp.MustCompile(`(?i)(?:secondary\s*locations?|additional\s*locations?|multiple\s*locations?)[\s:]+([^.\n]{10,200})`)
	labeledWorkModelRegex   = regexp.MustCompile(`(?i)(?:work\s*model|work\s*arrangement|work\s*type)[\s:]+(remote|hybrid|on-?site|on\s*site|in-?person)\b`)
	bareWorkModelRegex      = regexp.MustCompile(`(?i)\b(remote|hybrid|on-?site|on\s*site|in-?person)\b`)
	travelBeforeRegex       = regexp.MustCompile(`(?i)\b(\d+)\s*%?\s*travel`)
	travelAfterRegex        = regexp.MustCompile(`(?i)travel[\s:]+(\d+)\s*%`)
	labeledPostedRegex      = regexp.MustCompile(`(?i)(?:date\s*posted|posted\s*date|posted)[\s:]+([^.\n]{5,30})`)

	boilerplateLineRegex = regexp.MustCompile(`(?i)^(home|about|contact|privacy|cookie|menu|navigation)`)
	shortCapsLineRegex   = regexp.MustCompile(`^[A-Z\s]{1,3}$`)

	qualHeadingKeywords = []string{"qualification", "requirement", "skill", "to qualify", "what we look for", "skills and attributes"}
	qualLineKeywords    = []string{"qualify", "requirement", "skill", "experience", "degree", "certification"}
	qualLineAnchors     = []string{"qualify", "requirement", "must have"}
)

// Details is everything ParseDetail could read off one detail page. Empty
// strings mean "not found".
type Details struct {
	RequisitionID        string
	Title                string
	ApplicationURL       string
	ServiceLine          string
	SubServiceLine       string
	RankLevel            string
	PrimaryLocation      string
	SecondaryLocations   string
	WorkModel            string
	TravelPercentage     string
	Description          string
	PostedDate           string
	QualificationsSkills string
}

// HasContent reports whether the page yielded a description or
// qualifications, the fields enrichment exists for.
func (d Details) HasContent() bool {
	return d.Description != "" || d.QualificationsSkills != ""
}

// ApplyTo returns job with detail fields filled from d. Identity is never
// touched, detail fields already present on job win, and summary fields are
// only filled where job has none.
func (d Details) ApplyTo(job models.JobRecord) models.JobRecord {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
		}
	}
	fill(&job.Title, d.Title)
	fill(&job.ServiceLine, d.ServiceLine)
	fill(&job.SubServiceLine, d.SubServiceLine)
	fill(&job.RankLevel, d.RankLevel)
	fill(&job.PrimaryLocation, d.PrimaryLocation)
	fill(&job.PostedDate, d.PostedDate)

	fill(&job.Description, d.Description)
	fill(&job.QualificationsSkills, d.QualificationsSkills)
	fill(&job.WorkModel, d.WorkModel)
	fill(&job.TravelPercentage, d.TravelPercentage)
	fill(&job.SecondaryLocations, d.SecondaryLocations)
	fill(&job.ApplicationURL, d.ApplicationURL)
	return job
}

// detailPage is the parsed state shared by detail strategies.
type detailPage struct {
	doc         *goquery.Document
	text        string
	pageURL     string
	description string
}

// DetailStrategy extracts one long-form field from a detail page.
type DetailStrategy struct {
	Name string
	Find func(p *detailPage) string
}

// DescriptionStrategies run in order; the first result of at least
// MinDescriptionLength characters wins, otherwise the longest result is used.
var DescriptionStrategies = []DetailStrategy{
	{Name: "main-content", Find: descriptionFromMain},
	{Name: "selectors", Find: descriptionFromSelectors},
	{Name: "paragraphs", Find: descriptionFromParagraphs},
	{Name: "body-lines", Find: descriptionFromBody},
}

// QualificationStrategies run in order; the first result longer than 50
// characters wins.
var QualificationStrategies = []DetailStrategy{
	{Name: "headings", Find: qualificationsFromHeadings},
	{Name: "selectors", Find: qualificationsFromSelectors},
	{Name: "text-patterns", Find: qualificationsFromPatterns},
	{Name: "description-lines", Find: qualificationsFromDescription},
}

// ParseDetail extracts structured fields from a rendered detail page.
func ParseDetail(rawHTML, pageURL string) (Details, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Details{}, fmt.Errorf("extract: parse detail html %s: %w", pageURL, err)
	}
	p := &detailPage{doc: doc, text: blockText(doc.Find("body")), pageURL: pageURL}

	var d Details
	d.RequisitionID = detailRequisitionID(p.text, pageURL)
	d.Title = detailTitle(doc)
	d.ApplicationURL = applicationURL(doc, pageURL)

	d.ServiceLine = submatch(labeledServiceLineRegex, p.text)
	if d.ServiceLine == "" {
		d.ServiceLine = ServiceLineFromTitle(d.Title)
	}
	d.SubServiceLine = submatch(labeledSubServiceRegex, p.text)
	if d.SubServiceLine == "" {
		d.SubServiceLine = submatch(titleSubServiceRegex, d.Title)
	}
	d.RankLevel = RankFromTitle(d.Title)
	if d.RankLevel == "" {
		d.RankLevel = RankFromTitle(p.text)
	}
	d.PrimaryLocation = submatch(labeledLocationRegex, p.text)
	if d.PrimaryLocation == "" {
		d.PrimaryLocation = cityStateRegex.FindString(p.text)
	}
	d.SecondaryLocations = submatch(secondaryLocationRegex, p.text)
	d.WorkModel = submatch(labeledWorkModelRegex, p.text)
	if d.WorkModel == "" {
		d.WorkModel = submatch(bareWorkModelRegex, p.text)
	}
	if n := submatch(travelBeforeRegex, p.text); n != "" {
		d.TravelPercentage = n + "%"
	} else if n := submatch(travelAfterRegex, p.text); n != "" {
		d.TravelPercentage = n + "%"
	}
	d.PostedDate = submatch(labeledPostedRegex, p.text)
	if d.PostedDate == "" {
		d.PostedDate = inlineText(doc.Find(`[class*="date"], [class*="posted"], time`).First())
	}

	d.Description = pickDescription(p)
	p.description = d.Description
	d.QualificationsSkills = pickQualifications(p)

	return d, nil
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func detailRequisitionID(text, pageURL string) string {
	if id := submatch(detailReqIDLabelRegex, text); id != "" {
		return id
	}
	if id := submatch(detailReqIDBareRegex, text); id != "" {
		return id
	}
	return RequisitionIDFromURL(pageURL)
}

func detailTitle(doc *goquery.Document) string {
	for _, sel := range []string{"h1", `[class*="title"]`, "title"} {
		if t := inlineText(doc.Find(sel).First()); t != "" {
			return t
		}
	}
	return ""
}

func applicationURL(doc *goquery.Document, pageURL string) string {
	link := doc.Find(`a[href*="apply"]`).First()
	if link.Length() == 0 {
		link = doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), "Apply")
		}).First()
	}
	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func pickDescription(p *detailPage) string {
	longest := ""
	for _, s := range DescriptionStrategies {
		v := strings.TrimSpace(s.Find(p))
		if utf8.RuneCountInString(v) >= MinDescriptionLength {
			return v
		}
		if utf8.RuneCountInString(v) > utf8.RuneCountInString(longest) {
			longest = v
		}
	}
	return longest
}

func pickQualifications(p *detailPage) string {
	for _, s := range QualificationStrategies {
		if v := strings.TrimSpace(s.Find(p)); utf8.RuneCountInString(v) > minQualifications {
			return v
		}
	}
	return ""
}

func descriptionFromMain(p *detailPage) string {
	main := p.doc.Find(`main, article, [role="main"]`).First()
	if main.Length() == 0 {
		return ""
	}
	content := main.Clone()
	content.Find("nav, header, footer, script, style, .nav, .header, .footer").Remove()
	return blockText(content)
}

var descriptionSelectors = []string{
	`[class*="description"]`,
	`[class*="job-description"]`,
	`[class*="details"]`,
	`[class*="content"]`,
	`[id*="description"]`,
	`[id*="job-details"]`,
	".job-content",
	".job-details",
	"[data-job-description]",
}

func descriptionFromSelectors(p *detailPage) string {
	for _, sel := range descriptionSelectors {
		el := p.doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := blockText(el); utf8.RuneCountInString(text) > MinDescriptionLength {
			return text
		}
	}
	return ""
}

func descriptionFromParagraphs(p *detailPage) string {
	var paragraphs []string
	p.doc.Find(`main p, article p, [class*="description"] p, [class*="content"] p`).Each(func(_ int, s *goquery.Selection) {
		if text := inlineText(s); utf8.RuneCountInString(text) > 30 {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

func descriptionFromBody(p *detailPage) string {
	var kept []string
	for _, line := range strings.Split(p.text, "\n") {
		if utf8.RuneCountInString(line) <= 50 {
			continue
		}
		if boilerplateLineRegex.MatchString(line) || shortCapsLineRegex.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return truncateRunes(strings.Join(kept, "\n"), maxBodyDescription)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

const headingSel = "h1, h2, h3, h4, h5, h6"

func qualificationsFromHeadings(p *detailPage) string {
	found := ""
	p.doc.Find(headingSel).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !containsAny(strings.ToLower(h.Text()), qualHeadingKeywords) {
			return true
		}
		var lines []string
		h.NextUntil(headingSel).Each(func(_ int, el *goquery.Selection) {
			if text := blockText(el); utf8.RuneCountInString(text) > 10 {
				lines = append(lines, text)
			}
		})
		section := strings.TrimSpace(strings.Join(lines, "\n"))
		if utf8.RuneCountInString(section) > minQualifications {
			found = section
			return false
		}
		return true
	})
	return found
}

var qualificationSelectors = []string{
	`[class*="qualification"]`,
	`[class*="requirement"]`,
	`[class*="skill"]`,
	`[class*="competency"]`,
	`[id*="qualification"]`,
	`[id*="requirement"]`,
	`[id*="skill"]`,
}

func qualificationsFromSelectors(p *detailPage) string {
	for _, sel := range qualificationSelectors {
		el := p.doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		var text string
		if items := el.Find("li"); items.Length() > 0 {
			text = strings.Join(items.Map(func(_ int, li *goquery.Selection) string {
				return inlineText(li)
			}), "\n")
		} else {
			text = blockText(el)
		}
		if utf8.RuneCountInString(text) > minQualifications {
			return text
		}
	}
	return ""
}

// qualPattern locates a qualifications block by a label. The block runs from
// the end of the label (or its start when includeLabel is set) for at most
// maxLen characters and must be at least minLen long.
type qualPattern struct {
	label        *regexp.Regexp
	includeLabel bool
	minLen       int
	maxLen       int
}

var qualPatterns = []qualPattern{
	{label: regexp.MustCompile(`(?i)(?:to\s*qualify\s*for\s*this\s*role|skills?\s*and\s*attributes\s*for\s*success|requirements?)[\s:]+`), minLen: 100, maxLen: 5000},
	{label: regexp.MustCompile(`(?i)(?:ideally|preferred|required|must\s*have)`), includeLabel: true, minLen: 50, maxLen: 3000},
	{label: regexp.MustCompile(`(?i)(?:qualifications?|requirements?)[\s:]+`), minLen: 100, maxLen: 3000},
}

func qualificationsFromPatterns(p *detailPage) string {
	for _, qp := range qualPatterns {
		loc := qp.label.FindStringIndex(p.text)
		if loc == nil {
			continue
		}
		start := loc[1]
		if qp.includeLabel {
			start = loc[0]
		}
		block := []rune(p.text[start:])
		if len(block) < qp.minLen {
			continue
		}
		if len(block) > qp.maxLen {
			block = block[:qp.maxLen]
		}
		if text := strings.TrimSpace(string(block)); utf8.RuneCountInString(text) > minQualifications {
			return text
		}
	}
	return ""
}

func qualificationsFromDescription(p *detailPage) string {
	if p.description == "" {
		return ""
	}
	lines := strings.Split(p.description, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		if containsAny(lower, qualLineKeywords) && containsAny(lower, qualLineAnchors) {
			end := min(i+maxQualLines, len(lines))
			return strings.TrimSpace(strings.Join(lines[i:end], "\n"))
		}
	}
	return ""
}
