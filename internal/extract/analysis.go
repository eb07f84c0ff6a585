package extract

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minRepeat       = 3
	maxRepeat       = 100
	maxRepeated     = 10
	maxContainers   = 3
	linkHrefPreview = 100
	linkTextPreview = 50
)

var jobLinkHrefRegex = regexp.MustCompile(`(?i)/job|/position|/career|/search|/req`)

// RepeatedStructure is a class name that occurs often enough to be a listing
// card.
type RepeatedStructure struct {
	Selector   string `json:"selector"`
	Count      int    `json:"count"`
	Suggestion string `json:"suggestion"`
}

// JobLink is an anchor that looks like it could point at a job.
type JobLink struct {
	Href        string `json:"href"`
	Text        string `json:"text"`
	ParentClass string `json:"parentClass"`
}

// Suggestion is a selector worth trying when re-tuning the extractor.
type Suggestion struct {
	Priority    string `json:"priority"`
	Selector    string `json:"selector"`
	Description string `json:"description"`
}

// PageAnalysis is the diagnostic report written when a listing page yields
// no records. It is meant for a human, not a stable format.
type PageAnalysis struct {
	URL                string              `json:"url,omitempty"`
	RepeatedStructures []RepeatedStructure `json:"repeatedStructures"`
	PotentialJobLinks  []JobLink           `json:"potentialJobLinks"`
	DataAttributes     []string            `json:"dataAttributes"`
	ContentContainers  []string            `json:"contentContainers"`
	Suggestions        []Suggestion        `json:"suggestions"`
}

// AnalyzePageStructure inspects a listing page for likely job cards, links
// and containers.
func AnalyzePageStructure(rawHTML string) (*PageAnalysis, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html for analysis: %w", err)
	}

	a := &PageAnalysis{
		RepeatedStructures: []RepeatedStructure{},
		PotentialJobLinks:  []JobLink{},
		DataAttributes:     []string{},
		ContentContainers:  []string{},
		Suggestions:        []Suggestion{},
	}

	//1. repeated class names
	freq := map[string]int{}
	doc.Find("div, article, li, section").Each(func(_ int, s *goquery.Selection) {
		for _, cls := range strings.Fields(s.AttrOr("class", "")) {
			freq[cls]++
		}
	})
	type classCount struct {
		name  string
		count int
	}
	var repeated []classCount
	for cls, n := range freq {
		if n >= minRepeat && n <= maxRepeat {
			repeated = append(repeated, classCount{cls, n})
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		if repeated[i].count != repeated[j].count {
			return repeated[i].count > repeated[j].count
		}
		return repeated[i].name < repeated[j].name
	})
	if len(repeated) > maxRepeated {
		repeated = repeated[:maxRepeated]
	}
	for _, rc := range repeated {
		a.RepeatedStructures = append(a.RepeatedStructures, RepeatedStructure{
			Selector:   "." + rc.name,
			Count:      rc.count,
			Suggestion: fmt.Sprintf("Try: doc.Find(%q)", "."+rc.name),
		})
	}

	//2. anchors that look like job links
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		text := inlineText(s)
		n := len([]rune(text))
		if !jobLinkHrefRegex.MatchString(href) && (n <= 10 || n >= 100) {
			return
		}
		parent := strings.TrimSpace(s.Parent().AttrOr("class", ""))
		if parent == "" {
			parent = "none"
		}
		a.PotentialJobLinks = append(a.PotentialJobLinks, JobLink{
			Href:        truncateRunes(href, linkHrefPreview),
			Text:        truncateRunes(text, linkTextPreview),
			ParentClass: parent,
		})
	})

	//3. data attributes on job-ish elements
	seen := map[string]bool{}
	doc.Find("[data-job-id], [data-id], [data-position], [data-job]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(attr.Key, "data-") && !seen[attr.Key] {
				seen[attr.Key] = true
				a.DataAttributes = append(a.DataAttributes, attr.Key)
			}
		}
	})

	//4. main containers
	doc.Find(`main, [role="main"], #content, .content, .container, .results`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxContainers {
			return false
		}
		desc := goquery.NodeName(s)
		if id := s.AttrOr("id", ""); id != "" {
			desc += "#" + id
		}
		if cls := strings.Fields(s.AttrOr("class", "")); len(cls) > 0 {
			desc += "." + cls[0]
		}
		a.ContentContainers = append(a.ContentContainers, desc)
		return true
	})

	//5. suggestions
	if len(repeated) > 0 {
		a.Suggestions = append(a.Suggestions, Suggestion{
			Priority:    "HIGH",
			Selector:    "." + repeated[0].name,
			Description: fmt.Sprintf("Most repeated class (%d occurrences)", repeated[0].count),
		})
	}
	if len(a.PotentialJobLinks) > 0 {
		if parent := a.PotentialJobLinks[0].ParentClass; parent != "none" {
			a.Suggestions = append(a.Suggestions, Suggestion{
				Priority:    "MEDIUM",
				Selector:    "." + strings.Fields(parent)[0] + ` a[href*="/job"]`,
				Description: "Parent container of job links",
			})
		}
	}

	return a, nil
}

// WriteAnalysis saves the report as indented JSON.
func WriteAnalysis(path string, a *PageAnalysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("extract: encode analysis: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("extract: create analysis dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("extract: write analysis: %w", err)
	}
	log.Printf("🔎 Page structure analysis saved to %s (%d repeated classes, %d candidate links)",
		path, len(a.RepeatedStructures), len(a.PotentialJobLinks))
	return nil
}
