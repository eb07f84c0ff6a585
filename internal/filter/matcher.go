package filter

import (
	"log"
	"regexp"

	"go-careers-scraper/internal/models"
)

// Exclusion drops junior and entry-level listings. This is a business rule
// and runs on extractor output before anything reaches the store.
type Exclusion struct {
	textRegex *regexp.Regexp
	urlRegex  *regexp.Regexp
}

// NewExclusion builds the filter from the default markers plus extra.
func NewExclusion(extra []string) *Exclusion {
	keywords := make([]string, 0, len(DefaultExcludeKeywords)+len(extra))
	keywords = append(keywords, DefaultExcludeKeywords...)
	keywords = append(keywords, extra...)
	return &Exclusion{
		textRegex: keywordRegex(keywords),
		urlRegex:  keywordRegex(urlExcludeKeywords),
	}
}

// IsExcluded reports whether the title, department or URL carries a marker.
func (e *Exclusion) IsExcluded(job models.JobRecord) bool {
	if e.textRegex != nil {
		if e.textRegex.MatchString(normalizeText(job.Title)) {
			return true
		}
		if e.textRegex.MatchString(normalizeText(job.Department)) {
			return true
		}
	}
	if e.urlRegex != nil && e.urlRegex.MatchString(normalizeText(job.URL)) {
		return true
	}
	return false
}

// Apply returns the records that pass the filter, preserving order.
func (e *Exclusion) Apply(jobs []models.JobRecord) []models.JobRecord {
	kept := make([]models.JobRecord, 0, len(jobs))
	filtered := 0
	for _, job := range jobs {
		if e.IsExcluded(job) {
			filtered++
			continue
		}
		kept = append(kept, job)
	}
	if filtered > 0 {
		log.Printf("🚫 Filtered out %d entry-level/internship roles", filtered)
	}
	return kept
}
