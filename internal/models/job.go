package models

import (
	"time"
)

// JobRecord is one discovered or enriched listing.
// Identity is RequisitionID when present, otherwise URL.
type JobRecord struct {
	RequisitionID string `json:"requisitionId,omitempty"`
	URL           string `json:"canonicalUrl,omitempty"`

	//summary attributes
	Title           string `json:"title,omitempty"`
	Company         string `json:"company,omitempty"`
	ServiceLine     string `json:"serviceLine,omitempty"`
	SubServiceLine  string `json:"subServiceLine,omitempty"`
	RankLevel       string `json:"rankLevel,omitempty"`
	PrimaryLocation string `json:"primaryLocation,omitempty"`
	Department      string `json:"department,omitempty"`
	Level           string `json:"level,omitempty"`
	PostedDate      string `json:"postedDate,omitempty"`

	//detail attributes, populated by enrichment only
	Description          string `json:"description,omitempty"`
	QualificationsSkills string `json:"qualificationsSkills,omitempty"`
	WorkModel            string `json:"workModel,omitempty"`
	TravelPercentage     string `json:"travelPercentage,omitempty"`
	SecondaryLocations   string `json:"secondaryLocations,omitempty"`
	ApplicationURL       string `json:"applicationUrl,omitempty"`

	ScrapedAt time.Time `json:"scrapedAt"`
}

// Key returns the identity key used for dedupe. Empty means the record
// cannot be stored.
func (j JobRecord) Key() string {
	if j.RequisitionID != "" {
		return j.RequisitionID
	}
	return j.URL
}

// HasFullDetails reports whether enrichment already filled both long-text fields.
func (j JobRecord) HasFullDetails() bool {
	return j.Description != "" && j.QualificationsSkills != ""
}
