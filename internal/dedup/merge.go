package dedup

import (
	"time"

	"go-careers-scraper/internal/models"
)

// Merge folds incoming into existing by identity key and returns a new slice.
//
// Summary fields take the incoming value when it is non-empty. Detail fields
// only fill gaps: an enriched description is never replaced or erased by a
// later scrape. ScrapedAt is set to now on every create or merge. Records in
// existing that are absent from incoming are kept as they are, and records
// without an identity key are dropped. Existing order is kept; new records are
// appended in incoming order.
func Merge(existing, incoming []models.JobRecord, now time.Time) []models.JobRecord {
	merged := make([]models.JobRecord, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, rec := range existing {
		key := rec.Key()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			//collapse duplicates that slipped into an older file
			merged[i] = mergeRecord(merged[i], rec)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}

	for _, rec := range incoming {
		key := rec.Key()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			m := mergeRecord(merged[i], rec)
			m.ScrapedAt = now
			merged[i] = m
			continue
		}
		rec.ScrapedAt = now
		index[key] = len(merged)
		merged = append(merged, rec)
	}

	return merged
}

// mergeRecord applies one incoming record on top of an existing one with the
// same key. Identity fields are never rewritten.
func mergeRecord(existing, incoming models.JobRecord) models.JobRecord {
	out := existing

	//identity: only fill the non-key half
	if out.RequisitionID == "" && out.URL == "" {
		out.RequisitionID = incoming.RequisitionID
	}
	if out.URL == "" {
		out.URL = incoming.URL
	}

	//summary: newer non-empty value wins
	overwrite(&out.Title, incoming.Title)
	overwrite(&out.Company, incoming.Company)
	overwrite(&out.ServiceLine, incoming.ServiceLine)
	overwrite(&out.SubServiceLine, incoming.SubServiceLine)
	overwrite(&out.RankLevel, incoming.RankLevel)
	overwrite(&out.PrimaryLocation, incoming.PrimaryLocation)
	overwrite(&out.Department, incoming.Department)
	overwrite(&out.Level, incoming.Level)
	overwrite(&out.PostedDate, incoming.PostedDate)

	//detail: fill missing only
	fill(&out.Description, incoming.Description)
	fill(&out.QualificationsSkills, incoming.QualificationsSkills)
	fill(&out.WorkModel, incoming.WorkModel)
	fill(&out.TravelPercentage, incoming.TravelPercentage)
	fill(&out.SecondaryLocations, incoming.SecondaryLocations)
	fill(&out.ApplicationURL, incoming.ApplicationURL)

	if incoming.ScrapedAt.After(out.ScrapedAt) {
		out.ScrapedAt = incoming.ScrapedAt
	}
	return out
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// Diff compares stored records against the records observed in the current
// scrape. added are observed keys not in the store, updated are stored records
// observed again and removed are stored records not observed. Order follows
// the input slices.
func Diff(stored, observed []models.JobRecord) (added, updated, removed []models.JobRecord) {
	observedKeys := make(map[string]struct{}, len(observed))
	for _, rec := range observed {
		if key := rec.Key(); key != "" {
			observedKeys[key] = struct{}{}
		}
	}

	storedKeys := make(map[string]struct{}, len(stored))
	for _, rec := range stored {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, dup := storedKeys[key]; dup {
			continue
		}
		storedKeys[key] = struct{}{}
		if _, ok := observedKeys[key]; ok {
			updated = append(updated, rec)
		} else {
			removed = append(removed, rec)
		}
	}

	for _, rec := range observed {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, ok := storedKeys[key]; ok {
			continue
		}
		storedKeys[key] = struct{}{}
		added = append(added, rec)
	}
	return added, updated, removed
}
