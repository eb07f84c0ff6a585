// Package scraper binds the pagination driver to a live careers site.
package scraper

import (
	"context"

	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/paginate"
)

// Discovery is the outcome of walking one listing page.
type Discovery struct {
	paginate.Result
	// FinalHTML is the listing page as last rendered. It feeds the page
	// structure analysis when nothing was found.
	FinalHTML string
}

// Scraper defines the interface that careers-site scrapers implement.
type Scraper interface {
	// Discover walks the listing at startURL. Keys already in seen are not
	// reported as new; records first seen in an iteration go to sink.
	Discover(ctx context.Context, startURL string, seen *dedup.SeenSet, sink paginate.Sink) (*Discovery, error)

	//Name is the site name used in logs
	Name() string
}
