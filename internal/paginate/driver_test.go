package paginate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/filter"
	"go-careers-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage renders a comma-separated list of "key:title" pairs chosen by
// render from the number of clicks and scrolls performed so far.
type fakePage struct {
	moreVisible func(clicks int) bool
	clickErr    error
	render      func(clicks, scrolls int) string

	clicks  int
	scrolls int
}

func (p *fakePage) FindMore(ctx context.Context) (MoreControl, bool, error) {
	if p.moreVisible != nil && p.moreVisible(p.clicks) {
		return MoreControl{Selector: "button.more", Text: "Load more"}, true, nil
	}
	return MoreControl{}, false, nil
}

func (p *fakePage) ClickMore(ctx context.Context, ctrl MoreControl) error {
	if p.clickErr != nil {
		return p.clickErr
	}
	p.clicks++
	return nil
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	p.scrolls++
	return nil
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	return p.render(p.clicks, p.scrolls), nil
}

// pairExtractor parses the fake page format.
type pairExtractor struct {
	exclusion *filter.Exclusion
}

func (e pairExtractor) Extract(html string) ([]models.JobRecord, error) {
	var jobs []models.JobRecord
	for _, pair := range strings.Split(html, ",") {
		if pair == "" {
			continue
		}
		key, title, _ := strings.Cut(pair, ":")
		jobs = append(jobs, models.JobRecord{RequisitionID: key, Title: title})
	}
	if e.exclusion != nil {
		jobs = e.exclusion.Apply(jobs)
	}
	return jobs, nil
}

func fastOptions() Options {
	return Options{}
}

type sinkRecorder struct {
	calls   int
	records []models.JobRecord
}

func (s *sinkRecorder) sink(ctx context.Context, fresh []models.JobRecord) error {
	s.calls++
	s.records = append(s.records, fresh...)
	return nil
}

func TestDriver_TerminatesWhenMoreNeverYieldsNewRecords(t *testing.T) {
	page := &fakePage{
		moreVisible: func(int) bool { return true },
		render:      func(int, int) string { return "A1:Senior,B2:Manager" },
	}
	rec := &sinkRecorder{}

	res, err := NewDriver(page, pairExtractor{}, dedup.NewSeenSet(), rec.sink, fastOptions()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 5, res.Scrolls)
	assert.Equal(t, 10+5, res.Clicks)
	assert.Len(t, res.Observed, 2)
	assert.Len(t, res.New, 2)
	assert.Equal(t, 1, rec.calls)
}

func TestDriver_ClicksUntilControlDisappears(t *testing.T) {
	page := &fakePage{
		moreVisible: func(clicks int) bool { return clicks < 3 },
		render: func(clicks, _ int) string {
			var pairs []string
			for i := 0; i <= clicks; i++ {
				pairs = append(pairs, fmt.Sprintf("J%d:Senior %d", i, i))
			}
			return strings.Join(pairs, ",")
		},
	}
	rec := &sinkRecorder{}

	res, err := NewDriver(page, pairExtractor{}, nil, rec.sink, fastOptions()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, res.Clicks)
	assert.Equal(t, 5, res.Scrolls)
	assert.Equal(t, []string{"J0", "J1", "J2", "J3"}, dedup.Keys(res.New))
	assert.Equal(t, 4, rec.calls)
	assert.Len(t, rec.records, 4)
}

func TestDriver_ScrollingFindsLazyRecords(t *testing.T) {
	page := &fakePage{
		render: func(_, scrolls int) string {
			if scrolls >= 2 {
				return "A1:Senior,B2:Manager"
			}
			return "A1:Senior"
		},
	}

	res, err := NewDriver(page, pairExtractor{}, nil, nil, fastOptions()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, res.Clicks)
	//B2 appears on scroll 2, then five dry scrolls
	assert.Equal(t, 7, res.Scrolls)
	assert.Equal(t, []string{"A1", "B2"}, dedup.Keys(res.New))
}

func TestDriver_HardCaps(t *testing.T) {
	page := &fakePage{
		moreVisible: func(int) bool { return true },
		render: func(clicks, scrolls int) string {
			return fmt.Sprintf("C%d:Senior,S%d:Manager", clicks, scrolls)
		},
	}
	opts := Options{MaxClicks: 4, MaxScrolls: 3}

	res, err := NewDriver(page, pairExtractor{}, nil, nil, opts).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 4, res.Clicks)
	assert.Equal(t, 3, res.Scrolls)
}

func TestDriver_SeenKeysAreNotNew(t *testing.T) {
	page := &fakePage{render: func(int, int) string { return "A1:Senior,B2:Manager" }}
	seen := dedup.NewSeenSet("A1")

	res, err := NewDriver(page, pairExtractor{}, seen, nil, fastOptions()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, dedup.Keys(res.Observed))
	assert.Equal(t, []string{"B2"}, dedup.Keys(res.New))
	assert.True(t, seen.Has("B2"))
}

func TestDriver_ClickFailureMovesToScrolling(t *testing.T) {
	page := &fakePage{
		moreVisible: func(int) bool { return true },
		clickErr:    errors.New("element detached"),
		render:      func(int, int) string { return "A1:Senior" },
	}

	res, err := NewDriver(page, pairExtractor{}, nil, nil, fastOptions()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, res.Clicks)
	assert.Equal(t, 5, res.Scrolls)
	assert.Equal(t, StateDone, res.State)
}

func TestDriver_CancelledContext(t *testing.T) {
	page := &fakePage{render: func(int, int) string { return "A1:Senior" }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewDriver(page, pairExtractor{}, nil, nil, fastOptions()).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.NotEqual(t, StateDone, res.State)
}

func TestDriver_PersistsFilteredDedupedRecords(t *testing.T) {
	page := &fakePage{
		render: func(int, int) string {
			return "A1:Senior Consultant,A1:Senior Consultant Dallas,B2:Intern - Tax"
		},
	}
	store := dedup.NewStore(filepath.Join(t.TempDir(), "jobs.json"))
	sink := func(ctx context.Context, fresh []models.JobRecord) error {
		_, err := store.Upsert(fresh)
		return err
	}
	extractor := pairExtractor{exclusion: filter.NewExclusion(nil)}

	res, err := NewDriver(page, extractor, nil, sink, fastOptions()).Run(context.Background())
	require.NoError(t, err)

	stored, err := store.Load()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "A1", stored[0].RequisitionID)
	assert.Equal(t, "Senior Consultant Dallas", stored[0].Title)
	assert.Equal(t, stored[0].Title, res.Observed[0].Title)
}

func TestIsMoreText(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"Load More", true},
		{"  show   more ", true},
		{"More", true},
		{"See more jobs", true},
		{"", false},
		{"Apply now", false},
		{"Learn more about our culture and values here", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsMoreText(tt.text))
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{MaxClicks: 7}.withDefaults()
	assert.Equal(t, 7, o.MaxClicks)
	assert.Equal(t, 500, o.MaxScrolls)
	assert.Equal(t, 10, o.ClickStallLimit)
	assert.Equal(t, 5, o.ScrollStallLimit)
	assert.Zero(t, o.ClickSettle)
}
