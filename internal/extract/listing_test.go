package extract

import (
	"strings"
	"testing"

	"go-careers-scraper/internal/filter"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body>
<ul>
  <li class="job-tile">
    <a class="job-title-link" href="/dallas-tx/senior-consultant/A1B2C3D4E5/job/">Senior Consultant - Consulting</a>
    <span class="job-location">Dallas, TX</span>
    <span class="job-date">Posted 3 days ago</span>
  </li>
  <li class="job-tile">
    <h3 class="title">Intern - Tax</h3>
    <a href="/chicago-il/intern-tax/ZZZZ1111/job/">details</a>
  </li>
  <li class="job-tile">
    <h3 class="job-heading">Manager - Assurance</h3>
    <a href="https://careers.example.com/new-york-ny/manager/Q9W8E7R6/job/">details</a>
    <p>New York, NY</p>
  </li>
  <li class="job-tile"><span>No title here</span></li>
</ul>
</body></html>`

func newTestExtractor(t *testing.T) *ListingExtractor {
	ex, err := NewListingExtractor("https://careers.example.com/search/", "EY", filter.NewExclusion(nil))
	require.NoError(t, err)
	return ex
}

func TestListingExtractor_Extract(t *testing.T) {
	jobs, err := newTestExtractor(t).Extract(listingHTML)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "Senior Consultant - Consulting", first.Title)
	assert.Equal(t, "https://careers.example.com/dallas-tx/senior-consultant/A1B2C3D4E5/job/", first.URL)
	assert.Equal(t, "A1B2C3D4E5", first.RequisitionID)
	assert.Equal(t, "Consulting", first.ServiceLine)
	assert.Equal(t, "Senior", first.RankLevel)
	assert.Equal(t, "Dallas, TX", first.PrimaryLocation)
	assert.Equal(t, "Posted 3 days ago", first.PostedDate)
	assert.Equal(t, "EY", first.Company)

	second := jobs[1]
	assert.Equal(t, "Manager - Assurance", second.Title)
	assert.Equal(t, "Q9W8E7R6", second.RequisitionID)
	assert.Equal(t, "Assurance", second.ServiceLine)
	assert.Equal(t, "Manager", second.RankLevel)
	assert.Equal(t, "New York, NY", second.PrimaryLocation)
}

func TestListingExtractor_FallbackLinks(t *testing.T) {
	html := `<div>
		<a href="/position/ABCDEFGH/job/">Risk Advisory Senior</a>
		<a href="/about">About us</a>
	</div>`

	jobs, err := newTestExtractor(t).Extract(html)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Risk Advisory Senior", jobs[0].Title)
	assert.Equal(t, "ABCDEFGH", jobs[0].RequisitionID)
	assert.Equal(t, "Advisory", jobs[0].ServiceLine)
	assert.Equal(t, "https://careers.example.com/position/ABCDEFGH/job/", jobs[0].URL)
}

func TestListingExtractor_ExcludesInternship(t *testing.T) {
	html := `<div class="job-card"><h2 class="job-title">Summer Internship - Finance</h2><a href="/x/ABCDEFGH/job/">go</a></div>`

	jobs, err := newTestExtractor(t).Extract(html)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestListingExtractor_ExcludesPluralMarkers(t *testing.T) {
	html := `<ul>
<li class="job-card"><h2 class="job-title">Tax Interns 2026</h2><a href="/x/AAAA0001/job/">go</a></li>
<li class="job-card"><h2 class="job-title">Assurance Apprenticeship Program</h2><a href="/x/AAAA0002/job/">go</a></li>
<li class="job-card"><h2 class="job-title">Students - Consulting</h2><a href="/x/AAAA0003/job/">go</a></li>
<li class="job-card"><h2 class="job-title">Graduate Trainees, Advisory</h2><a href="/x/AAAA0004/job/">go</a></li>
<li class="job-card"><h2 class="job-title">Co-ops Summer Tax</h2><a href="/x/AAAA0005/job/">go</a></li>
<li class="job-card"><h2 class="job-title">Assurance Staff</h2><a href="/job/Dallas-Interns-TX/123ABCDEFG/">go</a></li>
<li class="job-card"><h2 class="job-title">International Tax Manager</h2><a href="/x/AAAA0007/job/">go</a></li>
</ul>`

	jobs, err := newTestExtractor(t).Extract(html)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "International Tax Manager", jobs[0].Title)
}

func TestListingExtractor_EmptyPage(t *testing.T) {
	jobs, err := newTestExtractor(t).Extract(`<html><body><p>Nothing to see</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestTitleStrategies(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="card"><span class="position-title">Tax Manager</span></div>`))
	require.NoError(t, err)
	card := doc.Find("#card")

	byName := map[string]string{}
	for _, s := range TitleStrategies {
		byName[s.Name] = s.Find(card)
	}
	assert.Equal(t, "", byName["heading"])
	assert.Equal(t, "", byName["self-link"])
	assert.Equal(t, "Tax Manager", byName["title-span"])
	assert.Equal(t, "Tax Manager", firstMatch(card, TitleStrategies))
}

func TestDerivations(t *testing.T) {
	assert.Equal(t, "A1B2C3D4", RequisitionIDFromURL("https://x.com/a/A1B2C3D4/job/"))
	assert.Equal(t, "", RequisitionIDFromURL("https://x.com/a/short/job/"))
	assert.Equal(t, "Tax", ServiceLineFromTitle("USA - Tax - Senior"))
	assert.Equal(t, "", ServiceLineFromTitle("Software Engineer"))
	assert.Equal(t, "Director", RankFromTitle("Director, Strategy"))
	assert.Equal(t, "", RankFromTitle("Seniority Analyst"))
}
