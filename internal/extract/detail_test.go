package extract

import (
	"strings"
	"testing"

	"go-careers-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailURL = "https://careers.example.com/dallas-tx/senior-consultant/1234567BR/job/"

var detailHTML = `<html><head><title>Senior Consultant | EY</title></head><body>
<nav>Home About Contact</nav>
<main>
  <h1>Consulting - Technology Risk - Senior Consultant</h1>
  <p>Requisition ID: 1234567BR</p>
  <p>Primary Location: Dallas, TX</p>
  <p>Additional locations: Houston, TX; Austin, TX</p>
  <p>Work model: Hybrid</p>
  <p>Up to 20% travel</p>
  <p>Date posted: Jan 27, 2026</p>
  <p>` + strings.Repeat("You will help clients understand and manage technology risk across their business. ", 5) + `</p>
  <h2>Skills and attributes for success</h2>
  <ul>
    <li>Strong understanding of IT general controls and SOX</li>
    <li>Experience with cloud security frameworks</li>
  </ul>
  <h2>What we offer</h2>
  <p>Competitive pay.</p>
  <a href="/apply/1234567BR">Apply now</a>
</main>
</body></html>`

func TestParseDetail(t *testing.T) {
	d, err := ParseDetail(detailHTML, detailURL)
	require.NoError(t, err)

	assert.Equal(t, "1234567BR", d.RequisitionID)
	assert.Equal(t, "Consulting - Technology Risk - Senior Consultant", d.Title)
	assert.Equal(t, "Consulting", d.ServiceLine)
	assert.Equal(t, "Technology Risk", d.SubServiceLine)
	assert.Equal(t, "Senior", d.RankLevel)
	assert.Equal(t, "Dallas, TX", d.PrimaryLocation)
	assert.Equal(t, "Houston, TX; Austin, TX", d.SecondaryLocations)
	assert.Equal(t, "Hybrid", d.WorkModel)
	assert.Equal(t, "20%", d.TravelPercentage)
	assert.Equal(t, "Jan 27, 2026", d.PostedDate)
	assert.Equal(t, "https://careers.example.com/apply/1234567BR", d.ApplicationURL)

	assert.GreaterOrEqual(t, len(d.Description), MinDescriptionLength)
	assert.Contains(t, d.Description, "technology risk")
	assert.NotContains(t, d.Description, "Home About Contact")

	assert.Equal(t, "Strong understanding of IT general controls and SOX\nExperience with cloud security frameworks", d.QualificationsSkills)
	assert.True(t, d.HasContent())
}

func TestParseDetail_ShortDescriptionKeepsLongest(t *testing.T) {
	html := `<body><div class="content"><p>Short text that is more than thirty characters long.</p></div></body>`

	d, err := ParseDetail(html, detailURL)
	require.NoError(t, err)
	assert.Equal(t, "Short text that is more than thirty characters long.", d.Description)
}

func TestParseDetail_QualificationsFromTextPattern(t *testing.T) {
	html := `<body><div><p>To qualify for this role you must have a degree in accounting, finance or a related discipline and at least three years of relevant audit experience in a professional services firm.</p></div></body>`

	d, err := ParseDetail(html, detailURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.QualificationsSkills, "you must have a degree"), d.QualificationsSkills)
}

func TestParseDetail_FallbacksToPageURL(t *testing.T) {
	d, err := ParseDetail(`<body><h1>Tax Senior</h1></body>`, detailURL)
	require.NoError(t, err)
	assert.Equal(t, detailURL, d.ApplicationURL)
	assert.Equal(t, "1234567BR", d.RequisitionID)
	assert.False(t, d.HasContent())
}

func TestDetails_ApplyTo(t *testing.T) {
	d, err := ParseDetail(detailHTML, detailURL)
	require.NoError(t, err)

	job := models.JobRecord{
		RequisitionID: "OTHERID99",
		Title:         "Senior Consultant",
		Description:   "existing description",
	}
	got := d.ApplyTo(job)

	assert.Equal(t, "OTHERID99", got.RequisitionID)
	assert.Equal(t, "Senior Consultant", got.Title)
	assert.Equal(t, "existing description", got.Description)
	assert.Equal(t, "Hybrid", got.WorkModel)
	assert.Equal(t, "Consulting", got.ServiceLine)
	assert.NotEmpty(t, got.QualificationsSkills)
}
