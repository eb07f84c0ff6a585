package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go-careers-scraper/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type staticSource struct {
	jobs []models.JobRecord
	err  error
}

func (s staticSource) Load() ([]models.JobRecord, error) { return s.jobs, s.err }

func sampleJobs() []models.JobRecord {
	return []models.JobRecord{
		{RequisitionID: "1000001BR", Title: "Tax Senior", ServiceLine: "Tax", PrimaryLocation: "Dallas, TX", PostedDate: "2026-03-08"},
		{RequisitionID: "1000002BR", Title: "Audit Manager", ServiceLine: "Assurance", PrimaryLocation: "New York, NY", PostedDate: "2026-01-02"},
		{URL: "https://x.com/a/job/", Title: "Consulting Senior", ServiceLine: "Consulting", PrimaryLocation: "Dallas, TX", Description: "Cloud tax engine"},
	}
}

func newTestRouter(source JobSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(source)
	h.now = func() time.Time { return testNow }
	return NewRouter(h)
}

type listResponse struct {
	Total int                `json:"total"`
	Count int                `json:"count"`
	Jobs  []models.JobRecord `json:"jobs"`
}

func getList(t *testing.T, r *gin.Engine, query string) (int, listResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs"+query, nil))
	var body listResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(staticSource{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestListJobs(t *testing.T) {
	r := newTestRouter(staticSource{jobs: sampleJobs()})

	tests := []struct {
		name  string
		query string
		keys  []string
	}{
		{"all", "", []string{"1000001BR", "1000002BR", "https://x.com/a/job/"}},
		{"text matches title or description", "?q=tax", []string{"1000001BR", "https://x.com/a/job/"}},
		{"service line is case-insensitive", "?serviceLine=assurance", []string{"1000002BR"}},
		{"location substring", "?location=dallas", []string{"1000001BR", "https://x.com/a/job/"}},
		{"posted within keeps unparsable dates", "?postedWithinDays=7", []string{"1000001BR", "https://x.com/a/job/"}},
		{"combined", "?location=dallas&serviceLine=Tax", []string{"1000001BR"}},
		{"limit", "?limit=1", []string{"1000001BR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := getList(t, r, tt.query)

			require.Equal(t, http.StatusOK, code)
			var keys []string
			for _, job := range body.Jobs {
				keys = append(keys, job.Key())
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestListJobs_LimitKeepsTotal(t *testing.T) {
	_, body := getList(t, newTestRouter(staticSource{jobs: sampleJobs()}), "?limit=2")

	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 2, body.Count)
}

func TestListJobs_BadParams(t *testing.T) {
	r := newTestRouter(staticSource{jobs: sampleJobs()})

	for _, q := range []string{"?limit=0", "?limit=abc", "?postedWithinDays=-1", "?postedWithinDays=x"} {
		code, _ := getList(t, r, q)
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
}

func TestListJobs_StoreError(t *testing.T) {
	code, _ := getList(t, newTestRouter(staticSource{err: errors.New("malformed")}), "")

	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestGetJob(t *testing.T) {
	r := newTestRouter(staticSource{jobs: sampleJobs()})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"requisition id", "/api/jobs/1000002BR", http.StatusOK},
		{"escaped url key", "/api/jobs/" + url.PathEscape("https://x.com/a/job/"), http.StatusOK},
		{"unknown", "/api/jobs/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, w.Code)
		})
	}
}
