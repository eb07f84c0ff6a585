// Package api serves the persisted job store read-only over HTTP.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-careers-scraper/internal/filter"
	"go-careers-scraper/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// JobSource is where the handlers read records from. *dedup.Store satisfies it.
type JobSource interface {
	Load() ([]models.JobRecord, error)
}

type Handler struct {
	source JobSource
	now    func() time.Time
}

func NewHandler(source JobSource) *Handler {
	return &Handler{source: source, now: time.Now}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	//keys may be URLs, so escaped slashes in :key must survive routing
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.GET("/", h.Health)
	r.GET("/api/jobs", h.ListJobs)
	r.GET("/api/jobs/:key", h.GetJob)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Careers scraper API is running!",
		"status":  "healthy",
	})
}

// ListJobs filters by q, serviceLine, location and postedWithinDays.
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.source.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	q := Query{
		Text:        c.Query("q"),
		ServiceLine: c.Query("serviceLine"),
		Location:    c.Query("location"),
		Limit:       defaultLimit,
	}
	if v := c.Query("postedWithinDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "postedWithinDays must be a non-negative integer"})
			return
		}
		q.PostedWithin = time.Duration(days) * 24 * time.Hour
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = min(limit, maxLimit)
	}

	matched := q.Apply(jobs, h.now())
	total := len(matched)
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"count": len(matched),
		"jobs":  matched,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	key := c.Param("key")
	jobs, err := h.source.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, job := range jobs {
		if job.Key() == key {
			c.JSON(http.StatusOK, job)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
}

// Query is a parsed /api/jobs filter.
type Query struct {
	Text         string
	ServiceLine  string
	Location     string
	PostedWithin time.Duration
	Limit        int
}

// Apply returns the jobs matching every set field, in store order.
func (q Query) Apply(jobs []models.JobRecord, now time.Time) []models.JobRecord {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	location := strings.ToLower(strings.TrimSpace(q.Location))

	out := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if text != "" && !containsFold(text, job.Title, job.Description, job.QualificationsSkills) {
			continue
		}
		if q.ServiceLine != "" && !strings.EqualFold(job.ServiceLine, strings.TrimSpace(q.ServiceLine)) {
			continue
		}
		if location != "" && !containsFold(location, job.PrimaryLocation, job.SecondaryLocations) {
			continue
		}
		if q.PostedWithin > 0 && !filter.PostedWithin(job.PostedDate, q.PostedWithin, now) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
