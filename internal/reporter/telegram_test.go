package reporter

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSummary(t *testing.T) {
	s := Summary{
		Company:       "EY",
		StartURL:      "https://ey.jobs/jobs/",
		Observed:      12,
		Stored:        40,
		Enriched:      3,
		Failed:        1,
		Duration:      95 * time.Second,
		NewTitles:     []string{"Tax Senior", "R&D <Manager>"},
		RemovedTitles: []string{"Audit Staff"},
		Removed:       1,
	}

	text := FormatSummary(s)

	assert.Contains(t, text, "<b>EY</b>")
	assert.Contains(t, text, "📦 Observed: 12 | Stored: 40")
	assert.Contains(t, text, "🆕 New: 2")
	assert.Contains(t, text, "R&amp;D &lt;Manager&gt;")
	assert.Contains(t, text, "🗑 Removed: 1 (retained)")
	assert.Contains(t, text, "3 enriched, 1 failed")
	assert.Contains(t, text, "1m35s")
}

func TestFormatSummary_CapsTitles(t *testing.T) {
	titles := make([]string, 13)
	for i := range titles {
		titles[i] = fmt.Sprintf("Job %d", i)
	}

	text := FormatSummary(Summary{NewTitles: titles, Pruned: true})

	assert.Contains(t, text, "Job 9")
	assert.NotContains(t, text, "Job 10")
	assert.Contains(t, text, "and 3 more")
	assert.Contains(t, text, "(pruned)")
}

func TestFormatSummary_NoResults(t *testing.T) {
	text := FormatSummary(Summary{Company: "EY", AnalysisPath: "page_analysis.json"})

	assert.Contains(t, text, "No jobs found")
	assert.Contains(t, text, "page_analysis.json")
	assert.NotContains(t, text, "Observed")
}

//fake Bot API that records sendMessage bodies
func newFakeBotAPI(t *testing.T) (*httptest.Server, *[]string) {
	var mu sync.Mutex
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"scraper","username":"scraper_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, r.FormValue("text"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestTelegramReporter_Send(t *testing.T) {
	srv, sent := newFakeBotAPI(t)

	rep, err := NewTelegramReporterWithEndpoint("token", 42, srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	require.NoError(t, rep.SendSummary(Summary{Company: "EY", Observed: 1}))
	require.NoError(t, rep.SendError(errors.New("store <broken>")))

	require.Len(t, *sent, 2)
	assert.Contains(t, (*sent)[0], "Observed: 1")
	assert.Contains(t, (*sent)[1], "store &lt;broken&gt;")
}
