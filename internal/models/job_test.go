package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobRecord_Key(t *testing.T) {
	tests := []struct {
		name     string
		job      JobRecord
		expected string
	}{
		{
			name:     "requisition id preferred",
			job:      JobRecord{RequisitionID: "148293BR", URL: "https://ey.jobs/x/job/"},
			expected: "148293BR",
		},
		{
			name:     "url fallback",
			job:      JobRecord{URL: "https://ey.jobs/dallas-tx/senior/job/"},
			expected: "https://ey.jobs/dallas-tx/senior/job/",
		},
		{
			name:     "no identity",
			job:      JobRecord{Title: "Senior Consultant"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.job.Key())
		})
	}
}

func TestJobRecord_HasFullDetails(t *testing.T) {
	assert.False(t, JobRecord{Description: "d"}.HasFullDetails())
	assert.False(t, JobRecord{QualificationsSkills: "q"}.HasFullDetails())
	assert.True(t, JobRecord{Description: "d", QualificationsSkills: "q"}.HasFullDetails())
}
