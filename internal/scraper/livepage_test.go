package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNavigationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"context destroyed", errors.New("Execution context was destroyed, most likely because of a navigation"), true},
		{"frame detached", errors.New("Frame was detached"), true},
		{"target closed", errors.New("Target closed"), true},
		{"page closed", errors.New("Target page, context or browser has been closed"), true},
		{"script error", errors.New("ReferenceError: dispatchEvent is not defined"), false},
		{"timeout", errors.New("Timeout 30000ms exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNavigationError(tt.err))
		})
	}
}
