package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenShotDebugger saves full-page screenshots for runs that need a human
// look, e.g. a listing page that yielded nothing.
type ScreenShotDebugger struct {
	outputDir string
}

func NewScreenShotDebugger(dir string) *ScreenShotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	return &ScreenShotDebugger{outputDir: dir}
}

// CaptureAndLog writes <name>_<timestamp>.png and returns its path.
func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	log.Printf("📸 %s", message)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}

	log.Printf("   Screenshot saved: %s", path)
	return path, nil
}
