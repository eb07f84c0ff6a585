package browser

import (
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
)

// DefaultBlockedResources are request types aborted to cut page load time.
var DefaultBlockedResources = []string{"image", "stylesheet", "font", "media"}

// ShouldBlock reports whether a request of resourceType is aborted.
func ShouldBlock(resourceType string, blocked []string) bool {
	for _, b := range blocked {
		if b == resourceType {
			return true
		}
	}
	return false
}

// BlockResources installs a context-wide route that aborts blocked resource
// types and lets everything else through.
func BlockResources(bctx playwright.BrowserContext, blocked []string) error {
	if len(blocked) == 0 {
		return nil
	}
	err := bctx.Route("**/*", func(route playwright.Route) {
		if ShouldBlock(route.Request().ResourceType(), blocked) {
			if err := route.Abort(); err != nil {
				log.Printf("⚠️ Abort %s: %v", route.Request().URL(), err)
			}
			return
		}
		if err := route.Continue(); err != nil {
			log.Printf("⚠️ Continue %s: %v", route.Request().URL(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("could not install resource blocking: %w", err)
	}
	return nil
}
