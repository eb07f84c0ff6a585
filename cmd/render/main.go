package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-careers-scraper/internal/browser"
	"go-careers-scraper/internal/extract"

	"github.com/playwright-community/playwright-go"
)

//renders one page through the scraper's browser setup, for re-tuning selectors
func main() {
	detail := flag.Bool("detail", false, "render as a detail page (wait for network idle) and print parsed fields")
	analyze := flag.String("analyze", "", "write a page structure analysis to this path")
	cookies := flag.String("cookies", "", "cookie JSON file to load")
	headful := flag.Bool("headful", false, "show the browser window")
	timeout := flag.Duration("timeout", 30*time.Second, "navigation timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: render [flags] <url>")
		os.Exit(2)
	}
	url := flag.Arg(0)
	ctx := context.Background()

	pm, err := browser.NewPlaywright(ctx, browser.Options{Headful: *headful})
	if err != nil {
		log.Fatalf("Failed to create Playwright: %v", err)
	}
	defer pm.Close()

	var jar []playwright.OptionalCookie
	if *cookies != "" {
		jar, err = browser.LoadCookies(*cookies)
		if err != nil {
			log.Fatalf("Failed to load cookies: %v", err)
		}
		log.Printf("🍪 Loaded %d cookies", len(jar))
	}

	browserCtx, err := pm.NewContext(jar)
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer browserCtx.Close()

	opts := browser.ListingOptions(*timeout, 2*time.Second)
	if *detail {
		opts = browser.DetailOptions(*timeout, time.Second)
	}

	log.Printf("🔍 Rendering %s...", url)
	html, err := browser.NewRenderer(browserCtx).Render(ctx, url, opts)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	if *analyze != "" {
		analysis, err := extract.AnalyzePageStructure(html)
		if err != nil {
			log.Fatalf("Failed to analyze: %v", err)
		}
		analysis.URL = url
		if err := extract.WriteAnalysis(*analyze, analysis); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if *detail {
		details, err := extract.ParseDetail(html, url)
		if err != nil {
			log.Fatalf("Failed to parse detail page: %v", err)
		}
		fmt.Printf("requisitionId: %s\ntitle: %s\nserviceLine: %s\nsubServiceLine: %s\nrank: %s\nlocation: %s\nworkModel: %s\ntravel: %s\nposted: %s\napply: %s\n\n--- description (%d chars)\n%s\n\n--- qualifications (%d chars)\n%s\n",
			details.RequisitionID, details.Title, details.ServiceLine, details.SubServiceLine, details.RankLevel,
			details.PrimaryLocation, details.WorkModel, details.TravelPercentage, details.PostedDate, details.ApplicationURL,
			len(details.Description), details.Description, len(details.QualificationsSkills), details.QualificationsSkills)
		return
	}

	fmt.Println(html)
}
