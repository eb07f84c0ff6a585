package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go-careers-scraper/internal/browser"
	"go-careers-scraper/internal/paginate"

	"github.com/playwright-community/playwright-go"
)

const moreMarker = "data-scraper-more"

// findMoreJS marks the first visible control whose text reads like "load
// more" and returns that text, or null.
const findMoreJS = `([vocab, maxLen, marker]) => {
	document.querySelectorAll('[' + marker + ']').forEach(el => el.removeAttribute(marker));
	const candidates = document.querySelectorAll('button, a, [role="button"], input[type="button"], input[type="submit"]');
	for (const el of candidates) {
		const text = (el.innerText || el.value || '').replace(/\s+/g, ' ').trim().toLowerCase();
		if (!text) continue;
		if (!vocab.includes(text) && !(text.includes('more') && text.length < maxLen)) continue;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (rect.width === 0 || rect.height === 0 || style.visibility === 'hidden' || style.display === 'none' || el.disabled) continue;
		el.setAttribute(marker, '1');
		return text;
	}
	return null;
}`

const dispatchClickJS = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) return false;
	el.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, view: window }));
	return true;
}`

const moreXPath = `xpath=//*[self::button or self::a or @role='button'][contains(translate(normalize-space(.),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'more')]`

var errControlGone = errors.New("more control no longer on page")

var navigationErrorMarkers = []string{
	"execution context was destroyed",
	"navigation",
	"navigating",
	"detached",
	"target closed",
	"target page, context or browser has been closed",
}

// isNavigationError reports whether err came from the page moving away or
// closing under an evaluation, which a successful click can cause.
func isNavigationError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range navigationErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// LivePage adapts a playwright page to paginate.Page.
type LivePage struct {
	page         playwright.Page
	clickTimeout float64
}

func NewLivePage(page playwright.Page) *LivePage {
	return &LivePage{page: page, clickTimeout: 5000}
}

func (p *LivePage) FindMore(ctx context.Context) (paginate.MoreControl, bool, error) {
	if err := ctx.Err(); err != nil {
		return paginate.MoreControl{}, false, err
	}
	res, err := p.page.Evaluate(findMoreJS, []interface{}{paginate.MoreVocabulary, paginate.MaxMoreTextLen, moreMarker})
	if err != nil {
		return paginate.MoreControl{}, false, fmt.Errorf("find more control: %w", err)
	}
	text, ok := res.(string)
	if !ok || !paginate.IsMoreText(text) {
		return paginate.MoreControl{}, false, nil
	}
	return paginate.MoreControl{Selector: fmt.Sprintf("[%s]", moreMarker), Text: text}, true, nil
}

// ClickMore tries a selector click, then an XPath text click, then an
// in-page event dispatch.
func (p *LivePage) ClickMore(ctx context.Context, ctrl paginate.MoreControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loc := p.page.Locator(ctrl.Selector).First()
	if err := loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(p.clickTimeout),
	}); err == nil {
		if err := loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(p.clickTimeout)}); err == nil {
			return nil
		}
	}

	if err := p.page.Locator(moreXPath).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(p.clickTimeout),
	}); err == nil {
		return nil
	}

	res, err := p.page.Evaluate(dispatchClickJS, ctrl.Selector)
	if err != nil {
		//the dispatch may navigate or detach the page mid-evaluation
		if isNavigationError(err) {
			log.Printf("⚠️ Dispatch click on %q returned: %v", ctrl.Text, err)
			return nil
		}
		return fmt.Errorf("dispatch click on %q: %w", ctrl.Text, err)
	}
	if clicked, _ := res.(bool); !clicked {
		return errControlGone
	}
	return nil
}

func (p *LivePage) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return browser.ScrollToBottom(p.page)
}

func (p *LivePage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}
