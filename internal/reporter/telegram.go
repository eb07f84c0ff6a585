package reporter

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxListed caps how many titles each section of a summary names.
const maxListed = 10

// Summary is what one scrape run reports.
type Summary struct {
	Company  string
	StartURL string
	Observed int
	Stored   int
	Enriched int
	Failed   int
	Duration time.Duration

	NewTitles     []string
	RemovedTitles []string
	Removed       int
	Pruned        bool

	// AnalysisPath is set when nothing was found and the page structure
	// analysis was written instead.
	AnalysisPath string
}

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

// NewTelegramReporterWithEndpoint talks to a Bot API compatible server other
// than api.telegram.org. endpoint is a format string like
// "https://host/bot%s/%s".
func NewTelegramReporterWithEndpoint(token string, chatID int64, endpoint string) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramReporter) SendSummary(s Summary) error {
	return t.SendMessage(FormatSummary(s))
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Careers scraper error</b>:\n%s", html.EscapeString(errReq.Error()))
	return t.SendMessage(text)
}

// FormatSummary renders s as Telegram HTML.
func FormatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 <b>%s</b> careers scrape\n", html.EscapeString(s.Company))
	fmt.Fprintf(&b, "🔗 %s\n", html.EscapeString(s.StartURL))

	if s.AnalysisPath != "" {
		fmt.Fprintf(&b, "🚨 No jobs found. Page analysis saved to <code>%s</code>\n", html.EscapeString(s.AnalysisPath))
		fmt.Fprintf(&b, "⏱ %s", s.Duration.Round(time.Second))
		return b.String()
	}

	fmt.Fprintf(&b, "📦 Observed: %d | Stored: %d\n", s.Observed, s.Stored)
	fmt.Fprintf(&b, "🆕 New: %d\n", len(s.NewTitles))
	writeTitles(&b, s.NewTitles)

	action := "retained"
	if s.Pruned {
		action = "pruned"
	}
	fmt.Fprintf(&b, "🗑 Removed: %d (%s)\n", s.Removed, action)
	writeTitles(&b, s.RemovedTitles)

	if s.Enriched > 0 || s.Failed > 0 {
		fmt.Fprintf(&b, "🔍 Details: %d enriched, %d failed\n", s.Enriched, s.Failed)
	}
	fmt.Fprintf(&b, "⏱ %s", s.Duration.Round(time.Second))
	return b.String()
}

func writeTitles(b *strings.Builder, titles []string) {
	for i, title := range titles {
		if i == maxListed {
			fmt.Fprintf(b, "  … and %d more\n", len(titles)-maxListed)
			return
		}
		fmt.Fprintf(b, "  • %s\n", html.EscapeString(title))
	}
}
