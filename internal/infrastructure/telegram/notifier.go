package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EcoAware/internal/domain"
	"EcoAware/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends assessment digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishAssessment posts a Markdown digest of the report to Telegram.
func (n *Notifier) PublishAssessment(ctx context.Context, report domain.Report) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatReport(report))
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// FormatReport renders a report as a short Telegram Markdown digest.
func FormatReport(r domain.Report) string {
	a := r.Assessment
	title := r.Product.Title
	if title == "" {
		title = "Untitled listing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", markdownEscaper.Replace(title))
	fmt.Fprintf(&b, "%s | Score %d/100 (%s)\n", markdownEscaper.Replace(a.CategoryLabel), a.Score, a.Label)
	fmt.Fprintf(&b, "Confidence: %s | Greenwashing risk: %d (%s)\n", a.ConfidenceLabel, a.Greenwashing.Risk, a.Greenwashing.RiskLevel)

	if v := r.Narration.Verdict; v != "" {
		fmt.Fprintf(&b, "\n%s\n", markdownEscaper.Replace(v))
	}

	if len(a.Reasons) > 0 {
		b.WriteString("\n")
		for _, reason := range a.Reasons {
			mark := "+"
			if reason.Type == domain.ReasonWarning {
				mark = "!"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, markdownEscaper.Replace(reason.Text))
		}
	}

	if a.CarbonNote != "" {
		fmt.Fprintf(&b, "\n_%s_\n", markdownEscaper.Replace(a.CarbonNote))
	}
	if r.URL != "" {
		fmt.Fprintf(&b, "%s\n", r.URL)
	}

	return strings.TrimSpace(b.String())
}
