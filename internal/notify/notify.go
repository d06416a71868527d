// Package notify posts the summary of a run to a Discord channel webhook.
package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/danielholmes839/loginsuite/internal/suite"
)

// discord rejects longer messages
const maxContent = 2000

// Webhook is the part of a discordgo session the notifier uses.
type Webhook interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Notifier struct {
	WebhookID string
	Token     string
	BaseURL   string

	Session Webhook
	Logger  *slog.Logger
}

// New returns a notifier posting to the webhook with the given id and token.
func New(webhookID, token, baseURL string, logger *slog.Logger) (*Notifier, error) {
	// executing a webhook needs no bot token
	dg, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Notifier{
		WebhookID: webhookID,
		Token:     token,
		BaseURL:   baseURL,
		Session:   dg,
		Logger:    logger,
	}, nil
}

// Send posts the summary of report.
func (n *Notifier) Send(report *suite.Report) error {
	content := FormatReport(report, n.BaseURL)

	_, err := n.Session.WebhookExecute(n.WebhookID, n.Token, true, &discordgo.WebhookParams{
		Content:  content,
		Username: "loginsuite",
		// failures quote page text; never let it ping anyone
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		n.Logger.Error("failed to send run summary", "run", report.ID, "error", err)
		return fmt.Errorf("failed to send run summary: %w", err)
	}

	n.Logger.Info("sent run summary", "run", report.ID)
	return nil
}

func formatResults(results []suite.Result, withError bool) string {
	sorted := make([]suite.Result, len(results))
	copy(sorted, results)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].Browser < sorted[j].Browser
		}
		return sorted[i].Name < sorted[j].Name
	})

	var sb strings.Builder
	for _, result := range sorted {
		sb.WriteString(fmt.Sprintf("- `%s` (%s)", result.Name, result.Browser))
		if withError && result.Error != "" {
			sb.WriteString(": " + result.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatReport renders report as a Discord message.
func FormatReport(report *suite.Report, baseURL string) string {
	var sb strings.Builder

	status := "passed"
	if !report.OK() {
		status = "FAILED"
	}
	sb.WriteString(fmt.Sprintf("Login suite %s on %s: %d passed, %d failed, %d skipped (%s)\n\n",
		status,
		report.Started.Format("Monday Jan 2 15:04"),
		len(report.Passed()),
		len(report.Failed()),
		len(report.Skipped()),
		report.Duration().Round(time.Second),
	))

	if failed := report.Failed(); len(failed) > 0 {
		sb.WriteString("Failed:\n" + formatResults(failed, true) + "\n")
	}

	if skipped := report.Skipped(); len(skipped) > 0 {
		sb.WriteString("Skipped:\n" + formatResults(skipped, false) + "\n")
	}

	sb.WriteString(fmt.Sprintf("Run `%s` against %s", report.ID, baseURL))

	content := sb.String()
	if len(content) > maxContent {
		content = strings.ToValidUTF8(content[:maxContent-len("\n...")], "") + "\n..."
	}
	return content
}
