package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phuslu/log"

	"bewerbungsagent/internal/config"
	"bewerbungsagent/internal/jobstate"
)

// Telegram pushes per-job cards to a chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram returns nil when the channel is disabled.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram enabled but TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID incomplete")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: cfg.ChatID}, nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// SendSummary posts the plain digest line.
func (t *Telegram) SendSummary(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, escapeMarkdown(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := t.api.Send(msg)
	return err
}

// SendJob posts one record as a card with a link button text.
func (t *Telegram) SendJob(r *jobstate.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(r.Title))
	if r.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(r.Company))
	}
	if r.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(r.Location))
	}
	if r.Score != 0 {
		fmt.Fprintf(&b, "⭐ Score %d \\(%s\\)\n", r.Score, escapeMarkdown(r.Match))
	}
	if link := bestLink(r); link != "" {
		fmt.Fprintf(&b, "🔗 [Bewerben](%s)\n", link)
	}

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send for %s: %w", r.JobUID, err)
	}
	return nil
}

// SendNewJobs posts the top new records, stopping at the first failure.
func (t *Telegram) SendNewJobs(records []*jobstate.Record, top int) error {
	if top <= 0 || top > len(records) {
		top = len(records)
	}
	for _, r := range records[:top] {
		if err := t.SendJob(r); err != nil {
			return err
		}
	}
	log.Info().Int("jobs", top).Msg("telegram cards sent")
	return nil
}
