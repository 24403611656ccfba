package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// chatRecipient accepts numeric chat IDs as well as "@channel" usernames.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

type TelegramOptions struct {
	Token  string
	ChatID string
	// APIURL overrides the Bot API endpoint; empty uses the public one.
	APIURL string
	Client *http.Client
}

type Telegram struct {
	bot  *tele.Bot
	chat chatRecipient
}

func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     opts.APIURL,
		Token:   opts.Token,
		Client:  client,
		Offline: true, // send-only; no getMe round trip, no poller
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: b, chat: chatRecipient(strings.TrimSpace(opts.ChatID))}, nil
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
