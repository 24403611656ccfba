package notify

import "strings"

// Select picks the transport: Telegram when both token and chat are set,
// otherwise a Slack webhook, otherwise Unconfigured.
func Select(tg TelegramOptions, slackWebhook string) (Sender, error) {
	token, chat := strings.TrimSpace(tg.Token), strings.TrimSpace(tg.ChatID)
	switch {
	case token != "" && chat != "":
		return NewTelegram(tg)
	case strings.TrimSpace(slackWebhook) != "":
		return NewSlack(strings.TrimSpace(slackWebhook)), nil
	case token == "" && chat == "":
		return Unconfigured{Reason: "no notification credentials"}, nil
	case token == "":
		return Unconfigured{Reason: "telegram token missing"}, nil
	default:
		return Unconfigured{Reason: "telegram chat id missing"}, nil
	}
}
