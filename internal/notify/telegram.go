package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramSender delivers to "telegram:<chat-id>" recipients through a bot
type TelegramSender struct {
	bot messageSender
}

// NewTelegramSender creates a sender for the given bot token
func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Send posts body to the chat encoded in to. from is unused.
func (s *TelegramSender) Send(ctx context.Context, body, _, to string) (string, error) {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(to, models.TelegramPrefix), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}

	msg, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), body))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return strconv.Itoa(msg.MessageID), nil
}
