// Package publisher delivers text blocks to a Telegram channel.
package publisher

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/samgozman/release-thread/pkg/errlvl"
)

// botAPI is the part of tgbotapi.BotAPI the publisher needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramPublisher struct {
	ChannelID string // Telegram channel id (e.g. @my_channel)
	BotAPI    botAPI
}

// NewTelegramPublisher connects to the bot API. Telegram rejects connections now and then,
// so the connection is retried with an exponential backoff until ctx is done or maxRetries is reached.
func NewTelegramPublisher(ctx context.Context, channelID, token string, maxRetries uint64) (*TelegramPublisher, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)

	bot, err := backoff.RetryNotifyWithData(func() (*tgbotapi.BotAPI, error) {
		return tgbotapi.NewBotAPI(token)
	}, b, func(err error, next time.Duration) {
		slog.Default().Warn("[publisher][connect] retrying", "next", next, "error", err)
	})
	if err != nil {
		return nil, newError(errlvl.FATAL, errConnect, err)
	}

	return &TelegramPublisher{
		ChannelID: channelID,
		BotAPI:    bot,
	}, nil
}

// Publish sends msg to the channel and returns the id of the published message.
func (t *TelegramPublisher) Publish(msg string) (pubID string, err error) {
	if strings.TrimSpace(msg) == "" {
		return "", newError(errlvl.WARN, errEmptyMessage)
	}

	tgMsg := tgbotapi.NewMessageToChannel(t.ChannelID, msg)
	tgMsg.DisableWebPagePreview = true

	s, err := t.BotAPI.Send(tgMsg)
	if err != nil {
		return "", newError(errlvl.ERROR, errSend, err)
	}
	return strconv.Itoa(s.MessageID), nil
}
