package handlers

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zapcore"
)

// telegramCore forwards log records at or above its level to the ops
// channel, so operators see warnings and errors without shell access.
type telegramCore struct {
	zapcore.LevelEnabler
	bot       *tgbotapi.BotAPI
	channelID int64
}

// NewTelegramCore builds a zap core that mirrors records to the ops channel.
// Attach it with utils.AttachCore.
func NewTelegramCore(bot *tgbotapi.BotAPI, channelID int64, enab zapcore.LevelEnabler) zapcore.Core {
	return &telegramCore{LevelEnabler: enab, bot: bot, channelID: channelID}
}

func (c *telegramCore) With(_ []zapcore.Field) zapcore.Core {
	// Structured fields are dropped for the channel view; the primary
	// sink keeps them.
	return c
}

func (c *telegramCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *telegramCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	text := fmt.Sprintf("🔵 %s\n⏰ %s\n📝 %s",
		ent.Level.CapitalString(),
		ent.Time.Format("2006-01-02 15:04:05"),
		ent.Message)
	msg := tgbotapi.NewMessage(c.channelID, text)
	if _, err := c.bot.Send(msg); err != nil {
		// Never let channel delivery failures recurse into logging.
		return nil
	}
	return nil
}

func (c *telegramCore) Sync() error { return nil }

// NotifyChannel sends a one-off message to the ops channel, e.g. the startup
// notice or the calendar authorization URL.
func NotifyChannel(bot *tgbotapi.BotAPI, channelID int64, text string) {
	if channelID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(channelID, text)
	if _, err := bot.Send(msg); err != nil {
		fmt.Printf("ops channel notify failed at %s: %v\n", time.Now().Format(time.RFC3339), err)
	}
}
