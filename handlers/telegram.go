package handlers

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"courtbook/models"
	"courtbook/services/booking"
	"courtbook/utils"
)

// BotHandler adapts the Telegram transport to the booking flow: it parses
// callback data into commands, hands them to the engine, and renders the
// returned views as inline keyboards. The engine never sees Telegram types.
type BotHandler struct {
	Bot  *tgbotapi.BotAPI
	Flow booking.Service
}

func NewBotHandler(bot *tgbotapi.BotAPI, flow booking.Service) *BotHandler {
	return &BotHandler{Bot: bot, Flow: flow}
}

// Run consumes updates until the context is cancelled. Each update is
// handled on its own goroutine; per-user ordering is enforced by the
// conversation store's lock, not here.
func (h *BotHandler) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := h.Bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			h.Bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go h.handleUpdate(ctx, update)
		}
	}
}

func (h *BotHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(update.Message)
	}
}

func (h *BotHandler) handleMessage(msg *tgbotapi.Message) {
	if msg.IsCommand() && msg.Command() == "start" {
		h.send(msg.Chat.ID, h.Flow.Welcome())
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Send /start to begin booking.")
	if _, err := h.Bot.Send(reply); err != nil {
		utils.GetLogger().Warn("fallback reply failed", zap.Error(err))
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	logger := utils.GetLogger()

	cmd, err := models.ParseCommand(cb.Data)
	if err != nil {
		logger.Warn("malformed callback",
			zap.String("data", cb.Data),
			zap.Int64("from", cb.From.ID))
		h.answer(cb.ID, "Invalid selection.")
		return
	}

	user := booking.User{
		ID:     strconv.FormatInt(cb.From.ID, 10),
		Handle: cb.From.UserName,
	}

	view, err := h.Flow.Handle(ctx, user, cmd)
	if err != nil {
		h.answer(cb.ID, booking.UserNotice(err))
		return
	}
	if view.IsZero() || cb.Message == nil {
		h.answer(cb.ID, "")
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cb.Message.Chat.ID, cb.Message.MessageID, view.Text, toMarkup(view))
	if _, err := h.Bot.Send(edit); err != nil {
		logger.Warn("view delivery failed",
			zap.Int64("chat", cb.Message.Chat.ID), zap.Error(err))
	}
	h.answer(cb.ID, "")
}

// ShowProgress implements booking.Effects: the provisional "in progress"
// message sent while the commit runs. The returned func deletes it and is
// safe to call on every exit path.
func (h *BotHandler) ShowProgress(_ context.Context, userID string) func() {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return func() {}
	}
	sent, err := h.Bot.Send(tgbotapi.NewMessage(chatID, "Booking…"))
	if err != nil {
		utils.GetLogger().Warn("progress message failed", zap.Error(err))
		return func() {}
	}
	return func() {
		del := tgbotapi.NewDeleteMessage(chatID, sent.MessageID)
		if _, err := h.Bot.Request(del); err != nil {
			utils.GetLogger().Warn("progress cleanup failed", zap.Error(err))
		}
	}
}

// NotifyUser implements cron.Notifier: plain text to the user's chat.
func (h *BotHandler) NotifyUser(_ context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	_, err = h.Bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Ping probes the transport for the health monitor.
func (h *BotHandler) Ping() error {
	_, err := h.Bot.GetMe()
	return err
}

func (h *BotHandler) send(chatID int64, view models.View) {
	msg := tgbotapi.NewMessage(chatID, view.Text)
	if len(view.Rows) > 0 {
		msg.ReplyMarkup = toMarkup(view)
	}
	if _, err := h.Bot.Send(msg); err != nil {
		utils.GetLogger().Warn("message delivery failed",
			zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (h *BotHandler) answer(callbackID, text string) {
	if _, err := h.Bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		utils.GetLogger().Warn("callback answer failed", zap.Error(err))
	}
}

func toMarkup(view models.View) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Rows))
	for _, row := range view.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
