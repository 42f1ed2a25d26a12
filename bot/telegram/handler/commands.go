package handler

import (
	"context"

	"github.com/mymmrac/telego"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tuneid/TuneID-Go/bot/locale"
)

// HandleCommand routes /start, /help and /language.
func (h *Handlers) HandleCommand(ctx context.Context, message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	switch commandName(message.Text, h.BotName) {
	case "start", "help":
		h.logHealth(chatID)
		loc := h.locale(userID)
		if _, err := h.Sender.SendMessage(ctx, chatID,
			locale.Message(loc, locale.KeyStart), mainMenuKeyboard(loc)); err != nil {
			h.Logger.Error("send start message", "chat_id", chatID, "error", err)
		}
	case "language":
		loc := h.locale(userID)
		if _, err := h.Sender.SendMessage(ctx, chatID,
			locale.Message(loc, locale.KeyLanguageSelect), languageKeyboard(loc)); err != nil {
			h.Logger.Error("send language menu", "chat_id", chatID, "error", err)
		}
	}
}

// logHealth records host memory and disk pressure when a user starts a
// session. Probe failures are ignored.
func (h *Handlers) logHealth(chatID int64) {
	fields := []any{"chat_id", chatID}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, "mem_used_pct", vm.UsedPercent)
	}
	if du, err := disk.Usage(h.DownloadDir); err == nil {
		fields = append(fields, "disk_used_pct", du.UsedPercent)
	}
	h.Logger.Debug("session health", fields...)
}
