package handler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mymmrac/telego"

	"github.com/tuneid/TuneID-Go/bot/locale"
)

// HandleAudio recognizes an audio or voice attachment. The attachment is
// fetched to a temp file that is removed on every exit path.
func (h *Handlers) HandleAudio(ctx context.Context, message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	var fileID, tempName string
	switch {
	case message.Audio != nil:
		fileID = message.Audio.FileID
		tempName = fmt.Sprintf("temp_audio_%d.mp3", userID)
	case message.Voice != nil:
		fileID = message.Voice.FileID
		tempName = fmt.Sprintf("temp_voice_%d.ogg", userID)
	default:
		return
	}

	statusID, err := h.Sender.SendMessage(ctx, chatID, h.text(userID, locale.KeyProcessing), nil)
	if err != nil {
		h.Logger.Error("send processing message", "chat_id", chatID, "error", err)
		return
	}

	ensureDir(h.DownloadDir)
	tempPath := filepath.Join(h.DownloadDir, tempName)
	defer cleanupFiles(tempPath)

	if err := h.Sender.DownloadAttachment(ctx, fileID, tempPath); err != nil {
		h.Logger.Error("fetch attachment", "chat_id", chatID, "file_id", fileID, "error", err)
		h.editStatus(ctx, chatID, statusID, h.text(userID, locale.KeyError), nil)
		return
	}

	rec, err := h.Recognizer.Recognize(ctx, tempPath)
	if err != nil {
		h.editStatus(ctx, chatID, statusID, h.text(userID, locale.KeySongNotFound), nil)
		return
	}

	loc := h.locale(userID)
	info := formatTrackResult(rec, locale.Message(loc, locale.KeySuccess))
	h.editStatus(ctx, chatID, statusID, info, mainMenuKeyboard(loc))
}

func (h *Handlers) editStatus(ctx context.Context, chatID int64, messageID int, text string, kb *telego.InlineKeyboardMarkup) {
	if err := h.Sender.EditMessageText(ctx, chatID, messageID, text, kb); err != nil {
		h.Logger.Warn("edit status message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}
