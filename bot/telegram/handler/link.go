package handler

import (
	"context"
	"errors"

	"github.com/mymmrac/telego"

	"github.com/tuneid/TuneID-Go/bot/locale"
	"github.com/tuneid/TuneID-Go/bot/recognize"
)

// HandleLink runs the link pipeline: detect platform, download, recognize,
// deliver. A recognition miss still delivers the audio; a download failure
// reports the localized error. The downloaded file is removed on every exit
// path.
func (h *Handlers) HandleLink(ctx context.Context, message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	url := extractFirstURL(message.Text)
	if url == "" {
		return
	}

	tag, err := h.Detector.Detect(url)
	if err != nil {
		if _, err := h.Sender.SendMessage(ctx, chatID, h.text(userID, locale.KeyInvalidLink), nil); err != nil {
			h.Logger.Error("send invalid link reply", "chat_id", chatID, "error", err)
		}
		return
	}

	statusID, err := h.Sender.SendMessage(ctx, chatID, h.text(userID, locale.KeyProcessing), nil)
	if err != nil {
		h.Logger.Error("send processing message", "chat_id", chatID, "error", err)
		return
	}

	h.Logger.Info("link accepted", "chat_id", chatID, "platform", tag, "url", url)

	filePath, err := h.Downloader.Download(ctx, url)
	if err != nil {
		h.editStatus(ctx, chatID, statusID, h.text(userID, locale.KeyDownloadError), nil)
		return
	}
	defer cleanupFiles(filePath)

	if err := h.Downloader.CheckSendable(filePath); err != nil {
		h.Logger.Warn("downloaded file not sendable", "path", filePath, "error", err)
		h.editStatus(ctx, chatID, statusID, h.text(userID, locale.KeyDownloadError), nil)
		return
	}

	// A miss here is fine: the file is still delivered, just untagged.
	rec, err := h.Recognizer.Recognize(ctx, filePath)
	if err != nil && !errors.Is(err, recognize.ErrNoMatch) {
		h.Logger.Warn("recognition failed for downloaded file", "path", filePath, "error", err)
	}

	successText := h.text(userID, locale.KeySuccess)
	params := AudioParams{
		ChatID:    chatID,
		ReplyToID: message.MessageID,
		Path:      filePath,
		Caption:   successLine(successText),
	}
	if rec != nil {
		params.Title = rec.Title
		params.Performer = rec.Artist
		params.Caption = formatTrackResult(rec, successText)
		if h.Tagger != nil {
			if err := h.Tagger.EmbedTags(ctx, filePath, rec); err != nil {
				h.Logger.Warn("tag embedding failed", "path", filePath, "error", err)
			}
		}
	}

	if err := h.Sender.SendAudio(ctx, params); err != nil {
		h.Logger.Error("send audio", "chat_id", chatID, "error", err)
		h.editStatus(ctx, chatID, statusID, h.text(userID, locale.KeyError), nil)
		return
	}

	if err := h.Sender.DeleteMessage(ctx, chatID, statusID); err != nil {
		h.Logger.Warn("delete status message", "chat_id", chatID, "message_id", statusID, "error", err)
	}
}
