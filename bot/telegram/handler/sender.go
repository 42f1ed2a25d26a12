package handler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoutil"

	"github.com/tuneid/TuneID-Go/bot/telegram"
)

// BotSender implements Sender on top of telego with the per-chat rate
// limiter applied to every call.
type BotSender struct {
	Bot     *telegram.Bot
	Limiter *telegram.RateLimiter
}

func (s *BotSender) SendMessage(ctx context.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) (int, error) {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	msg, err := telegram.SendMessageWithRetry(ctx, s.Limiter, s.Bot.Client(), params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (s *BotSender) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *telego.InlineKeyboardMarkup) error {
	params := &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
		Text:      text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	_, err := telegram.EditMessageTextWithRetry(ctx, s.Limiter, s.Bot.Client(), params)
	if telegram.IsMessageNotModified(err) {
		return nil
	}
	return err
}

func (s *BotSender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return telegram.DeleteMessageWithRetry(ctx, s.Limiter, s.Bot.Client(), &telego.DeleteMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
	})
}

func (s *BotSender) SendAudio(ctx context.Context, p AudioParams) error {
	file, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	params := &telego.SendAudioParams{
		ChatID:    telego.ChatID{ID: p.ChatID},
		Audio:     telego.InputFile{File: telegoutil.NameReader(file, filepath.Base(p.Path))},
		Caption:   p.Caption,
		Title:     p.Title,
		Performer: p.Performer,
	}
	if p.ReplyToID != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: p.ReplyToID}
	}

	// Uploads go over the long-timeout client.
	_, err = telegram.SendAudioWithRetry(ctx, s.Limiter, s.Bot.UploadClient(), params)
	return err
}

func (s *BotSender) AnswerCallbackQuery(ctx context.Context, userID int64, queryID, text string) error {
	return telegram.AnswerCallbackQueryWithRetry(ctx, s.Limiter, s.Bot.Client(), userID, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
}

func (s *BotSender) AnswerInlineQuery(ctx context.Context, userID int64, queryID string, results []telego.InlineQueryResult) error {
	return telegram.AnswerInlineQueryWithRetry(ctx, s.Limiter, s.Bot.Client(), userID, &telego.AnswerInlineQueryParams{
		InlineQueryID: queryID,
		Results:       results,
		CacheTime:     60,
	})
}

func (s *BotSender) DownloadAttachment(ctx context.Context, fileID, destPath string) error {
	return s.Bot.DownloadAttachment(ctx, fileID, destPath)
}
