package handler

import (
	"context"

	"github.com/mymmrac/telego"

	botpkg "github.com/tuneid/TuneID-Go/bot"
	"github.com/tuneid/TuneID-Go/bot/locale"
	"github.com/tuneid/TuneID-Go/bot/platform"
)

// Downloader extracts audio from a platform URL.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
	CheckSendable(path string) error
}

// Recognizer identifies audio files and searches the catalog.
type Recognizer interface {
	Recognize(ctx context.Context, filePath string) (*botpkg.TrackRecord, error)
	Search(ctx context.Context, query string, limit int) ([]botpkg.TrackRecord, error)
}

// Tagger embeds metadata into delivered files.
type Tagger interface {
	EmbedTags(ctx context.Context, audioPath string, rec *botpkg.TrackRecord) error
}

// AudioParams describes an audio upload.
type AudioParams struct {
	ChatID    int64
	ReplyToID int
	Path      string
	Title     string
	Performer string
	Caption   string
}

// Sender is the outbound Telegram surface the handlers use. The production
// implementation wraps telego with per-chat rate limiting; tests substitute
// a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *telego.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendAudio(ctx context.Context, params AudioParams) error
	AnswerCallbackQuery(ctx context.Context, userID int64, queryID, text string) error
	AnswerInlineQuery(ctx context.Context, userID int64, queryID string, results []telego.InlineQueryResult) error
	DownloadAttachment(ctx context.Context, fileID, destPath string) error
}

// Handlers carries the dependencies shared by all update handlers.
type Handlers struct {
	Sender     Sender
	Detector   *platform.Detector
	Downloader Downloader
	Recognizer Recognizer
	Tagger     Tagger
	Locales    *locale.Store
	Logger     botpkg.Logger

	DownloadDir       string
	InlineSearchLimit int
	BotName           string
}

func (h *Handlers) locale(userID int64) locale.Locale {
	return h.Locales.Locale(userID)
}

func (h *Handlers) text(userID int64, key locale.Key) string {
	return locale.Message(h.locale(userID), key)
}
