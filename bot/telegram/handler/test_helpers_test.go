package handler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/mymmrac/telego"

	botpkg "github.com/tuneid/TuneID-Go/bot"
	"github.com/tuneid/TuneID-Go/bot/download"
	"github.com/tuneid/TuneID-Go/bot/locale"
	"github.com/tuneid/TuneID-Go/bot/platform"
	"github.com/tuneid/TuneID-Go/bot/recognize"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)        {}
func (nopLogger) Info(string, ...any)         {}
func (nopLogger) Warn(string, ...any)         {}
func (nopLogger) Error(string, ...any)        {}
func (n nopLogger) With(...any) botpkg.Logger { return n }

type sentMessage struct {
	ChatID int64
	Text   string
	KB     *telego.InlineKeyboardMarkup
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	KB        *telego.InlineKeyboardMarkup
}

// fakeSender records every outbound call in order.
type fakeSender struct {
	mu         sync.Mutex
	nextMsgID  int
	Messages   []sentMessage
	Edits      []editedMessage
	Deleted    []int
	Audios     []AudioParams
	Answers    []string
	Inline     [][]telego.InlineQueryResult
	Attachment []byte // content written by DownloadAttachment

	SendAudioErr error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	f.Messages = append(f.Messages, sentMessage{chatID, text, kb})
	return f.nextMsgID, nil
}

func (f *fakeSender) EditMessageText(_ context.Context, chatID int64, messageID int, text string, kb *telego.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edits = append(f.Edits, editedMessage{chatID, messageID, text, kb})
	return nil
}

func (f *fakeSender) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *fakeSender) SendAudio(_ context.Context, params AudioParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendAudioErr != nil {
		return f.SendAudioErr
	}
	f.Audios = append(f.Audios, params)
	return nil
}

func (f *fakeSender) AnswerCallbackQuery(_ context.Context, _ int64, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answers = append(f.Answers, text)
	return nil
}

func (f *fakeSender) AnswerInlineQuery(_ context.Context, _ int64, _ string, results []telego.InlineQueryResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inline = append(f.Inline, results)
	return nil
}

func (f *fakeSender) DownloadAttachment(_ context.Context, _, destPath string) error {
	content := f.Attachment
	if content == nil {
		content = []byte("audio")
	}
	return os.WriteFile(destPath, content, 0644)
}

// fakeDownloader writes a file on success or fails with the given error.
type fakeDownloader struct {
	Dir   string
	Err   error
	Calls int
}

func (f *fakeDownloader) Download(_ context.Context, url string) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	path := filepath.Join(f.Dir, download.SanitizeStem(url)+".mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeDownloader) CheckSendable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return nil
}

// fakeRecognizer returns a fixed record or ErrNoMatch.
type fakeRecognizer struct {
	Record    *botpkg.TrackRecord
	SearchHit []botpkg.TrackRecord
	SearchErr error
	Calls     int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (*botpkg.TrackRecord, error) {
	f.Calls++
	if f.Record == nil {
		return nil, recognize.ErrNoMatch
	}
	return f.Record, nil
}

func (f *fakeRecognizer) Search(_ context.Context, _ string, limit int) ([]botpkg.TrackRecord, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if len(f.SearchHit) > limit {
		return f.SearchHit[:limit], nil
	}
	return f.SearchHit, nil
}

type fakeTagger struct {
	Calls int
	Err   error
}

func (f *fakeTagger) EmbedTags(_ context.Context, _ string, _ *botpkg.TrackRecord) error {
	f.Calls++
	return f.Err
}

func newTestHandlers(dir string, sender Sender, dl *fakeDownloader, rec *fakeRecognizer) *Handlers {
	return &Handlers{
		Sender:            sender,
		Detector:          platform.NewDetector(nil),
		Downloader:        dl,
		Recognizer:        rec,
		Tagger:            &fakeTagger{},
		Locales:           locale.NewStore(locale.English),
		Logger:            nopLogger{},
		DownloadDir:       dir,
		InlineSearchLimit: 10,
		BotName:           "tuneid_bot",
	}
}

func textMessage(chatID, userID int64, text string) *telego.Message {
	return &telego.Message{
		MessageID: 100,
		Chat:      telego.Chat{ID: chatID, Type: "private"},
		From:      &telego.User{ID: userID},
		Text:      text,
	}
}

var errDownload = errors.New("boom")
