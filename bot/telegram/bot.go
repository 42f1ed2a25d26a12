package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mymmrac/telego"

	botpkg "github.com/tuneid/TuneID-Go/bot"
)

// Bot wraps telego with application configuration. A separate upload client
// carries the long timeout audio uploads need without slowing polling down.
type Bot struct {
	client *telego.Bot
	upload *telego.Bot
	config botpkg.Config
	logger botpkg.Logger
	files  *http.Client
}

// New creates the Telegram clients.
func New(cfg botpkg.Config, logger botpkg.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	pollClient := &http.Client{
		Timeout:   2 * time.Minute,
		Transport: transport,
	}
	uploadClient := &http.Client{
		Timeout:   15 * time.Minute,
		Transport: transport.Clone(),
	}

	makeOptions := func(httpClient *http.Client) []telego.BotOption {
		options := []telego.BotOption{
			telego.WithHTTPClient(httpClient),
			telego.WithLogger(telegoLogger{logger: logger}),
		}
		if cfg.GetString("BotAPI") != "" {
			options = append(options, telego.WithAPIServer(cfg.GetString("BotAPI")))
		}
		if cfg.GetBool("BotDebug") {
			options = append(options, telego.WithDebugMode())
		}
		return options
	}

	client, err := telego.NewBot(cfg.GetString("BOT_TOKEN"), makeOptions(pollClient)...)
	if err != nil {
		return nil, err
	}
	upload, err := telego.NewBot(cfg.GetString("BOT_TOKEN"), makeOptions(uploadClient)...)
	if err != nil {
		return nil, err
	}

	return &Bot{
		client: client,
		upload: upload,
		config: cfg,
		logger: logger,
		files:  &http.Client{Timeout: 2 * time.Minute, Transport: transport.Clone()},
	}, nil
}

// Updates starts long polling and returns the update channel.
func (b *Bot) Updates(ctx context.Context) (<-chan telego.Update, error) {
	return b.client.UpdatesViaLongPolling(ctx, nil)
}

// Client exposes the underlying bot client.
func (b *Bot) Client() *telego.Bot {
	return b.client
}

// UploadClient exposes a dedicated client for audio uploads.
func (b *Bot) UploadClient() *telego.Bot {
	if b.upload != nil {
		return b.upload
	}
	return b.client
}

// GetMe retrieves bot info.
func (b *Bot) GetMe(ctx context.Context) (*telego.User, error) {
	return b.client.GetMe(ctx)
}

// DownloadAttachment fetches a Telegram-hosted file by file id and writes it
// to destPath. The caller owns the file and must remove it.
func (b *Bot) DownloadAttachment(ctx context.Context, fileID, destPath string) error {
	info, err := b.client.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	if info.FilePath == "" {
		return fmt.Errorf("get file: empty file path")
	}

	fileURL := b.client.FileDownloadURL(info.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	resp, err := b.files.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return err
	}
	return out.Close()
}

type telegoLogger struct {
	logger botpkg.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}
