package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/semaphore"

	"github.com/tuneid/TuneID-Go/bot"
)

// Sentinel errors checked by handlers with errors.Is.
var (
	// ErrDownloadFailed covers every extraction failure after retries.
	ErrDownloadFailed = errors.New("download: failed")

	// ErrMemoryPressure is returned when the host is low on memory and the
	// download is skipped before any attempt.
	ErrMemoryPressure = errors.New("download: memory pressure, skipped")

	// ErrFileTooLarge is returned by CheckSendable for files above the
	// Telegram upload ceiling.
	ErrFileTooLarge = errors.New("download: file exceeds send limit")
)

// memPercentFunc reports system memory usage as a percentage. Swappable in
// tests.
type memPercentFunc func() (float64, error)

func systemMemPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Options configures a Service.
type Options struct {
	Dir             string        // destination directory for audio files
	Timeout         time.Duration // overall per-URL deadline
	MaxRetries      int           // yt-dlp attempts per URL
	Concurrency     int64         // simultaneous yt-dlp processes
	MemoryGuardPct  float64       // skip threshold; <=0 disables the guard
	MaxSendFileSize int64         // bytes; ceiling enforced by CheckSendable
	BinPath         string        // yt-dlp binary, default "yt-dlp"
}

// Service extracts mp3 audio from platform URLs via yt-dlp.
type Service struct {
	opts       Options
	sem        *semaphore.Weighted
	memPercent memPercentFunc
	logger     bot.Logger
}

// New creates a Service. Zero option fields get workable defaults.
func New(opts Options, logger bot.Logger) *Service {
	if opts.Dir == "" {
		opts.Dir = "./downloads"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxSendFileSize <= 0 {
		opts.MaxSendFileSize = 50 << 20
	}
	if opts.BinPath == "" {
		opts.BinPath = "yt-dlp"
	}
	return &Service{
		opts:       opts,
		sem:        semaphore.NewWeighted(opts.Concurrency),
		memPercent: systemMemPercent,
		logger:     logger,
	}
}

// SanitizeStem derives a filesystem-safe file stem from a URL: every byte
// outside [A-Za-z0-9_.-] becomes '_' and the result is cut to 50 bytes.
// Distinct URLs can collide on the same stem; the later download wins.
func SanitizeStem(url string) string {
	var b strings.Builder
	b.Grow(len(url))
	for i := 0; i < len(url); i++ {
		c := url[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '_', c == '-', c == '.':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	stem := b.String()
	if len(stem) > 50 {
		stem = stem[:50]
	}
	return stem
}

// Download extracts the audio of url as mp3 and returns the local path.
// The whole operation, retries included, is bounded by the configured
// timeout. Failures collapse to ErrDownloadFailed; the underlying cause is
// only logged.
func (s *Service) Download(ctx context.Context, url string) (string, error) {
	if s.opts.MemoryGuardPct > 0 {
		pct, err := s.memPercent()
		if err != nil {
			s.logger.Warn("memory probe failed, proceeding", "error", err)
		} else if pct > s.opts.MemoryGuardPct {
			s.logger.Warn("download skipped under memory pressure",
				"used_percent", pct, "threshold", s.opts.MemoryGuardPct, "url", url)
			return "", ErrMemoryPressure
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDownloadFailed, "queue wait cancelled")
	}
	defer s.sem.Release(1)

	if err := os.MkdirAll(s.opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create dir: %s", ErrDownloadFailed, err)
	}

	stem := SanitizeStem(url)
	var lastErr error
	for attempt := 0; attempt < s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				s.logger.Warn("download deadline hit during backoff", "url", url)
				return "", ErrDownloadFailed
			}
		}

		path, err := s.runYtDlp(ctx, url, stem)
		if err == nil {
			return path, nil
		}
		lastErr = err
		s.logger.Warn("download attempt failed",
			"url", url, "attempt", attempt+1, "max", s.opts.MaxRetries, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Error("download failed after retries", "url", url, "error", lastErr)
	return "", ErrDownloadFailed
}

// ytdlpArgs builds the yt-dlp invocation for an mp3 extraction.
func (s *Service) ytdlpArgs(url, stem string) []string {
	outputTemplate := filepath.Join(s.opts.Dir, stem+".%(ext)s")

	return []string{
		"--no-warnings",
		"--quiet",
		"--no-playlist",
		"--socket-timeout", "10",
		"--retries", "0",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outputTemplate,
		"--print", "after_move:filepath",
		url,
	}
}

func (s *Service) runYtDlp(ctx context.Context, url, stem string) (string, error) {
	cmd := exec.CommandContext(ctx, s.opts.BinPath, s.ytdlpArgs(url, stem)...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("yt-dlp exit %d: %s", exitErr.ExitCode(),
				strings.TrimSpace(string(exitErr.Stderr)))
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("yt-dlp timed out: %s", url)
		}
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	// The post-processor renames to .mp3; prefer that over the reported
	// path in case --print saw the pre-conversion file.
	mp3Path := filepath.Join(s.opts.Dir, stem+".mp3")
	if _, err := os.Stat(mp3Path); err == nil {
		return mp3Path, nil
	}

	reported := strings.TrimSpace(string(output))
	if reported == "" {
		return "", errors.New("yt-dlp reported no output path")
	}
	if _, err := os.Stat(reported); err != nil {
		return "", fmt.Errorf("downloaded file missing: %s", reported)
	}
	return reported, nil
}

// CheckSendable verifies the file exists and fits under the send ceiling.
func (s *Service) CheckSendable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	if info.Size() > s.opts.MaxSendFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	return nil
}

// SweepStale removes regular files in the download dir older than maxAge.
// Called periodically so crashed handlers cannot leak disk space forever.
func (s *Service) SweepStale(maxAge time.Duration) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.opts.Dir, entry.Name())
		if err := os.Remove(path); err == nil {
			s.logger.Debug("removed stale file", "path", path)
		}
	}
}
