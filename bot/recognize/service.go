package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/tuneid/TuneID-Go/bot"
)

// ErrNoMatch is returned when the service cannot identify the audio. Timeouts
// and oversized files surface as ErrNoMatch too; the distinction only exists
// in the logs.
var ErrNoMatch = errors.New("recognize: no match")

// Options configures a Service.
type Options struct {
	BaseURL     string
	Timeout     time.Duration // per recognition attempt, single attempt only
	MaxFileSize int64         // bytes; larger files are not uploaded
}

// Service talks to the recognition/search API. Recognition is a single
// attempt per file; search retries at the transport level.
type Service struct {
	opts      Options
	recognize *http.Client
	search    *retryablehttp.Client
	breaker   *gobreaker.CircuitBreaker
	logger    bot.Logger
}

// New creates a Service with retry and circuit breaker.
func New(opts Options, logger bot.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Timeout > 300*time.Second {
		opts.Timeout = 300 * time.Second
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 50 << 20
	}

	search := retryablehttp.NewClient()
	search.RetryMax = 3
	search.RetryWaitMin = 200 * time.Millisecond
	search.RetryWaitMax = 2 * time.Second
	search.Logger = nil

	settings := gobreaker.Settings{
		Name:        "recognize-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &Service{
		opts:      opts,
		recognize: &http.Client{Timeout: opts.Timeout},
		search:    search,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		logger:    logger,
	}
}

// trackPayload is the service's track shape, shared by recognition results
// and search hits.
type trackPayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Key      string `json:"key"`
	Images   struct {
		CoverArt string `json:"coverart"`
	} `json:"images"`
	Sections []struct {
		Metadata []struct {
			Text string `json:"text"`
		} `json:"metadata"`
	} `json:"sections"`
}

type recognizeResponse struct {
	Track *trackPayload `json:"track"`
}

type searchResponse struct {
	Tracks struct {
		Hits []struct {
			Track trackPayload `json:"track"`
		} `json:"hits"`
	} `json:"tracks"`
}

// record normalizes a payload into a TrackRecord with defaulted fields.
// Album comes from the first metadata entry of the first section.
func (p *trackPayload) record() bot.TrackRecord {
	album := ""
	if len(p.Sections) > 0 && len(p.Sections[0].Metadata) > 0 {
		album = p.Sections[0].Metadata[0].Text
	}
	return bot.NewTrackRecord(p.Title, p.Subtitle, album, p.Images.CoverArt, p.Key)
}

// Recognize identifies the audio file at filePath. It makes exactly one
// attempt: a timeout or transport failure means the result is unknown, not
// worth retrying against a fingerprint service.
func (s *Service) Recognize(ctx context.Context, filePath string) (*bot.TrackRecord, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("recognize: stat: %w", err)
	}
	if info.Size() > s.opts.MaxFileSize {
		s.logger.Warn("file too large for recognition",
			"path", filePath, "size", info.Size(), "max", s.opts.MaxFileSize)
		return nil, ErrNoMatch
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("recognize: open: %w", err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	body, err := s.breaker.Execute(func() (interface{}, error) {
		return s.uploadFile(ctx, filepath.Base(filePath), file)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("recognition timed out", "path", filePath, "timeout", s.opts.Timeout)
		} else {
			s.logger.Error("recognition request failed", "path", filePath, "error", err)
		}
		return nil, ErrNoMatch
	}

	var result recognizeResponse
	if err := json.Unmarshal(body.([]byte), &result); err != nil {
		s.logger.Error("recognition response malformed", "error", err)
		return nil, ErrNoMatch
	}
	if result.Track == nil {
		return nil, ErrNoMatch
	}

	rec := result.Track.record()
	s.logger.Info("track recognized", "title", rec.Title, "artist", rec.Artist, "key", rec.Key)
	return &rec, nil
}

// Search queries the catalog and returns up to limit hits in service order.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]bot.TrackRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	searchURL := fmt.Sprintf("%s/search?query=%s&limit=%s",
		s.opts.BaseURL, url.QueryEscape(query), strconv.Itoa(limit))

	body, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.search.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("search status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: search: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body.([]byte), &result); err != nil {
		return nil, fmt.Errorf("recognize: decode search: %w", err)
	}

	records := make([]bot.TrackRecord, 0, len(result.Tracks.Hits))
	for _, hit := range result.Tracks.Hits {
		if len(records) == limit {
			break
		}
		records = append(records, hit.Track.record())
	}
	return records, nil
}

func (s *Service) uploadFile(ctx context.Context, fileName string, file io.Reader) ([]byte, error) {
	bodyBuf := &bytes.Buffer{}
	writer := multipart.NewWriter(bodyBuf)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fileWriter, file); err != nil {
		return nil, err
	}
	contentType := writer.FormDataContentType()
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/recognize", bodyBuf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.recognize.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recognize status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
