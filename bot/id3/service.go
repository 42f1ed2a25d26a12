package id3

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/bogem/id3v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/nfnt/resize"

	"github.com/tuneid/TuneID-Go/bot"
)

const (
	maxCoverBytes = 10 << 20
	coverEdge     = 320
)

// Service embeds track metadata into delivered mp3 files. Embedding is best
// effort: callers log failures and still send the file.
type Service struct {
	client *retryablehttp.Client
	logger bot.Logger
}

// New creates a tagging service.
func New(logger bot.Logger) *Service {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &Service{client: client, logger: logger}
}

// EmbedTags writes title/artist/album frames into the mp3 at audioPath and
// attaches cover art when the record carries a cover URL.
func (s *Service) EmbedTags(ctx context.Context, audioPath string, rec *bot.TrackRecord) error {
	if rec == nil {
		return nil
	}

	meta, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("id3: open: %w", err)
	}
	defer meta.Close()

	meta.SetDefaultEncoding(id3v2.EncodingUTF8)
	meta.SetTitle(rec.Title)
	meta.SetArtist(rec.Artist)
	meta.SetAlbum(rec.Album)

	if rec.CoverURL != "" {
		artwork, err := s.fetchCover(ctx, rec.CoverURL)
		if err != nil {
			s.logger.Warn("cover fetch failed, embedding tags without art",
				"url", rec.CoverURL, "error", err)
		} else if len(artwork) > 0 {
			mime := http.DetectContentType(artwork[:min(len(artwork), 512)])
			meta.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingISO,
				MimeType:    mime,
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     artwork,
			})
		}
	}

	return meta.Save()
}

// FetchCoverFile downloads the cover to a JPEG suitable for a Telegram
// thumbnail and returns the encoded bytes.
func (s *Service) FetchCoverFile(ctx context.Context, coverURL string) ([]byte, error) {
	return s.fetchCover(ctx, coverURL)
}

func (s *Service) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxCoverBytes {
		return nil, fmt.Errorf("cover too large: over %d bytes", maxCoverBytes)
	}

	return shrinkCover(raw)
}

// shrinkCover downscales oversized covers to coverEdge on the long side and
// re-encodes as JPEG. Images already small enough pass through untouched.
func shrinkCover(raw []byte) ([]byte, error) {
	img, err := decodeJPEGOrPNG(raw)
	if err != nil {
		return nil, err
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width <= coverEdge && height <= coverEdge {
		return raw, nil
	}

	var m image.Image
	if width >= height {
		m = resize.Resize(coverEdge, uint(height*coverEdge/width), img, resize.Lanczos3)
	} else {
		m = resize.Resize(uint(width*coverEdge/height), coverEdge, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, m, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeJPEGOrPNG(raw []byte) (image.Image, error) {
	if img, err := jpeg.Decode(bytes.NewReader(raw)); err == nil {
		return img, nil
	}
	if img, err := png.Decode(bytes.NewReader(raw)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image decode error")
}
