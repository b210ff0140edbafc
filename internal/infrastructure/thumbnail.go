package infrastructure

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp"
)

// maxCoverEdge bounds the embedded cover's width and height. Larger source
// images are downscaled preserving aspect ratio; smaller ones are kept as is.
const maxCoverEdge = 500

// ThumbnailEmbedder implements domain.CoverEmbedder: it fetches a thumbnail
// over HTTP, normalizes it to a bounded JPEG and writes it into the audio
// file's ID3 tag as front cover art.
type ThumbnailEmbedder struct {
	client *http.Client
	logger *zap.Logger
}

// NewThumbnailEmbedder creates a new thumbnail embedder
func NewThumbnailEmbedder(log *zap.Logger) *ThumbnailEmbedder {
	return &ThumbnailEmbedder{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

// EmbedCover fetches thumbnailURL and embeds it into filePath. Cover art is
// cosmetic, so callers treat a returned error as non-fatal.
func (t *ThumbnailEmbedder) EmbedCover(filePath, thumbnailURL string) error {
	if thumbnailURL == "" {
		return nil
	}

	jpegData, err := t.fetchAsJPEG(thumbnailURL)
	if err != nil {
		t.logger.Warn("Failed to prepare cover art",
			zap.String("url", thumbnailURL),
			zap.Error(err))
		return err
	}

	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tag: %w", err)
	}
	defer tag.Close()

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     jpegData,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}

	t.logger.Debug("Embedded cover art",
		zap.String("file", filePath),
		zap.Int("bytes", len(jpegData)))
	return nil
}

// fetchAsJPEG downloads the image and re-encodes it as a bounded JPEG
func (t *ThumbnailEmbedder) fetchAsJPEG(url string) ([]byte, error) {
	resp, err := t.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	img = boundImage(img, maxCoverEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// boundImage downscales img so neither dimension exceeds maxEdge, never
// upscaling.
func boundImage(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	if w >= h {
		return resize.Resize(uint(maxEdge), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxEdge), img, resize.Lanczos3)
}
