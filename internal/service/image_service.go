package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 5
	PreviewMaxSize              = 640
	WebPQuality                 = 70
	// MaxImagePixels caps width*height so a small file cannot declare a
	// bitmap too large to decode in memory.
	MaxImagePixels = 40_000_000

	postImageDir   = "posts"
	postPreviewDir = "previews"
)

// ImageStore persists post images and returns their media-relative path.
type ImageStore interface {
	Save(ctx context.Context, in Upload) (string, error)
}

// ImageService validates uploads and writes them below the media root
// together with a WebP preview.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxBytes := int64(DefaultImageMaxUploadSizeMB) * 1024 * 1024

	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadMB > 0 {
			maxBytes = cfg.ImageMaxUploadBytes()
		}
	}

	return &ImageService{mediaRoot: mediaRoot, maxUploadSizeBytes: maxBytes}
}

func imageFieldError(msg string) error {
	errs := models.FieldErrors{}
	errs.Add("image", msg)
	return models.NewFieldValidationError(errs)
}

// Save stores in as posts/<uuid>.<ext>. Rejections are field errors on image.
func (s *ImageService) Save(_ context.Context, in Upload) (string, error) {
	if len(in.Content) == 0 {
		return "", imageFieldError("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", imageFieldError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", imageFieldError(MsgInvalidImage)
	}

	dims, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || dims.Width <= 0 || dims.Height <= 0 {
		return "", imageFieldError(MsgInvalidImage)
	}
	if int64(dims.Width)*int64(dims.Height) > MaxImagePixels {
		return "", imageFieldError(fmt.Sprintf("Image is too large (max %d megapixels).", MaxImagePixels/1_000_000))
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", imageFieldError(MsgInvalidImage)
	}
	ext, ok := extensionForFormat(format)
	if !ok {
		return "", imageFieldError(MsgInvalidImage)
	}

	name := uuid.NewString()
	rel := path.Join(postImageDir, name+ext)
	if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(rel)), in.Content); err != nil {
		return "", models.NewInternalError(err)
	}

	// The preview is best effort; DisplayImagePath falls back to the original.
	if preview, err := encodeWebP(resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize), WebPQuality); err == nil {
		previewRel := path.Join(postImageDir, postPreviewDir, name+".webp")
		if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(previewRel)), preview); err != nil {
			middleware.Logger.Warn("Failed to write image preview", slog.String("path", previewRel), slog.String("error", err.Error()))
		}
	} else {
		middleware.Logger.Warn("Failed to encode image preview", slog.String("error", err.Error()))
	}

	observability.ImagesStored.WithLabelValues(format).Inc()
	return rel, nil
}

// DisplayImagePath returns the media-relative path to show for a stored
// image: its preview when one was written, otherwise the original.
func DisplayImagePath(mediaRoot, rel string) string {
	if rel == "" {
		return ""
	}
	preview := PreviewPath(rel)
	if _, err := os.Stat(filepath.Join(mediaRoot, filepath.FromSlash(preview))); err == nil {
		return preview
	}
	return rel
}

// PreviewPath maps a stored image path to its WebP preview.
func PreviewPath(rel string) string {
	if rel == "" {
		return ""
	}
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	return path.Join(path.Dir(rel), postPreviewDir, base+".webp")
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func extensionForFormat(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "jpeg":
		return ".jpg", true
	case "png":
		return ".png", true
	case "gif":
		return ".gif", true
	case "webp":
		return ".webp", true
	default:
		return "", false
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
