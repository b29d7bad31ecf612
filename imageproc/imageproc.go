package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Keep for decoding pngs
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // Keep for decoding webps
)

const jpegQuality = 90

// Downscale bounds an image to maxDim pixels on its longest side. Images
// already within bounds are returned unchanged; resized images are re-encoded
// as JPEG.
func Downscale(imgBytes []byte, maxDim int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDim && height <= maxDim {
		return imgBytes, nil
	}

	log.Printf("Image original size: %dx%d (%s). Resizing to max %d.", width, height, format, maxDim)
	thumbnail := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image to jpeg: %w", err)
	}

	log.Printf("Image resized to: %dx%d", thumbnail.Bounds().Dx(), thumbnail.Bounds().Dy())
	return buf.Bytes(), nil
}

// SaveLocalCopy writes imgBytes under dir with a timestamp filename. "png"
// (and "") writes the original bytes untouched; "jpeg" and "webp" re-encode.
// Returns the path written.
func SaveLocalCopy(dir string, imgBytes []byte, format string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	timestamp := time.Now().Format("20060102150405000")

	switch format {
	case "", "png":
		path := filepath.Join(dir, timestamp+".png")
		if err := os.WriteFile(path, imgBytes, 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil

	case "jpg", "jpeg":
		img, _, err := image.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}
		path := filepath.Join(dir, timestamp+".jpg")
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return "", fmt.Errorf("failed to encode image to jpeg: %w", err)
		}
		return path, nil

	case "webp":
		img, _, err := image.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, &webp.Options{Quality: jpegQuality}); err != nil {
			return "", fmt.Errorf("failed to encode image to webp: %w", err)
		}
		path := filepath.Join(dir, timestamp+".webp")
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil

	default:
		return "", fmt.Errorf("unsupported local copy format %q", format)
	}
}
