package service

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifFields are the EXIF tags shown next to an image, in display order.
var exifFields = []exif.FieldName{
	exif.DateTimeOriginal, exif.Make, exif.Model, exif.ExposureTime, exif.FNumber, exif.ISOSpeedRatings, exif.FocalLength,
}

// ImageInfo holds metadata about an image file.
type ImageInfo struct {
	Name     string
	Width    int
	Height   int
	Size     int64
	ModTime  time.Time
	EXIFData map[string]string
}

// Summary formats the info as a single status line.
func (info *ImageInfo) Summary() string {
	parts := []string{
		info.Name,
		fmt.Sprintf("%dx%d", info.Width, info.Height),
		formatSize(info.Size),
	}
	for _, f := range exifFields {
		if v, ok := info.EXIFData[string(f)]; ok && v != "" {
			parts = append(parts, strings.Trim(v, `"`))
		}
	}
	return strings.Join(parts, " | ")
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ImageService provides image loading and metadata extraction.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// GetEXIF extracts the common EXIF fields. Images without EXIF yield nil.
func (is *ImageService) GetEXIF(r io.Reader) map[string]string {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}
	result := make(map[string]string)
	for _, field := range exifFields {
		tag, err := x.Get(field)
		if err == nil && tag != nil {
			result[string(field)] = tag.String()
		}
	}
	return result
}

// GetImageInfo decodes the image at path and returns it with its metadata.
func (is *ImageService) GetImageInfo(path string) (*ImageInfo, image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	exifData := is.GetEXIF(f)
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("failed to seek in image file: %w", err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Name:     filepath.Base(path),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		EXIFData: exifData,
	}, img, nil
}
