// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded raster images and produces thumbnails.
// Decoding covers JPEG, PNG, GIF and WebP; vector formats such as SVG are
// not raster images and are reported as unsupported.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ThumbWidth is the default maximum thumbnail width in pixels.
const ThumbWidth = 320

// jpegQuality is used for opaque thumbnails.
const jpegQuality = 80

// ErrUnsupported is returned for formats the package cannot decode.
var ErrUnsupported = errors.New("imaging: unsupported image format")

// rasterTypes lists the MIME types this package can decode.
var rasterTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsRaster reports whether the MIME type is a decodable raster format.
func IsRaster(mimeType string) bool {
	return rasterTypes[mimeType]
}

// Info describes a probed image.
type Info struct {
	Width  int
	Height int
	Format string // "jpeg", "png", "gif" or "webp"
}

// Probe reads only the image header and returns its dimensions.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrUnsupported
		}
		return Info{}, fmt.Errorf("imaging: probe: %w", err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Thumbnail holds one encoded thumbnail ready for upload.
type Thumbnail struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
	Ext         string
}

// MakeThumbnail scales the image down to maxWidth (keeping the aspect
// ratio) and encodes it. Images already narrower than maxWidth are
// re-encoded at their original size. Formats that may carry transparency
// are encoded as PNG, everything else as JPEG.
func MakeThumbnail(data []byte, maxWidth int) (*Thumbnail, error) {
	if maxWidth <= 0 {
		maxWidth = ThumbWidth
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	w, h := fitWidth(src.Bounds().Dx(), src.Bounds().Dy(), maxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	thumb := &Thumbnail{Width: w, Height: h}
	switch format {
	case "png", "gif", "webp":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
		thumb.ContentType, thumb.Ext = "image/png", ".png"
	default:
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
		thumb.ContentType, thumb.Ext = "image/jpeg", ".jpg"
	}
	thumb.Data = buf.Bytes()
	return thumb, nil
}

// fitWidth returns dimensions no wider than maxWidth with the same aspect
// ratio. It never upscales and never returns a zero dimension.
func fitWidth(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w == 0 {
		return max(w, 1), max(h, 1)
	}
	nh := h * maxWidth / w
	return maxWidth, max(nh, 1)
}
