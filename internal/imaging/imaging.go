// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded images and produces PNG thumbnails for
// the brand asset library.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// ThumbWidth is the default thumbnail width in pixels.
	ThumbWidth = 400

	// maxPixels caps decoded image area to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxPixels = 100_000_000
)

// ErrUnsupported is returned for content that is not an accepted image type.
var ErrUnsupported = errors.New("unsupported image type")

// allowedTypes maps accepted MIME types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Info describes an uploaded image.
type Info struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Inspect sniffs the content type of data and reads its dimensions without
// a full decode.
func Inspect(data []byte) (Info, error) {
	ct := http.DetectContentType(data)
	ext, ok := allowedTypes[ct]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return Info{}, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
	}
	return Info{ContentType: ct, Ext: ext, Width: cfg.Width, Height: cfg.Height}, nil
}

// IsImage reports whether ct is an accepted image MIME type.
func IsImage(ct string) bool {
	_, ok := allowedTypes[ct]
	return ok
}

// Thumbnail returns a PNG copy of data scaled down to maxWidth, preserving
// the aspect ratio. It returns nil when the image is already narrow enough.
// GIFs are skipped to keep their animation.
func Thumbnail(data []byte, maxWidth int) ([]byte, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if info.ContentType == "image/gif" || info.Width <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	height := int(float64(bounds.Dy()) * float64(maxWidth) / float64(bounds.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPNG reports whether data is a decodable PNG. Exports from the browser
// must be PNG.
func IsPNG(data []byte) bool {
	if http.DetectContentType(data) != "image/png" {
		return false
	}
	_, err := png.DecodeConfig(bytes.NewReader(data))
	return err == nil
}
