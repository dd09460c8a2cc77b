// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"adstudio/internal/imaging"
	"adstudio/internal/models"
)

// maxReferenceImage is the decoded size limit of a reference image.
const maxReferenceImage = 10 << 20

var errNoImage = errors.New("No image provided.")

// imageInput is a reference image sent as base64, optionally as a data URL.
type imageInput struct {
	ImageBase64 string `json:"imageBase64"`
	MediaType   string `json:"mediaType"`
}

// decode returns the reference image. The declared media type is checked
// against the sniffed one so providers never receive a mislabeled image.
func (in imageInput) decode() (*models.ReferenceImage, error) {
	raw := strings.TrimSpace(in.ImageBase64)
	declared := strings.TrimSpace(in.MediaType)
	if raw == "" {
		return nil, errNoImage
	}
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("Image data URL must be base64 encoded.")
		}
		if declared == "" {
			declared = strings.TrimSuffix(meta, ";base64")
		}
		raw = payload
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > maxReferenceImage+3 {
		return nil, fmt.Errorf("Image too large (max %d MB).", maxReferenceImage>>20)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("Image is not valid base64.")
	}
	if len(data) > maxReferenceImage {
		return nil, fmt.Errorf("Image too large (max %d MB).", maxReferenceImage>>20)
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		return nil, errors.New("Image must be a PNG, JPEG, GIF or WebP file.")
	}
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != "" && declared != info.ContentType {
		return nil, fmt.Errorf("Declared media type %q does not match image content (%s).", declared, info.ContentType)
	}
	return &models.ReferenceImage{Data: data, MediaType: info.ContentType}, nil
}
