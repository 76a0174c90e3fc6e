package domain

import (
	"mime"
	"strings"
)

// MaxImageSize アップロード画像の上限（10MB）
const MaxImageSize = 10 * 1024 * 1024

var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// NormalizeMimeType パラメータを除去して小文字化（image/jpg は image/jpeg に揃える）
func NormalizeMimeType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}

// IsSupportedMimeType 対応している画像形式かどうか
func IsSupportedMimeType(mimeType string) bool {
	return supportedMimeTypes[NormalizeMimeType(mimeType)]
}

// ValidateImage 画像データとMIMEタイプを検証
func ValidateImage(imageData []byte, mimeType string) error {
	if len(imageData) == 0 {
		return NewInvalidInputError("image data is empty")
	}

	if len(imageData) > MaxImageSize {
		return NewInvalidInputError("image size exceeds 10MB")
	}

	if !IsSupportedMimeType(mimeType) {
		return NewInvalidInputError("unsupported image type: %q", mimeType)
	}

	return nil
}
