package assets

import (
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultExtension is used when the content type is not a known image type.
const DefaultExtension = "png"

// DefaultMIMEType is used when a filename extension is not recognised.
const DefaultMIMEType = "image/jpeg"

var mimeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// AllowedExtensions is the upload whitelist.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// ExtensionFor maps a content type (a header value or a sniffed type) to a
// file extension.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "gif"):
		return "gif"
	case strings.Contains(ct, "webp"):
		return "webp"
	}
	return DefaultExtension
}

// SniffExtension picks an extension from the leading bytes of data.
func SniffExtension(data []byte) string {
	return ExtensionFor(http.DetectContentType(data))
}

// MIMETypeFor derives a MIME type from the extension of filename.
func MIMETypeFor(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	return DefaultMIMEType
}

// IsAllowedExtension reports whether filename carries a whitelisted
// image extension.
func IsAllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	_, ok := mimeByExt[ext]
	return ok
}
