package assets

import (
	"encoding/base64"
	"strings"

	"github.com/dmitrijs2005/closetsync/internal/common"
)

// EncodeDataURL renders data as "data:<mime>;base64,<payload>".
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether s looks like a data URL rather than a remote URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL parses a base64 data URL. A bare base64 payload without the
// "data:" header is accepted and reported with an empty MIME type.
func DecodeDataURL(s string) (mimeType string, data []byte, err error) {
	payload := s
	if header, rest, found := strings.Cut(s, ","); found {
		if !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
			return "", nil, common.Validationf("unsupported data url header %q", header)
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = rest
	}

	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, common.Validationf("invalid base64 payload: %v", err)
	}
	if len(data) == 0 {
		return "", nil, common.Validationf("empty image data")
	}
	return mimeType, data, nil
}
