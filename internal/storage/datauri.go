package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURI decodes an image payload sent by the browser. Payloads
// arrive either as a data URI ("data:image/png;base64,....") or as bare
// base64; bare payloads default to image/jpeg.
func DecodeDataURI(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", fmt.Errorf("empty image payload")
	}

	contentType := "image/jpeg"
	encoded := payload

	if strings.HasPrefix(payload, "data:") {
		header, rest, ok := strings.Cut(payload[len("data:"):], ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		if mime, _, _ := strings.Cut(header, ";"); mime != "" {
			contentType = mime
		}
		encoded = rest
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return data, contentType, nil
}

// extensionFor maps a content type to the object key extension.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
