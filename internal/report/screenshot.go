package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrNoDataURIHeader = errors.New("screenshot: missing data URI header")
	ErrEmptyScreenshot = errors.New("screenshot: empty image")
)

// DecodeScreenshot returns the bytes of a "<header>,<base64>" data URI.
func DecodeScreenshot(dataURI string) ([]byte, error) {
	_, payload, ok := strings.Cut(dataURI, ",")
	if !ok {
		return nil, ErrNoDataURIHeader
	}
	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyScreenshot
	}
	return data, nil
}
