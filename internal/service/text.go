package service

import (
	"strings"
	"unicode/utf8"

	"mysns/internal/model"
)

// normalizeContent trims surrounding whitespace and enforces 0 < runes <= max.
func normalizeContent(content string, max int, tooLong error) (string, error) {
	trimmed := strings.TrimSpace(content)
	switch n := utf8.RuneCountInString(trimmed); {
	case n == 0:
		return "", model.ErrContentRequired
	case n > max:
		return "", tooLong
	}
	return trimmed, nil
}
