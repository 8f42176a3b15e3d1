package viewer

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidSpan is returned for ranges outside the text or with start >= end.
var ErrInvalidSpan = errors.New("invalid span")

// Span returns the text between code-point offsets start (inclusive) and end
// (exclusive). content is only read.
func Span(content string, start, end int) (string, error) {
	n := utf8.RuneCountInString(content)
	if start < 0 || end > n || start >= end {
		return "", fmt.Errorf("%w: [%d,%d) of %d", ErrInvalidSpan, start, end, n)
	}

	i, from := 0, -1
	for pos := range content {
		if i == start {
			from = pos
		}
		if i == end {
			return content[from:pos], nil
		}
		i++
	}
	return content[from:], nil
}
