package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpan(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		start, end int
		want       string
		wantErr    bool
	}{
		{name: "ascii middle", content: "hello world", start: 6, end: 11, want: "world"},
		{name: "whole text", content: "abc", start: 0, end: 3, want: "abc"},
		{name: "single rune", content: "abc", start: 1, end: 2, want: "b"},
		{name: "multibyte", content: "naïve café", start: 2, end: 7, want: "ïve c"},
		{name: "emoji at end", content: "ok 👍", start: 3, end: 4, want: "👍"},
		{name: "newlines kept", content: "a\nb\nc", start: 1, end: 4, want: "\nb\n"},
		{name: "empty range", content: "abc", start: 1, end: 1, wantErr: true},
		{name: "reversed", content: "abc", start: 2, end: 1, wantErr: true},
		{name: "negative start", content: "abc", start: -1, end: 2, wantErr: true},
		{name: "past end", content: "abc", start: 0, end: 4, wantErr: true},
		{name: "byte length is not rune length", content: "éé", start: 0, end: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Span(tt.content, tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpan)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
