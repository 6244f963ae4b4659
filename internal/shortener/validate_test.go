package shortener_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zx8086/url-shortener/internal/shortener"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "https with path", input: "https://example.com/path", valid: true},
		{name: "http root", input: "http://example.com", valid: true},
		{name: "uppercase scheme", input: "HTTPS://EXAMPLE.COM/a", valid: true},
		{name: "port and query", input: "https://example.com:8443/a/b?x=1&y=2#frag", valid: true},
		{name: "ip host", input: "http://127.0.0.1:3005/abc", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "whitespace only", input: "   ", valid: false},
		{name: "plain words", input: "not a url", valid: false},
		{name: "missing scheme", input: "example.com/path", valid: false},
		{name: "relative path", input: "/just/a/path", valid: false},
		{name: "ftp scheme", input: "ftp://example.com/file", valid: false},
		{name: "javascript scheme", input: "javascript:alert(1)", valid: false},
		{name: "missing host", input: "https:///path", valid: false},
		{name: "embedded space", input: "https://example.com/a b", valid: false},
		{name: "embedded quote", input: `https://example.com/"x"`, valid: false},
		{name: "unparseable", input: "http://[::1", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := shortener.ValidateURL(tt.input)

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shortener.ErrInvalidURL)
			}

			assert.Equal(t, tt.valid, shortener.IsValidURL(tt.input))
		})
	}
}
