package shortener

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a submitted long URL is not an absolute
// http or https URL.
var ErrInvalidURL = errors.New("invalid url")

// ValidateURL checks that raw is a well-formed absolute http(s) URL.
// It never touches the network.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidURL
	}

	if strings.ContainsAny(raw, " \t\r\n\"") {
		return ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}

	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}

	if u.Host == "" || u.Hostname() == "" {
		return ErrInvalidURL
	}

	return nil
}

// IsValidURL reports whether raw passes ValidateURL.
func IsValidURL(raw string) bool {
	return ValidateURL(raw) == nil
}
