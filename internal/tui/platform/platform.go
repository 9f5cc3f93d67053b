package platform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/skratchdot/open-golang/open"
)

// ValidateTweetURL accepts absolute http(s) URLs only.
func ValidateTweetURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("tweet has no URL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL host")
	}
	return trimmed, nil
}

func OpenURLInBrowser(rawURL string) error {
	valid, err := ValidateTweetURL(rawURL)
	if err != nil {
		return err
	}
	if err := open.Start(valid); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

func CopyURLToClipboard(rawURL string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard command available")
	}
	if err := clipboard.WriteAll(rawURL); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
