package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/diogo/streamchat/internal/models"
)

// NormalizeURL turns user input such as "localhost:8000" or
// "http://host:8000" into a WebSocket URL ending in the chat path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DefaultServerURL, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = models.ChatPath
	}

	normalized := u.String()
	if err := ValidateURL(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func payloadJSON(text string) string {
	data, _ := json.Marshal(models.Payload{Message: text})
	return string(data)
}
