package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MessengerClient sends replies through the Messenger Send API. Instagram
// Direct uses the same endpoint with the token of the page linked to the
// Instagram account, so one client type serves both channels.
type MessengerClient struct {
	Platform        string // "messenger" ou "instagram", só para mensagens de erro
	PageAccessToken string
	ApiVersion      string
	// PageID defaults to "me" (the page that owns the token).
	PageID string

	BaseURL    string
	HTTPClient *http.Client
}

func (c MessengerClient) Configured() bool {
	return strings.TrimSpace(c.PageAccessToken) != ""
}

// SendText replies to a page-scoped (or Instagram-scoped) user id.
func (c MessengerClient) SendText(ctx context.Context, to string, text string) error {
	name := c.Platform
	if name == "" {
		name = "messenger"
	}
	if !c.Configured() {
		return fmt.Errorf("%s: page access token not set", name)
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New(name + ": empty recipient id")
	}
	page := strings.TrimSpace(c.PageID)
	if page == "" {
		page = "me"
	}

	url := graphURL(c.BaseURL, c.ApiVersion, page, "messages")
	err := graphPost(ctx, c.HTTPClient, c.PageAccessToken, url, map[string]any{
		"recipient":      map[string]any{"id": to},
		"messaging_type": "RESPONSE",
		"message":        map[string]any{"text": text},
	})
	if err != nil {
		return fmt.Errorf("%s api error: %w", name, err)
	}
	return nil
}
