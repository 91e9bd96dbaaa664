package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const graphBaseURL = "https://graph.facebook.com"

// WhatsAppClient is a thin client for the WhatsApp Cloud API.
type WhatsAppClient struct {
	AccessToken   string
	ApiVersion    string // e.g. v20.0
	PhoneNumberID string

	// BaseURL overrides the Graph API host (tests).
	BaseURL    string
	HTTPClient *http.Client
}

// Configured reports whether the client has credentials to send messages.
func (c WhatsAppClient) Configured() bool {
	return strings.TrimSpace(c.AccessToken) != "" && strings.TrimSpace(c.PhoneNumberID) != ""
}

func (c WhatsAppClient) post(ctx context.Context, path string, body any) error {
	if !c.Configured() {
		return errors.New("whatsapp: access token or phone number id not set")
	}
	url := graphURL(c.BaseURL, c.ApiVersion, strings.TrimSpace(c.PhoneNumberID), path)
	if err := graphPost(ctx, c.HTTPClient, c.AccessToken, url, body); err != nil {
		return fmt.Errorf("whatsapp api error: %w", err)
	}
	return nil
}

func graphURL(base, apiVersion string, parts ...string) string {
	apiVersion = strings.TrimSpace(apiVersion)
	if apiVersion == "" {
		apiVersion = "v20.0"
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = graphBaseURL
	}
	return base + "/" + apiVersion + "/" + strings.Join(parts, "/")
}

// graphPost sends a JSON body to the Graph API with a bearer token.
func graphPost(ctx context.Context, httpClient *http.Client, token, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	req.Header.Set("Content-Type", "application/json")

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}

// SendText sends a text message to a WhatsApp user.
func (c WhatsAppClient) SendText(ctx context.Context, to string, text string) error {
	phone, err := NormalizeWhatsAppTo(to)
	if err != nil {
		return err
	}
	return c.post(ctx, "messages", map[string]any{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text": map[string]any{
			"body": text,
		},
	})
}
