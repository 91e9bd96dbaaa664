package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "cuanto cuesta", Fold("¿Cuánto   cuesta?"))
	assert.Equal(t, "what s the price", Fold("What's the price?"))
	assert.Equal(t, "informacion del demo", Fold("INFORMACIÓN del demo!!"))
	assert.Equal(t, "", Fold("  ¿¡!? "))
}

func TestHasPhrase(t *testing.T) {
	text := Fold("No, gracias. Nombre: Ana")
	assert.True(t, HasPhrase(text, "no"))
	assert.True(t, HasPhrase(text, "no gracias"))
	assert.False(t, HasPhrase(Fold("nombre"), "no"))
	assert.False(t, HasPhrase(text, ""))
}

func TestRemovePhrase(t *testing.T) {
	assert.Equal(t, "thanks", RemovePhrase(Fold("Not interested, thanks"), "not interested"))
	assert.Equal(t, "a b", RemovePhrase("x a x b x", "x"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+5215535913417", NormalizePhone(" +52 1 (55) 3591-3417 "))
	assert.Equal(t, "5535913417", NormalizePhone("55 3591 3417"))
	assert.Equal(t, "+1000", NormalizePhone("+1000"))
	assert.Equal(t, "", NormalizePhone("12"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestNormalizeWhatsAppTo(t *testing.T) {
	got, err := NormalizeWhatsAppTo("+52 155 3591 3417")
	require.NoError(t, err)
	assert.Equal(t, "5215535913417", got)

	_, err = NormalizeWhatsAppTo("123")
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@acme.mx", NormalizeEmail("  Ana@ACME.mx "))
	assert.Equal(t, "", NormalizeEmail("not-an-email"))
}

func TestWhatsAppClientSendText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/PHONE_ID/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := WhatsAppClient{AccessToken: "tok", PhoneNumberID: "PHONE_ID", BaseURL: srv.URL}
	require.NoError(t, c.SendText(context.Background(), "+52 1 55 3591 3417", "hola"))

	assert.Equal(t, "5215535913417", got["to"])
	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, map[string]any{"body": "hola"}, got["text"])
}

func TestWhatsAppClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := WhatsAppClient{AccessToken: "tok", PhoneNumberID: "PHONE_ID", BaseURL: srv.URL}
	err := c.SendText(context.Background(), "5215535913417", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	assert.Error(t, WhatsAppClient{}.SendText(context.Background(), "5215535913417", "hola"))
}

func TestMessengerClientSendText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/me/messages", r.URL.Path)
		assert.Equal(t, "Bearer page-tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"recipient_id":"PSID","message_id":"m_1"}`))
	}))
	defer srv.Close()

	c := MessengerClient{PageAccessToken: "page-tok", BaseURL: srv.URL}
	require.NoError(t, c.SendText(context.Background(), "PSID", "hola"))

	assert.Equal(t, map[string]any{"id": "PSID"}, got["recipient"])
	assert.Equal(t, "RESPONSE", got["messaging_type"])
	assert.Equal(t, map[string]any{"text": "hola"}, got["message"])
}

func TestMessengerClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := MessengerClient{Platform: "instagram", PageAccessToken: "tok", PageID: "PAGE", BaseURL: srv.URL}
	err := c.SendText(context.Background(), "IGSID", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instagram api error")
	assert.Contains(t, err.Error(), "status=400")

	assert.Error(t, c.SendText(context.Background(), " ", "hola"))
	assert.Error(t, MessengerClient{}.SendText(context.Background(), "PSID", "hola"))
}
