package conversations

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"leaddesk/db/dbtest"
	"leaddesk/models"
)

func TestResolveOrCreateReusesThreadPerPlatform(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t), 0)

	a, err := s.ResolveOrCreate(ctx, 1, models.ChannelWeb)
	require.NoError(t, err)
	b, err := s.ResolveOrCreate(ctx, 1, models.ChannelWeb)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	tg, err := s.ResolveOrCreate(ctx, 1, models.ChannelTelegram)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, tg.ID)

	other, err := s.ResolveOrCreate(ctx, 2, models.ChannelWeb)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, other.ID)

	list, err := s.ListByContact(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestResolveOrCreateSessionTimeout(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t), 30*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	first, err := s.ResolveOrCreate(ctx, 7, models.ChannelWhatsApp)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(10 * time.Minute) }
	same, err := s.ResolveOrCreate(ctx, 7, models.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	fresh, err := s.ResolveOrCreate(ctx, 7, models.ChannelWhatsApp)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID)
}

func TestAppendMessageAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t), 0)

	conv, err := s.ResolveOrCreate(ctx, 3, models.ChannelWeb)
	require.NoError(t, err)

	texts := []string{"hola", "¡Hola! ¿En qué te ayudo?", "precio", "Cuesta 1500 MXN."}
	for i, text := range texts {
		sender := models.MESSAGE_SENDER_USER
		if i%2 == 1 {
			sender = models.MESSAGE_SENDER_AGENT
		}
		_, err := s.AppendMessage(ctx, conv.ID, 3, sender, text, nil)
		require.NoError(t, err)
	}

	hist, err := s.History(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []string{texts[1], texts[2], texts[3]}, []string{hist[0].Content, hist[1].Content, hist[2].Content})

	all, err := s.Messages(ctx, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "hola", all[0].Content)

	none, err := s.History(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
}

func TestAppendMessageMetadataAndValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t), 0)

	msg, err := s.AppendMessage(ctx, 1, 1, models.MESSAGE_SENDER_AGENT, "hi", map[string]any{"fallback": true})
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Metadata), &meta))
	assert.Equal(t, true, meta["fallback"])

	_, err = s.AppendMessage(ctx, 1, 1, "system", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidSender)

	_, err = s.Get(ctx, 12345)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
