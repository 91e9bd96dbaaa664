package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"leaddesk/config"
	"leaddesk/knowledge"
	"leaddesk/models"
)

var testHuman = config.HumanContactConfig{Phone: "5535913417", SchedulingURL: "https://calendly.com/scaie/consulta"}

func testOptions() Options {
	return Options{
		Model:        "qwen-plus",
		Temperature:  0.7,
		MaxTokens:    256,
		Timeout:      2 * time.Second,
		HistoryTurns: 2,
		Persona:      config.AgentConfig{Name: "Sofía", WorkshopTitle: "Sé más eficiente con IA", Tone: "cercano"},
		Human:        testHuman,
	}
}

type fakeCompleter struct {
	got   CompletionRequest
	reply Completion
	err   error
	block bool
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	f.got = req
	if f.block {
		<-ctx.Done()
		return Completion{}, ctx.Err()
	}
	return f.reply, f.err
}

func TestGenerateWithoutCredentialServesNotConfiguredReply(t *testing.T) {
	g := NewGateway(nil, testOptions(), zaptest.NewLogger(t))

	r := g.Generate(context.Background(), Request{UserMessage: "hola"})
	assert.True(t, r.Fallback)
	assert.Equal(t, ClassUnauthorized, r.Class)
	assert.ErrorIs(t, r.Err, ErrNotConfigured)
	assert.Contains(t, r.Text, testHuman.Phone)
	assert.Contains(t, r.Text, testHuman.SchedulingURL)
	assert.False(t, g.Configured())
}

func TestGenerateCleansReplyAndBoundsHistory(t *testing.T) {
	fc := &fakeCompleter{reply: Completion{Text: "  **claro**, el taller dura 2 horas  ", PromptTokens: 12, CompletionTokens: 8}}
	g := NewGateway(fc, testOptions(), zaptest.NewLogger(t))

	r := g.Generate(context.Background(), Request{
		UserMessage: "  ¿cuánto dura?  ",
		Contact:     ContactView{Name: "Ana", Company: "Acme", InterestLevel: models.InterestContacted, Channel: models.ChannelWeb},
		Knowledge:   []knowledge.Snippet{{Title: "Duración", Text: "2 o 4 horas"}},
		History: []Turn{
			{Role: RoleUser, Content: "hola"},
			{Role: RoleAssistant, Content: "¡Hola!"},
			{Role: RoleUser, Content: "info"},
		},
	})
	require.False(t, r.Fallback)
	assert.Equal(t, "Claro, el taller dura 2 horas.", r.Text)

	assert.Equal(t, "¿cuánto dura?", fc.got.User)
	assert.Len(t, fc.got.History, 2)
	assert.Equal(t, "¡Hola!", fc.got.History[0].Content)
	assert.Equal(t, 256, fc.got.MaxTokens)
	assert.InDelta(t, 0.7, fc.got.Temperature, 1e-9)
	assert.Contains(t, fc.got.System, "Sofía")
	assert.Contains(t, fc.got.System, "Duración: 2 o 4 horas")
	assert.Contains(t, fc.got.System, "empresa Acme")
	assert.Contains(t, fc.got.System, "Fase: descubrimiento")
}

func TestGenerateFallbackClasses(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		class ErrorClass
	}{
		{"rate limited", &Error{Class: ClassRateLimited, StatusCode: 429, Err: errors.New("slow down")}, ClassRateLimited},
		{"deadline", context.DeadlineExceeded, ClassUpstream},
		{"unknown", errors.New("boom"), ClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGateway(&fakeCompleter{err: tc.err}, testOptions(), zaptest.NewLogger(t))
			r := g.Generate(context.Background(), Request{UserMessage: "hola"})
			assert.True(t, r.Fallback)
			assert.Equal(t, tc.class, r.Class)
			assert.Contains(t, r.Text, testHuman.Phone)
			assert.Contains(t, r.Text, testHuman.SchedulingURL)
		})
	}
}

func TestGenerateEmptyCompletionIsUpstream(t *testing.T) {
	g := NewGateway(&fakeCompleter{reply: Completion{Text: " ** "}}, testOptions(), zaptest.NewLogger(t))
	r := g.Generate(context.Background(), Request{UserMessage: "hola"})
	assert.True(t, r.Fallback)
	assert.Equal(t, ClassUpstream, r.Class)
}

func TestGenerateTimesOut(t *testing.T) {
	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	g := NewGateway(&fakeCompleter{block: true}, opts, zaptest.NewLogger(t))

	start := time.Now()
	r := g.Generate(context.Background(), Request{UserMessage: "hola"})
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, r.Fallback)
	assert.Equal(t, ClassUpstream, r.Class)
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"hola":                             "Hola.",
		"## Precios\n\n\n\n**Básico**: $1,499": "Precios\n\nBásico: $1,499.",
		"¡hola! ¿cómo estás?":              "¡Hola! ¿cómo estás?",
		"`code` y __nada__":                "Code y nada.",
		"3 herramientas":                   "3 herramientas.",
		"listo :)":                         "Listo :)",
		"   ":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "input %q", in)
	}
}

func TestBuildSystemPromptCapsSnippets(t *testing.T) {
	long := strings.Repeat("a", 1000)
	p := BuildSystemPrompt(config.AgentConfig{Name: "Sofía"}, testHuman,
		ContactView{Name: models.UnknownContactName, InterestLevel: models.InterestInterested},
		[]knowledge.Snippet{{Title: "Largo", Text: long}})

	assert.Contains(t, p, strings.Repeat("a", maxSnippetChars)+"...")
	assert.NotContains(t, p, strings.Repeat("a", maxSnippetChars+1))
	assert.Contains(t, p, "nombre desconocido")
	assert.Contains(t, p, testHuman.SchedulingURL)
	assert.Contains(t, p, "interés interested")
}

func TestTurnsFromMessages(t *testing.T) {
	turns := TurnsFromMessages([]models.Message{
		{Sender: models.MESSAGE_SENDER_USER, Content: "hola"},
		{Sender: models.MESSAGE_SENDER_AGENT, Content: "¡Hola!"},
		{Sender: models.MESSAGE_SENDER_USER, Content: " "},
	})
	assert.Equal(t, []Turn{{RoleUser, "hola"}, {RoleAssistant, "¡Hola!"}}, turns)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorClass(""), Classify(nil))
	assert.Equal(t, ClassUnauthorized, Classify(ErrNotConfigured))
	assert.Equal(t, ClassUpstream, Classify(context.Canceled))
	assert.Equal(t, ClassRateLimited, classifyStatus(429))
	assert.Equal(t, ClassUnauthorized, classifyStatus(403))
	assert.Equal(t, ClassUpstream, classifyStatus(502))
	assert.Equal(t, ClassUnknown, classifyStatus(400))
}

/************************************************
/**** MARK: OPENAI CLIENT ****/
/************************************************/

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(config.LLMConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		Model:          "qwen-plus",
		EmbeddingModel: "text-embedding-v3",
		TimeoutSeconds: 5,
	}, option.WithMaxRetries(0))
	require.NoError(t, err)
	return c
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(config.LLMConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIClientComplete(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "qwen-plus",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "¡Hola! ¿En qué te ayudo?"}}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 7, "total_tokens": 27}
		}`))
	})

	out, err := c.Complete(context.Background(), CompletionRequest{
		System:      "sys",
		History:     []Turn{{Role: RoleUser, Content: "hola"}, {Role: RoleAssistant, Content: "hey"}},
		User:        "info",
		Temperature: 0.5,
		MaxTokens:   64,
	})
	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿En qué te ayudo?", out.Text)
	assert.EqualValues(t, 20, out.PromptTokens)
	assert.EqualValues(t, 7, out.CompletionTokens)

	assert.Equal(t, "qwen-plus", body["model"])
	assert.EqualValues(t, 64, body["max_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[3].(map[string]any)["role"])
}

func TestOpenAIClientErrorsAreClassified(t *testing.T) {
	cases := map[int]ErrorClass{
		http.StatusTooManyRequests:     ClassRateLimited,
		http.StatusUnauthorized:        ClassUnauthorized,
		http.StatusInternalServerError: ClassUpstream,
	}
	for status, want := range cases {
		status, want := status, want
		t.Run(http.StatusText(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "error", "code": "x"}}`))
			})
			_, err := c.Complete(context.Background(), CompletionRequest{User: "hola"})
			require.Error(t, err)
			assert.Equal(t, want, Classify(err))
		})
	}
}

func TestOpenAIClientEmbed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "model": "text-embedding-v3",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}],
			"usage": {"prompt_tokens": 3, "total_tokens": 3}}`))
	})

	v, err := c.Embed(context.Background(), "precio")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, v)

	_, err = c.Embed(context.Background(), " ")
	assert.Error(t, err)
}
