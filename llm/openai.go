package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"leaddesk/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient talks to any OpenAI-compatible endpoint (OpenAI, DashScope
// compatible mode, ...). It implements Completer and knowledge.Embedder.
type OpenAIClient struct {
	client         openai.Client
	model          string
	embeddingModel string
}

// NewOpenAIClient returns ErrNotConfigured when no API key is set.
func NewOpenAIClient(c config.LLMConfig, extra ...option.RequestOption) (*OpenAIClient, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultLLMTimeout) * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(c.APIKey)),
		option.WithMaxRetries(c.Retries()),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	opts = append(opts, extra...)

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		model:          c.Model,
		embeddingModel: c.EmbeddingModel,
	}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, t := range req.History {
		switch t.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errEmptyReply
	}
	return Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Embed returns the embedding of text using the configured embedding model.
func (o *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(o.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding")
	}
	return resp.Data[0].Embedding, nil
}
