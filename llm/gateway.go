// Package llm generates sales replies through a chat-completion endpoint and
// turns every failure into a safe canned reply.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"leaddesk/config"
	"leaddesk/knowledge"

	"go.uber.org/zap"
)

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	System      string
	History     []Turn
	User        string
	Temperature float64
	MaxTokens   int
}

// Completion is the raw model output plus token usage.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Completer calls a chat-completion endpoint.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Request is everything Generate needs for one reply.
type Request struct {
	UserMessage string
	Contact     ContactView
	Knowledge   []knowledge.Snippet
	History     []Turn
}

// Reply is always usable as the text sent to the user. Fallback is set when
// Text is a canned message; Class and Err then describe the failure.
type Reply struct {
	Text     string
	Fallback bool
	Class    ErrorClass
	Err      error
}

type Options struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	HistoryTurns int
	Persona      config.AgentConfig
	Human        config.HumanContactConfig
}

// OptionsFromConfig reads gateway options from the service configuration.
func OptionsFromConfig(c config.Configuration) Options {
	return Options{
		Model:        c.LLM.Model,
		Temperature:  c.LLM.Temperature,
		MaxTokens:    c.LLM.MaxTokens,
		Timeout:      c.LLMTimeout(),
		HistoryTurns: c.LLM.HistoryTurns,
		Persona:      c.Agent,
		Human:        c.HumanContact,
	}
}

type Gateway struct {
	completer Completer
	opts      Options
	log       *zap.Logger
}

// NewGateway builds a gateway. A nil completer means no credential is
// configured: every call returns the "not configured" reply.
func NewGateway(completer Completer, opts Options, log *zap.Logger) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	if opts.HistoryTurns < 0 {
		opts.HistoryTurns = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{completer: completer, opts: opts, log: log.With(zap.String("service", "llm"))}
}

// Configured reports whether a completer is wired.
func (g *Gateway) Configured() bool {
	return g.completer != nil
}

// Generate never fails: on any error it returns a fallback that includes the
// configured phone number and scheduling link.
func (g *Gateway) Generate(ctx context.Context, req Request) Reply {
	if g.completer == nil {
		return g.fallback(ClassUnauthorized, ErrNotConfigured)
	}
	user := strings.TrimSpace(req.UserMessage)
	if user == "" {
		return g.fallback(ClassUnknown, errors.New("empty user message"))
	}

	history := req.History
	if n := g.opts.HistoryTurns; len(history) > n {
		history = history[len(history)-n:]
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	out, err := g.completer.Complete(ctx, CompletionRequest{
		System:      BuildSystemPrompt(g.opts.Persona, g.opts.Human, req.Contact, req.Knowledge),
		History:     history,
		User:        user,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	elapsed := time.Since(start)

	var text string
	if err == nil {
		text = Clean(out.Text)
		if text == "" {
			err = &Error{Class: ClassUpstream, Err: errEmptyReply}
		}
	}
	if err != nil {
		class := Classify(err)
		llmLatency.WithLabelValues(g.opts.Model, string(class)).Observe(elapsed.Seconds())
		g.log.Warn("completion failed, serving fallback",
			zap.String("class", string(class)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return g.fallback(class, err)
	}

	llmLatency.WithLabelValues(g.opts.Model, "ok").Observe(elapsed.Seconds())
	if out.PromptTokens > 0 {
		llmTokensTotal.WithLabelValues(g.opts.Model, "input").Add(float64(out.PromptTokens))
	}
	if out.CompletionTokens > 0 {
		llmTokensTotal.WithLabelValues(g.opts.Model, "output").Add(float64(out.CompletionTokens))
	}
	g.log.Debug("completion ok",
		zap.Duration("elapsed", elapsed),
		zap.Int64("prompt_tokens", out.PromptTokens),
		zap.Int64("completion_tokens", out.CompletionTokens),
	)
	return Reply{Text: text}
}

func (g *Gateway) fallback(class ErrorClass, err error) Reply {
	llmFallbacksTotal.WithLabelValues(string(class)).Inc()
	return Reply{
		Text:     fallbackText(class, errors.Is(err, ErrNotConfigured), g.opts.Human),
		Fallback: true,
		Class:    class,
		Err:      err,
	}
}
