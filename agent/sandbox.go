package agent

import (
	"context"
	"strings"

	"leaddesk/interest"
	"leaddesk/knowledge"
	"leaddesk/llm"
	"leaddesk/models"
	"leaddesk/tasks"

	"go.uber.org/zap"
)

// SandboxContactName is the persona operators chat as in the sandbox.
const SandboxContactName = "Usuario de Prueba"

// Preview is what a message would produce for a contact at a given interest
// level. Nothing is stored.
type Preview struct {
	Reply      string               `json:"response"`
	Fallback   bool                 `json:"fallback"`
	ErrorClass string               `json:"error_class,omitempty"`
	Interest   models.InterestLevel `json:"interest_level"`
	Signals    interest.Signals     `json:"signals"`
	TaskKinds  []string             `json:"task_kinds,omitempty"`
	Knowledge  []string             `json:"knowledge,omitempty"`
}

// Preview runs text through knowledge search, reply generation, the interest
// classifier and the task triggers without touching contacts, conversations
// or tasks.
func (o *Orchestrator) Preview(ctx context.Context, text string, current models.InterestLevel) Preview {
	text = strings.TrimSpace(text)
	if !current.Valid() {
		current = models.InterestNew
	}
	log := o.d.Log.With(zap.Bool("sandbox", true))

	var snippets []knowledge.Snippet
	if o.d.Knowledge != nil && text != "" {
		var err error
		snippets, err = o.d.Knowledge.Search(ctx, text, o.d.KnowledgeTopK)
		if err != nil {
			log.Warn("knowledge search failed", zap.Error(err))
			snippets = nil
		}
	}

	reply := o.d.Replies.Generate(ctx, llm.Request{
		UserMessage: text,
		Contact: llm.ContactView{
			Name:          SandboxContactName,
			InterestLevel: current,
			Channel:       models.ChannelWeb,
		},
		Knowledge: snippets,
	})

	agentReply := reply.Text
	if reply.Fallback {
		agentReply = ""
	}
	signals := interest.Detect(text, agentReply)

	p := Preview{
		Reply:    reply.Text,
		Fallback: reply.Fallback,
		Interest: interest.Transition(current, signals),
		Signals:  signals,
	}
	if reply.Fallback {
		p.ErrorClass = string(reply.Class)
	}
	for _, tr := range tasks.Detect(text) {
		p.TaskKinds = append(p.TaskKinds, tr.Kind)
	}
	for _, s := range snippets {
		p.Knowledge = append(p.Knowledge, s.Title)
	}
	return p
}
