// Package agent coordinates one inbound message end to end: identity,
// thread, knowledge, reply, lead scoring and follow-up tasks.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leaddesk/contacts"
	"leaddesk/interest"
	"leaddesk/knowledge"
	"leaddesk/llm"
	"leaddesk/logger"
	"leaddesk/models"
	"leaddesk/tasks"

	"go.uber.org/zap"
)

// Hints is what a channel adapter extracted about the sender.
type Hints struct {
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Company    string `json:"company,omitempty"`
}

// Inbound is one message as received by a channel adapter.
type Inbound struct {
	Text    string
	Channel string
	Hints   Hints
}

// Outcome is the reply plus the identifiers of what was stored. Ids are zero
// for anything that could not be persisted.
type Outcome struct {
	Reply            string               `json:"response"`
	ContactID        int64                `json:"contact_id"`
	ConversationID   int64                `json:"conversation_id"`
	MessageID        int64                `json:"message_id"`
	InboundMessageID int64                `json:"inbound_message_id"`
	Interest         models.InterestLevel `json:"interest_level"`
	Fallback         bool                 `json:"fallback"`
	Ephemeral        bool                 `json:"ephemeral,omitempty"`
	TaskIDs          []int64              `json:"task_ids,omitempty"`
}

type ContactDirectory interface {
	ResolveOrCreate(ctx context.Context, ch models.Channel, externalID string, hints contacts.Hints) (*models.Contact, error)
	SetInterest(ctx context.Context, id int64, level models.InterestLevel) error
	AppendNote(ctx context.Context, id int64, note string) error
}

type ConversationStore interface {
	ResolveOrCreate(ctx context.Context, contactID int64, platform models.Channel) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, contactID int64, sender, content string, metadata map[string]any) (*models.Message, error)
	History(ctx context.Context, conversationID int64, limit int) ([]models.Message, error)
}

type ReplyGenerator interface {
	Generate(ctx context.Context, req llm.Request) llm.Reply
}

type TaskCreator interface {
	CreateForTriggers(ctx context.Context, contactID, conversationID int64, message string, triggers []tasks.Trigger) ([]models.AgentTask, error)
}

// Deps wires the orchestrator. Knowledge, Tasks and Locker are optional.
type Deps struct {
	Contacts      ContactDirectory
	Conversations ConversationStore
	Replies       ReplyGenerator
	Knowledge     knowledge.Provider
	Tasks         TaskCreator
	Locker        Locker
	Log           *zap.Logger

	KnowledgeTopK int
	HistoryTurns  int
	LockTimeout   time.Duration
}

type Orchestrator struct {
	d Deps
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Log = d.Log.With(zap.String("service", "agent"))
	if d.KnowledgeTopK <= 0 {
		d.KnowledgeTopK = 4
	}
	if d.HistoryTurns < 0 {
		d.HistoryTurns = 0
	}
	if d.LockTimeout <= 0 {
		d.LockTimeout = 45 * time.Second
	}
	return &Orchestrator{d: d}
}

// HandleInboundMessage always returns a reply. Storage failures degrade to
// an ephemeral contact and conversation; LLM failures to the gateway's
// canned reply. Neither is surfaced to the caller.
func (o *Orchestrator) HandleInboundMessage(ctx context.Context, in Inbound) Outcome {
	log := o.d.Log
	if reqLog := logger.FromContextOr(ctx, nil); reqLog != nil {
		log = reqLog.With(zap.String("service", "agent"))
	}
	text := strings.TrimSpace(in.Text)

	ch := models.ChannelWeb
	if raw := strings.TrimSpace(in.Channel); raw != "" {
		parsed, err := models.ParseChannel(raw)
		if err != nil {
			log.Warn("invalid channel, using web", zap.String("channel", raw))
		} else {
			ch = parsed
		}
	}
	log = log.With(zap.Stringer("channel", ch))

	var out Outcome

	// 1) contato
	contact, err := o.d.Contacts.ResolveOrCreate(ctx, ch, in.Hints.ExternalID, contacts.Hints{
		Name:    in.Hints.Name,
		Phone:   in.Hints.Phone,
		Email:   in.Hints.Email,
		Company: in.Hints.Company,
	})
	if err != nil {
		log.Error("identity resolution failed, using ephemeral contact", zap.Error(err))
		contact = ephemeralContact(in.Hints)
	}
	log = log.With(zap.Int64("contact_id", contact.ID))

	// one request at a time per thread
	if !contact.Ephemeral && o.d.Locker != nil {
		lctx, cancel := context.WithTimeout(ctx, o.d.LockTimeout)
		unlock, err := o.d.Locker.Lock(lctx, fmt.Sprintf("conversation:%d:%s", contact.ID, ch))
		cancel()
		if err != nil {
			log.Warn("conversation lock unavailable, continuing unlocked", zap.Error(err))
		} else {
			defer unlock()
		}
	}

	// 2) conversa
	var conv *models.Conversation
	if !contact.Ephemeral {
		conv, err = o.d.Conversations.ResolveOrCreate(ctx, contact.ID, ch)
		if err != nil {
			log.Error("conversation resolution failed, using ephemeral conversation", zap.Error(err))
			conv = nil
		}
	}
	ephemeral := conv == nil
	if ephemeral {
		conv = &models.Conversation{ContactID: contact.ID, Platform: ch}
	}
	out.Ephemeral = ephemeral
	out.ContactID = contact.ID
	out.ConversationID = conv.ID
	log = log.With(zap.Int64("conversation_id", conv.ID))

	// history is read before the inbound message is stored so it is not sent twice
	var history []llm.Turn
	if !ephemeral && o.d.HistoryTurns > 0 {
		msgs, err := o.d.Conversations.History(ctx, conv.ID, o.d.HistoryTurns)
		if err != nil {
			log.Warn("load history failed", zap.Error(err))
		} else {
			history = llm.TurnsFromMessages(msgs)
		}
	}

	// 3) mensagem do usuário
	if !ephemeral {
		msg, err := o.d.Conversations.AppendMessage(ctx, conv.ID, contact.ID, models.MESSAGE_SENDER_USER, text, nil)
		if err != nil {
			log.Error("persist inbound message failed", zap.Error(err))
		} else {
			out.InboundMessageID = msg.ID
		}
	}

	// 4) resposta
	var snippets []knowledge.Snippet
	if o.d.Knowledge != nil && text != "" {
		snippets, err = o.d.Knowledge.Search(ctx, text, o.d.KnowledgeTopK)
		if err != nil {
			log.Warn("knowledge search failed", zap.Error(err))
			snippets = nil
		}
	}
	reply := o.d.Replies.Generate(ctx, llm.Request{
		UserMessage: text,
		Contact: llm.ContactView{
			Name:          contact.Name,
			Company:       contact.Company,
			InterestLevel: contact.InterestLevel,
			Channel:       ch,
		},
		Knowledge: snippets,
		History:   history,
	})
	out.Reply = reply.Text
	out.Fallback = reply.Fallback

	// 5) mensagem do agente
	if !ephemeral {
		var meta map[string]any
		if reply.Fallback {
			meta = map[string]any{"fallback": true, "error_class": string(reply.Class)}
		}
		msg, err := o.d.Conversations.AppendMessage(ctx, conv.ID, contact.ID, models.MESSAGE_SENDER_AGENT, reply.Text, meta)
		if err != nil {
			log.Error("persist agent message failed", zap.Error(err))
		} else {
			out.MessageID = msg.ID
		}
	}

	// 6) nível de interesse; canned replies carry contact details that must
	// not count as a scheduling offer
	agentReply := reply.Text
	if reply.Fallback {
		agentReply = ""
	}
	current := contact.InterestLevel
	next := interest.NextState(current, text, agentReply)
	out.Interest = next
	if next != current {
		interestTransitionsTotal.WithLabelValues(current.String(), next.String()).Inc()
		log.Info("interest changed", zap.Stringer("from", current), zap.Stringer("to", next))
		if !contact.Ephemeral {
			if err := o.d.Contacts.SetInterest(ctx, contact.ID, next); err != nil {
				log.Error("persist interest failed", zap.Error(err))
			} else if err := o.d.Contacts.AppendNote(ctx, contact.ID, fmt.Sprintf("Interés: %s -> %s", current, next)); err != nil {
				log.Warn("append note failed", zap.Error(err))
			}
		}
	}

	// 7) tarefas
	if triggers := tasks.Detect(text); len(triggers) > 0 && !ephemeral && o.d.Tasks != nil {
		created, err := o.d.Tasks.CreateForTriggers(ctx, contact.ID, conv.ID, text, triggers)
		if err != nil {
			log.Error("create tasks failed", zap.Error(err))
		}
		for _, t := range created {
			out.TaskIDs = append(out.TaskIDs, t.ID)
			if err := o.d.Contacts.AppendNote(ctx, contact.ID, "Tarea creada: "+t.Kind); err != nil {
				log.Warn("append note failed", zap.Error(err))
			}
		}
	}

	outcome := "reply"
	switch {
	case ephemeral:
		outcome = "ephemeral"
	case reply.Fallback:
		outcome = "fallback"
	}
	inboundMessagesTotal.WithLabelValues(ch.String(), outcome).Inc()

	return out
}

func ephemeralContact(h Hints) *models.Contact {
	name := strings.TrimSpace(h.Name)
	if name == "" {
		name = models.UnknownContactName
	}
	return &models.Contact{
		Name:          name,
		Company:       strings.TrimSpace(h.Company),
		InterestLevel: models.InterestNew,
		Ephemeral:     true,
	}
}
