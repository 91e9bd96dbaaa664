package agent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"leaddesk/agent"
	"leaddesk/config"
	"leaddesk/contacts"
	"leaddesk/conversations"
	"leaddesk/db/dbtest"
	"leaddesk/knowledge"
	"leaddesk/llm"
	"leaddesk/models"
	"leaddesk/tasks"
)

var human = config.HumanContactConfig{Phone: "5535913417", SchedulingURL: "https://calendly.com/scaie/consulta"}

// scriptedCompleter answers every prompt with the same text and records the
// requests it saw.
type scriptedCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	seen  []llm.CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, req)
	if s.err != nil {
		return llm.Completion{}, s.err
	}
	return llm.Completion{Text: s.reply}, nil
}

func (s *scriptedCompleter) last() llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[len(s.seen)-1]
}

type harness struct {
	orch     *agent.Orchestrator
	contacts *contacts.Directory
	convs    *conversations.Store
	tasks    *tasks.Store
}

func newHarness(t *testing.T, completer llm.Completer) harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	conn := dbtest.New(t)

	dir := contacts.NewDirectory(conn, log)
	convs := conversations.NewStore(conn, log, 0)
	ts := tasks.NewStore(conn, log)
	gw := llm.NewGateway(completer, llm.Options{
		Model:        "test",
		Timeout:      time.Second,
		HistoryTurns: 10,
		Persona:      config.AgentConfig{Name: "Sofía", WorkshopTitle: "Sé más eficiente con IA"},
		Human:        human,
	}, log)

	orch := agent.NewOrchestrator(agent.Deps{
		Contacts:      dir,
		Conversations: convs,
		Replies:       gw,
		Knowledge:     knowledge.NewStatic(),
		Tasks:         ts,
		Locker:        agent.NewMemoryLocker(),
		Log:           log,
		HistoryTurns:  10,
	})
	return harness{orch: orch, contacts: dir, convs: convs, tasks: ts}
}

func TestFirstGreetingCreatesContactAndConversation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &scriptedCompleter{reply: "¡Hola! Soy Sofía, ¿en qué te puedo ayudar?"})

	out := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "Hi", Channel: "web", Hints: agent.Hints{ExternalID: "visitor-1"}})

	require.NotZero(t, out.ContactID)
	require.NotZero(t, out.ConversationID)
	require.NotZero(t, out.InboundMessageID)
	require.NotZero(t, out.MessageID)
	assert.False(t, out.Fallback)
	assert.False(t, out.Ephemeral)
	assert.Equal(t, "¡Hola! Soy Sofía, ¿en qué te puedo ayudar?", out.Reply)
	assert.Equal(t, models.InterestContacted, out.Interest)

	c, err := h.contacts.Get(ctx, out.ContactID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestContacted, c.InterestLevel)
	assert.Contains(t, c.Notes, "new -> contacted")

	msgs, err := h.convs.Messages(ctx, out.ConversationID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MESSAGE_SENDER_USER, msgs[0].Sender)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, models.MESSAGE_SENDER_AGENT, msgs[1].Sender)
}

func TestSecondMessageReusesContactAndEscalatesInterest(t *testing.T) {
	ctx := context.Background()
	comp := &scriptedCompleter{reply: "Con gusto te ayudo."}
	h := newHarness(t, comp)

	first := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "Hi", Channel: "web", Hints: agent.Hints{ExternalID: "visitor-2"}})
	second := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "What's the price?", Channel: "web", Hints: agent.Hints{ExternalID: "visitor-2"}})

	assert.Equal(t, first.ContactID, second.ContactID)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, models.InterestInterested, second.Interest)

	// the prompt carries the previous exchange but not the current message twice
	req := comp.last()
	require.Len(t, req.History, 2)
	assert.Equal(t, "Hi", req.History[0].Content)
	assert.Equal(t, llm.RoleAssistant, req.History[1].Role)
	assert.Equal(t, "What's the price?", req.User)
	assert.Contains(t, req.System, "Fase: descubrimiento")
}

func TestRefusalFromNewContact(t *testing.T) {
	h := newHarness(t, &scriptedCompleter{reply: "Entiendo, gracias por tu tiempo."})
	out := h.orch.HandleInboundMessage(context.Background(), agent.Inbound{Text: "Not interested, thanks", Channel: "telegram", Hints: agent.Hints{ExternalID: "tg-3"}})

	assert.Equal(t, models.InterestNotInterested, out.Interest)
	c, err := h.contacts.Get(context.Background(), out.ContactID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestNotInterested, c.InterestLevel)
}

func TestConcurrentFirstMessagesWithSamePhone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &scriptedCompleter{reply: "Hola."})

	var wg sync.WaitGroup
	outs := make([]agent.Outcome, 2)
	inputs := []agent.Inbound{
		{Text: "hola", Channel: "whatsapp", Hints: agent.Hints{ExternalID: "1000", Phone: "+1000"}},
		{Text: "hola", Channel: "telegram", Hints: agent.Hints{ExternalID: "tg-1000", Phone: "+1000"}},
	}
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in agent.Inbound) {
			defer wg.Done()
			outs[i] = h.orch.HandleInboundMessage(ctx, in)
		}(i, in)
	}
	wg.Wait()

	assert.Equal(t, outs[0].ContactID, outs[1].ContactID)
	assert.NotEqual(t, outs[0].ConversationID, outs[1].ConversationID)

	found, err := h.contacts.List(ctx, contacts.Filter{Query: "+1000"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	links, err := h.contacts.Channels(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestMissingCredentialStillReplies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	out := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "hola", Channel: "web", Hints: agent.Hints{ExternalID: "v-5"}})
	assert.True(t, out.Fallback)
	assert.Contains(t, out.Reply, human.Phone)
	assert.Contains(t, out.Reply, human.SchedulingURL)
	// the canned scheduling link does not count as an offer
	assert.Equal(t, models.InterestContacted, out.Interest)

	msgs, err := h.convs.Messages(ctx, out.ConversationID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hola", msgs[0].Content)
	assert.Contains(t, msgs[1].Metadata, "unauthorized")
}

func TestInboundMessageSurvivesLLMFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &scriptedCompleter{err: context.DeadlineExceeded})

	out := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "¿Cómo funciona el taller?", Channel: "web", Hints: agent.Hints{ExternalID: "v-6"}})
	assert.True(t, out.Fallback)
	require.NotZero(t, out.InboundMessageID)

	msgs, err := h.convs.Messages(ctx, out.ConversationID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "¿Cómo funciona el taller?", msgs[0].Content)
}

func TestInvalidChannelFallsBackToWeb(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &scriptedCompleter{reply: "ok"})

	out := h.orch.HandleInboundMessage(ctx, agent.Inbound{Text: "hola", Channel: "fax", Hints: agent.Hints{ExternalID: "f-1"}})
	require.False(t, out.Ephemeral)

	conv, err := h.convs.Get(ctx, out.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelWeb, conv.Platform)
}

func TestTriggersCreateTasksOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &scriptedCompleter{reply: "Claro, te comunico con un asesor."})

	in := agent.Inbound{Text: "Quiero hablar con un humano", Channel: "web", Hints: agent.Hints{ExternalID: "v-7"}}
	out := h.orch.HandleInboundMessage(ctx, in)
	require.Len(t, out.TaskIDs, 1)

	again := h.orch.HandleInboundMessage(ctx, in)
	assert.Empty(t, again.TaskIDs)

	list, err := h.tasks.List(ctx, tasks.Filter{ContactID: out.ContactID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.TASK_KIND_ESCALATE, list[0].Kind)
	assert.Equal(t, models.TASK_PRIORITY_HIGH, list[0].Priority)
}

type brokenDirectory struct{}

func (brokenDirectory) ResolveOrCreate(context.Context, models.Channel, string, contacts.Hints) (*models.Contact, error) {
	return nil, errors.New("database is locked")
}
func (brokenDirectory) SetInterest(context.Context, int64, models.InterestLevel) error {
	return errors.New("unexpected call")
}
func (brokenDirectory) AppendNote(context.Context, int64, string) error {
	return errors.New("unexpected call")
}

func TestStorageOutageUsesEphemeralContact(t *testing.T) {
	log := zaptest.NewLogger(t)
	convs := conversations.NewStore(dbtest.New(t), log, 0)
	orch := agent.NewOrchestrator(agent.Deps{
		Contacts:      brokenDirectory{},
		Conversations: convs,
		Replies:       llm.NewGateway(&scriptedCompleter{reply: "Hola, ¿en qué te ayudo?"}, llm.Options{Human: human}, log),
		Log:           log,
	})

	out := orch.HandleInboundMessage(context.Background(), agent.Inbound{Text: "hola", Channel: "web"})
	assert.True(t, out.Ephemeral)
	assert.Zero(t, out.ContactID)
	assert.Zero(t, out.MessageID)
	assert.Equal(t, "Hola, ¿en qué te ayudo?", out.Reply)
	assert.Equal(t, models.InterestContacted, out.Interest)

	list, err := convs.ListByContact(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestKnowledgeReachesPrompt(t *testing.T) {
	comp := &scriptedCompleter{reply: "Desde $1,499 MXN."}
	h := newHarness(t, comp)

	h.orch.HandleInboundMessage(context.Background(), agent.Inbound{Text: "¿Cuánto cuesta?", Channel: "web", Hints: agent.Hints{ExternalID: "v-8"}})
	sys := comp.last().System
	assert.True(t, strings.Contains(sys, "$1,499 MXN"), sys)
}
