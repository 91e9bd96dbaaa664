package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"leaddesk/db/dbtest"
	"leaddesk/models"
)

func kinds(trs []Trigger) []string {
	out := make([]string, 0, len(trs))
	for _, t := range trs {
		out = append(out, t.Kind)
	}
	return out
}

func TestDetect(t *testing.T) {
	assert.Empty(t, Detect("hola, ¿cuánto cuesta?"))
	assert.Equal(t, []string{models.TASK_KIND_ESCALATE}, kinds(Detect("Quiero hablar con un humano")))
	assert.Equal(t, []string{models.TASK_KIND_ESCALATE}, kinds(Detect("Can I talk to someone?")))
	assert.Equal(t,
		[]string{models.TASK_KIND_BROCHURE, models.TASK_KIND_QUOTE, models.TASK_KIND_DEMO},
		kinds(Detect("Mándame el folleto, una cotización y agenda una demo")))

	tr := Detect("necesito un asesor")
	require.Len(t, tr, 1)
	assert.Equal(t, models.TASK_PRIORITY_HIGH, tr[0].Priority)
	assert.Zero(t, tr[0].DueIn)

	tr = Detect("¿tienen brochure?")
	require.Len(t, tr, 1)
	assert.Equal(t, models.TASK_PRIORITY_MEDIUM, tr[0].Priority)
	assert.Equal(t, 24*time.Hour, tr[0].DueIn)
}

func TestCreateForTriggersDeduplicatesOpenTasks(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t))
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	created, err := s.CreateForTriggers(ctx, 1, 10, "quiero una demo y hablar con un humano", Detect("quiero una demo y hablar con un humano"))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, models.TASK_KIND_ESCALATE, created[0].Kind)
	assert.Equal(t, models.TASK_STATUS_PENDING, created[0].Status)
	assert.True(t, created[0].DueDate.Equal(base))
	assert.True(t, created[1].DueDate.Equal(base.Add(24*time.Hour)))
	assert.Contains(t, created[1].Description, "quiero una demo")

	again, err := s.CreateForTriggers(ctx, 1, 10, "otra demo", Detect("otra demo"))
	require.NoError(t, err)
	assert.Empty(t, again)

	// another contact is independent
	other, err := s.CreateForTriggers(ctx, 2, 11, "demo", Detect("demo"))
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// once completed, a new request opens a new task
	done := models.TASK_STATUS_COMPLETED
	_, err = s.Update(ctx, created[1].ID, UpdateRequest{Status: &done})
	require.NoError(t, err)
	reopened, err := s.CreateForTriggers(ctx, 1, 10, "demo", Detect("demo"))
	require.NoError(t, err)
	assert.Len(t, reopened, 1)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), zaptest.NewLogger(t))

	created, err := s.CreateForTriggers(ctx, 5, 0, "brochure", Detect("brochure"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	done := models.TASK_STATUS_COMPLETED
	high := models.TASK_PRIORITY_HIGH
	got, err := s.Update(ctx, id, UpdateRequest{Status: &done, Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, done, got.Status)
	assert.Equal(t, high, got.Priority)
	require.NotNil(t, got.CompletedAt)

	inProgress := models.TASK_STATUS_IN_PROGRESS
	got, err = s.Update(ctx, id, UpdateRequest{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)

	bad := "archived"
	_, err = s.Update(ctx, id, UpdateRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = s.Update(ctx, id, UpdateRequest{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	_, err = s.Update(ctx, 999, UpdateRequest{Status: &done})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	list, err := s.List(ctx, Filter{ContactID: 5, Status: inProgress})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.List(ctx, Filter{Kind: models.TASK_KIND_QUOTE})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateManualTask(t *testing.T) {
	conn := dbtest.New(t)
	s := NewStore(conn, zaptest.NewLogger(t))
	ctx := context.Background()

	contact := models.Contact{Name: "Ana", InterestLevel: models.InterestNew}
	require.NoError(t, conn.Create(&contact).Error)

	task, err := s.Create(ctx, CreateRequest{ContactID: contact.ID, Title: "  Llamar mañana "})
	require.NoError(t, err)
	assert.Equal(t, "Llamar mañana", task.Title)
	assert.Equal(t, models.TASK_KIND_MANUAL, task.Kind)
	assert.Equal(t, models.TASK_PRIORITY_MEDIUM, task.Priority)
	assert.Equal(t, models.TASK_STATUS_PENDING, task.Status)

	// manual tasks are not de-duplicated
	_, err = s.Create(ctx, CreateRequest{ContactID: contact.ID, Title: "Llamar mañana"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateRequest{ContactID: contact.ID})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = s.Create(ctx, CreateRequest{ContactID: contact.ID, Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	_, err = s.Create(ctx, CreateRequest{ContactID: 999, Title: "x"})
	assert.ErrorIs(t, err, ErrUnknownContact)
}
