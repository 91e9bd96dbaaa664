package workers

import (
	"context"
	"strings"
	"sync"
	"time"

	"leaddesk/agent"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// InboundHandler runs one channel message through the agent.
type InboundHandler interface {
	HandleInboundMessage(ctx context.Context, in agent.Inbound) agent.Outcome
}

// TextSender delivers a reply to a channel recipient.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// EventProcessor turns due debounced events into agent replies.
type EventProcessor struct {
	DB     *gorm.DB
	Agent  InboundHandler
	// Senders by channel; a channel without sender (or DryRun) only stores
	// the reply on the event.
	Senders map[models.Channel]TextSender
	DryRun  bool
	Log    *zap.Logger

	Interval       time.Duration
	BatchSize      int
	HandlerTimeout time.Duration

	wg sync.WaitGroup
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
func (p *EventProcessor) Run(ctx context.Context) error {
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	p.Log = p.Log.With(zap.String("service", "events_worker"))
	if p.Interval <= 0 {
		p.Interval = time.Second
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 50
	}
	if p.HandlerTimeout <= 0 {
		p.HandlerTimeout = 60 * time.Second
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.Log.Info("events worker started", zap.Duration("interval", p.Interval), zap.Bool("dry_run", p.DryRun))
	for {
		select {
		case <-ctx.Done():
			p.Log.Info("events worker stopping")
			return nil
		case <-ticker.C:
			p.processDueEvents(ctx)
		}
	}
}

func (p *EventProcessor) processDueEvents(ctx context.Context) {
	now := time.Now()

	var events []models.Event
	if err := p.DB.
		Where("status = ?", models.EVENT_STATUS_PENDING).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at asc, id asc").
		Limit(p.BatchSize).
		Find(&events).Error; err != nil {
		p.Log.Error("query due events failed", zap.Error(err))
		return
	}

	for _, ev := range events {
		// lock otimista: só processa se conseguir mudar status
		res := p.DB.Model(&models.Event{}).
			Where("id = ? AND status = ?", ev.ID, models.EVENT_STATUS_PENDING).
			Update("status", models.EVENT_STATUS_PROCESSING)
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		p.wg.Add(1)
		go func(ev models.Event) {
			defer p.wg.Done()
			p.handleEvent(context.WithoutCancel(ctx), ev)
		}(ev)
	}
}

// handleEvent runs even when Run's ctx is cancelled mid-flight so a claimed
// event never stays in processing.
func (p *EventProcessor) handleEvent(ctx context.Context, ev models.Event) {
	ctx, cancel := context.WithTimeout(ctx, p.HandlerTimeout)
	defer cancel()

	log := p.Log.With(zap.Int64("event_id", ev.ID), zap.Stringer("channel", ev.Channel))

	out := p.Agent.HandleInboundMessage(ctx, agent.Inbound{
		Text:    strings.TrimSpace(ev.Text),
		Channel: ev.Channel.String(),
		Hints: agent.Hints{
			ExternalID: ev.Recipient,
			Name:       ev.Name,
			Phone:      phoneHint(ev),
		},
	})

	if sender := p.Senders[ev.Channel]; !p.DryRun && sender != nil {
		if err := sender.SendText(ctx, ev.Recipient, out.Reply); err != nil {
			log.Error("send reply failed", zap.Error(err))
		}
	} else if !p.DryRun {
		log.Debug("no sender for channel, reply stored only")
	}

	t := time.Now()
	if err := p.DB.Model(&models.Event{}).Where("id = ?", ev.ID).Updates(map[string]any{
		"status":           models.EVENT_STATUS_DONE,
		"processed_at":     &t,
		"reply_text":       out.Reply,
		"contact_id":       out.ContactID,
		"reply_message_id": out.MessageID,
	}).Error; err != nil {
		log.Error("mark event done failed", zap.Error(err))
		return
	}
	log.Debug("event processed", zap.Int64("contact_id", out.ContactID), zap.Bool("fallback", out.Fallback))
}

// WhatsApp ids are the sender's phone number in international format.
func phoneHint(ev models.Event) string {
	if ev.Channel != models.ChannelWhatsApp || ev.Recipient == "" {
		return ""
	}
	return "+" + strings.TrimPrefix(ev.Recipient, "+")
}
