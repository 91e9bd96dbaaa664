package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"leaddesk/agent"
	"leaddesk/config"
	"leaddesk/contacts"
	"leaddesk/controllers"
	"leaddesk/conversations"
	"leaddesk/db"
	"leaddesk/knowledge"
	"leaddesk/llm"
	"leaddesk/models"
	"leaddesk/router"
	"leaddesk/tasks"
	"leaddesk/tools"
	"leaddesk/workers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serve runs the HTTP API and the events worker until ctx is cancelled.
func serve(ctx context.Context, cfg config.Configuration, log *zap.Logger) error {
	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	// LLM
	var (
		completer llm.Completer
		embedder  knowledge.Embedder
	)
	if cfg.LLM.Disabled {
		log.Warn("llm disabled by configuration, every reply is a fallback")
	} else {
		client, err := llm.NewOpenAIClient(cfg.LLM)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			log.Warn("no llm api key configured, every reply is a fallback")
		case err != nil:
			return fmt.Errorf("llm client: %w", err)
		default:
			completer = client
			if cfg.Knowledge.Embeddings {
				embedder = client
			}
		}
	}
	gateway := llm.NewGateway(completer, llm.OptionsFromConfig(cfg), log)

	// knowledge
	snippets := knowledge.NewStore(conn, embedder, cfg.Knowledge.MinScore, log)
	static := &knowledge.Static{Entries: knowledge.WorkshopEntries(knowledge.DefaultContact{
		Phone:         cfg.HumanContact.Phone,
		SchedulingURL: cfg.HumanContact.SchedulingURL,
		Website:       cfg.HumanContact.Website,
	})}

	// per-conversation lock
	var locker agent.Locker = agent.NewMemoryLocker()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		locker = agent.NewRedisLocker(rdb, cfg.LockTimeout())
		log.Info("using redis conversation locks")
	}

	dir := contacts.NewDirectory(conn, log)
	convs := conversations.NewStore(conn, log, cfg.SessionTimeout())
	taskStore := tasks.NewStore(conn, log)

	orch := agent.NewOrchestrator(agent.Deps{
		Contacts:      dir,
		Conversations: convs,
		Replies:       gateway,
		Knowledge:     knowledge.Multi{Providers: []knowledge.Provider{static, snippets}, Log: log},
		Tasks:         taskStore,
		Locker:        locker,
		Log:           log,
		KnowledgeTopK: cfg.Knowledge.TopK,
		HistoryTurns:  cfg.LLM.HistoryTurns,
		LockTimeout:   cfg.LockTimeout(),
	})

	svc := &controllers.Services{
		Config:        cfg,
		Agent:         orch,
		Sandbox:       orch,
		Contacts:      dir,
		Conversations: convs,
		Tasks:         taskStore,
		Knowledge:     snippets,
		Log:           log,
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := tools.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			// webhook replies still work without the Bot API
			log.Error("telegram bot unavailable, replying through webhook responses", zap.Error(err))
		} else {
			svc.Telegram = tg
		}
	}

	wa := tools.WhatsAppClient{
		AccessToken:   cfg.WhatsApp.AccessToken,
		ApiVersion:    cfg.WhatsApp.ApiVersion,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
	}
	messenger := tools.MessengerClient{
		Platform:        "messenger",
		PageAccessToken: cfg.Meta.PageAccessToken,
		ApiVersion:      cfg.Meta.ApiVersion,
		PageID:          cfg.Meta.PageID,
	}
	instagram := tools.MessengerClient{
		Platform:        "instagram",
		PageAccessToken: cfg.Meta.InstagramAccessToken,
		ApiVersion:      cfg.Meta.ApiVersion,
		PageID:          cfg.Meta.PageID,
	}

	senders := map[models.Channel]workers.TextSender{}
	if wa.Configured() {
		senders[models.ChannelWhatsApp] = wa
	}
	if messenger.Configured() {
		senders[models.ChannelMessenger] = messenger
	}
	if instagram.Configured() {
		senders[models.ChannelInstagram] = instagram
	}
	if len(senders) == 0 {
		log.Warn("no outbound channel configured, replies are stored on events only")
	}
	worker := &workers.EventProcessor{
		DB:      conn,
		Agent:   orch,
		Senders: senders,
		DryRun:  cfg.WhatsApp.DryRun,
		Log:     log,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	router.Initialize(engine, conn, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("leaddesk listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
