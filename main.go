package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leaddesk/config"
	"leaddesk/controllers"
	"leaddesk/db"
	"leaddesk/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	cfg        config.Configuration
)

var rootCmd = &cobra.Command{
	Use:   "leaddesk",
	Short: "Conversational sales CRM backend",
	Long: `leaddesk receives chat messages from the web widget, WhatsApp and
Telegram, keeps contacts and conversations, answers with an LLM and scores
each lead's interest.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.L.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the events worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger.L)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := cfg
		conf.AutoMigrate = false
		conn, err := db.Connect(conf)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.Migrate(conn); err != nil {
			return err
		}
		logger.L.Info("migrations applied", zap.String("database", conf.Database))
		return nil
	},
}

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator JWT for the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.Security.TokenTTLHours) * time.Hour
		}
		tok, err := controllers.IssueToken(cfg.Security.JwtSecret, tokenSubject, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file (optional)")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "operator identifier stored in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", controllers.RoleAdmin, "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from security.token_ttl_hours)")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
