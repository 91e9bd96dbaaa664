package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultApiPort        = "8080"
	DefaultDatabase       = "sqlite3"
	DefaultSqlitePath     = "db/database.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultLLMBaseURL     = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	DefaultLLMModel       = "qwen-plus"
	DefaultEmbeddingModel = "text-embedding-v3"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 512
	DefaultLLMTimeout     = 30
	DefaultLLMMaxRetries  = 2
	DefaultHistoryTurns   = 10
	DefaultKnowledgeTopK  = 4
	DefaultKnowledgeScore = 0.75
	DefaultLockTimeout    = 45
	DefaultDebounce       = 3
	DefaultWhatsAppAPI    = "v20.0"
	DefaultRatePerMinute  = 30
	DefaultRateBurst      = 10
	DefaultTokenTTLHours  = 24 * 30
	DefaultHumanPhone     = "5535913417"
	DefaultSchedulingURL  = "https://calendly.com/scaie/consulta"
)

type Configuration struct {
	ApiPort   string `json:"api_port"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // "json" ou "console"

	Database    string `json:"database"` // "sqlite3" ou "postgres"
	DbHost      string `json:"db_host"`
	DbPort      string `json:"db_port"`
	DbUser      string `json:"db_user"`
	DbName      string `json:"db_name"`
	DbPass      string `json:"db_pass"`
	DbSSLMode   string `json:"db_sslmode"`
	SqlitePath  string `json:"sqlite_path"`
	AutoMigrate bool   `json:"auto_migrate"`
	LogSQL      bool   `json:"log_sql"`

	Agent        AgentConfig        `json:"agent"`
	HumanContact HumanContactConfig `json:"human_contact"`
	LLM          LLMConfig          `json:"llm"`
	Knowledge    KnowledgeConfig    `json:"knowledge"`
	Conversation ConversationConfig `json:"conversation"`
	WhatsApp     WhatsAppConfig     `json:"whatsapp"`
	Telegram     TelegramConfig     `json:"telegram"`
	Meta         MetaConfig         `json:"meta"`
	Redis        RedisConfig        `json:"redis"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`

	// Origens liberadas no CORS; vazio = "*"
	CORSOrigins []string `json:"cors_origins"`

	Security struct {
		JwtSecret     string `json:"jwt_secret"`
		TokenTTLHours int    `json:"token_ttl_hours"`
	} `json:"security"`
}

// AgentConfig is the persona the reply prompt is written for.
type AgentConfig struct {
	Name          string `json:"name"`
	Personality   string `json:"personality"`
	Tone          string `json:"tone"`
	Goal          string `json:"goal"`
	WorkshopTitle string `json:"workshop_title"`
}

// HumanContactConfig is what every fallback reply points the user to.
type HumanContactConfig struct {
	Phone         string `json:"phone"`
	SchedulingURL string `json:"scheduling_url"`
	WhatsAppURL   string `json:"whatsapp_url"`
	Website       string `json:"website"`
}

type LLMConfig struct {
	Disabled       bool    `json:"disabled"`
	BaseURL        string  `json:"base_url"`
	APIKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	EmbeddingModel string  `json:"embedding_model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	// nil = DefaultLLMMaxRetries; 0 (or negative) disables retries
	MaxRetries     *int    `json:"max_retries"`
	HistoryTurns   int     `json:"history_turns"`
}

type KnowledgeConfig struct {
	TopK       int     `json:"top_k"`
	MinScore   float64 `json:"min_score"`
	Embeddings bool    `json:"embeddings"`
}

type ConversationConfig struct {
	// 0 keeps one conversation per contact+platform forever.
	SessionTimeoutMinutes int `json:"session_timeout_minutes"`
	LockTimeoutSeconds    int `json:"lock_timeout_seconds"`
}

type WhatsAppConfig struct {
	AccessToken     string `json:"access_token"`
	PhoneNumberID   string `json:"phone_number_id"`
	ApiVersion      string `json:"api_version"`
	VerifyToken     string `json:"verify_token"`
	AppSecret       string `json:"app_secret"`
	DebounceSeconds int    `json:"debounce_seconds"`
	DryRun          bool   `json:"dry_run"`
}

// MetaConfig covers the Messenger and Instagram webhooks. Verify token, app
// secret and API version fall back to the WhatsApp ones (same Meta app).
type MetaConfig struct {
	VerifyToken          string `json:"verify_token"`
	AppSecret            string `json:"app_secret"`
	ApiVersion           string `json:"api_version"`
	PageID               string `json:"page_id"`
	PageAccessToken      string `json:"page_access_token"`
	InstagramAccessToken string `json:"instagram_access_token"` // vazio = page_access_token
}

type TelegramConfig struct {
	BotToken      string `json:"bot_token"`
	WebhookSecret string `json:"webhook_secret"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

// Load reads the JSON config at path (optional), the .env file next to the
// working directory (optional) and the environment, in that order of
// precedence from lowest to highest.
func Load(path string) (Configuration, error) {
	var c Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return c, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c, nil
}

func applyEnv(c *Configuration) {
	setString(&c.ApiPort, "PORT", "API_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	setString(&c.Database, "DATABASE")
	setString(&c.DbHost, "DB_HOST")
	setString(&c.DbPort, "DB_PORT")
	setString(&c.DbUser, "DB_USER")
	setString(&c.DbName, "DB_NAME")
	setString(&c.DbPass, "DB_PASS")
	setString(&c.DbSSLMode, "DB_SSLMODE")
	setString(&c.SqlitePath, "SQLITE_PATH")
	setBool(&c.AutoMigrate, "AUTOMIGRATE")

	setString(&c.Agent.Name, "AGENT_NAME")
	setString(&c.Agent.Personality, "AGENT_PERSONALITY")
	setString(&c.Agent.Tone, "AGENT_TONE")
	setString(&c.Agent.Goal, "AGENT_GOAL")

	setString(&c.HumanContact.Phone, "HUMAN_CONTACT_PHONE")
	setString(&c.HumanContact.SchedulingURL, "HUMAN_CONTACT_SCHEDULING_URL")

	setBool(&c.LLM.Disabled, "DISABLE_LLM")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY", "DASHSCOPE_API_KEY", "OPENAI_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL", "QWEN_MODEL")
	setString(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setFloat(&c.LLM.Temperature, "TEMPERATURE")
	setInt(&c.LLM.MaxTokens, "MAX_TOKENS")
	setInt(&c.LLM.TimeoutSeconds, "LLM_TIMEOUT_SECONDS")

	setString(&c.WhatsApp.AccessToken, "WHATSAPP_ACCESS_TOKEN")
	setString(&c.WhatsApp.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	setString(&c.WhatsApp.VerifyToken, "WEBHOOK_VERIFY_TOKEN")
	setString(&c.WhatsApp.AppSecret, "WEBHOOK_APP_SECRET", "WHATSAPP_APP_SECRET", "META_APP_SECRET")
	setBool(&c.WhatsApp.DryRun, "POC_NO_WHATSAPP")

	setString(&c.Meta.VerifyToken, "META_VERIFY_TOKEN")
	setString(&c.Meta.PageID, "META_PAGE_ID")
	setString(&c.Meta.PageAccessToken, "MESSENGER_PAGE_ACCESS_TOKEN", "META_PAGE_ACCESS_TOKEN")
	setString(&c.Meta.InstagramAccessToken, "INSTAGRAM_ACCESS_TOKEN")

	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.WebhookSecret, "TELEGRAM_WEBHOOK_SECRET")

	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Security.JwtSecret, "JWT_SECRET")

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
}

func applyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = DefaultApiPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.DbSSLMode == "" {
		c.DbSSLMode = "disable"
	}
	if c.SqlitePath == "" {
		c.SqlitePath = DefaultSqlitePath
	}

	if c.Agent.Name == "" {
		c.Agent.Name = "SCAI"
	}
	if c.Agent.Personality == "" {
		c.Agent.Personality = "experto en ventas de workshops, profesional, directo, conversacional, natural"
	}
	if c.Agent.Tone == "" {
		c.Agent.Tone = "profesional y directo"
	}
	if c.Agent.Goal == "" {
		c.Agent.Goal = `vender el workshop "Sé más eficiente con IA" y posicionar a SCAIE como consultor experto en IA`
	}
	if c.Agent.WorkshopTitle == "" {
		c.Agent.WorkshopTitle = "Sé más eficiente con IA"
	}

	if c.HumanContact.Phone == "" {
		c.HumanContact.Phone = DefaultHumanPhone
	}
	if c.HumanContact.SchedulingURL == "" {
		c.HumanContact.SchedulingURL = DefaultSchedulingURL
	}
	if c.HumanContact.WhatsAppURL == "" {
		c.HumanContact.WhatsAppURL = "https://wa.me/" + c.HumanContact.Phone
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeout
	}
	retries := c.LLM.Retries()
	c.LLM.MaxRetries = &retries
	if c.LLM.HistoryTurns <= 0 {
		c.LLM.HistoryTurns = DefaultHistoryTurns
	}

	if c.Knowledge.TopK <= 0 {
		c.Knowledge.TopK = DefaultKnowledgeTopK
	}
	if c.Knowledge.MinScore == 0 {
		c.Knowledge.MinScore = DefaultKnowledgeScore
	}

	if c.Conversation.SessionTimeoutMinutes < 0 {
		c.Conversation.SessionTimeoutMinutes = 0
	}
	if c.Conversation.LockTimeoutSeconds <= 0 {
		c.Conversation.LockTimeoutSeconds = DefaultLockTimeout
	}

	if c.WhatsApp.ApiVersion == "" {
		c.WhatsApp.ApiVersion = DefaultWhatsAppAPI
	}
	if c.WhatsApp.DebounceSeconds <= 0 {
		c.WhatsApp.DebounceSeconds = DefaultDebounce
	}

	if c.Meta.VerifyToken == "" {
		c.Meta.VerifyToken = c.WhatsApp.VerifyToken
	}
	if c.Meta.AppSecret == "" {
		c.Meta.AppSecret = c.WhatsApp.AppSecret
	}
	if c.Meta.ApiVersion == "" {
		c.Meta.ApiVersion = c.WhatsApp.ApiVersion
	}
	if c.Meta.InstagramAccessToken == "" {
		c.Meta.InstagramAccessToken = c.Meta.PageAccessToken
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = DefaultRatePerMinute
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = DefaultRateBurst
	}

	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.TokenTTLHours <= 0 {
		c.Security.TokenTTLHours = DefaultTokenTTLHours
	}
}

// LLMTimeout returns the per-call timeout for chat completions.
// Retries resolves MaxRetries: unset means the default, negative means none.
func (c LLMConfig) Retries() int {
	switch {
	case c.MaxRetries == nil:
		return DefaultLLMMaxRetries
	case *c.MaxRetries < 0:
		return 0
	}
	return *c.MaxRetries
}

func (c Configuration) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c Configuration) SessionTimeout() time.Duration {
	return time.Duration(c.Conversation.SessionTimeoutMinutes) * time.Minute
}

func (c Configuration) LockTimeout() time.Duration {
	return time.Duration(c.Conversation.LockTimeoutSeconds) * time.Second
}

func (c Configuration) Debounce() time.Duration {
	return time.Duration(c.WhatsApp.DebounceSeconds) * time.Second
}

func lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, true
		}
	}
	return "", false
}

func setString(dst *string, keys ...string) {
	if v, ok := lookup(keys...); ok {
		*dst = v
	}
}

func setInt(dst *int, keys ...string) {
	if v, ok := lookup(keys...); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, keys ...string) {
	if v, ok := lookup(keys...); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, keys ...string) {
	if v, ok := lookup(keys...); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			*dst = true
		case "0", "false", "no":
			*dst = false
		}
	}
}
