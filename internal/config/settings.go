package config

import (
	"errors"
	"time"
)

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT" envDefault:"10000"`
	MonPort     int    `env:"MON_PORT" envDefault:"8888"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"agent-relay"`

	LineChannelSecret string `env:"LINE_CHANNEL_SECRET"`
	LineChannelToken  string `env:"LINE_CHANNEL_TOKEN"`
	LineReplyURL      string `env:"LINE_REPLY_URL" envDefault:"https://api.line.me/v2/bot/message/reply"`

	IAMTokenURL        string        `env:"IAM_TOKEN_URL" envDefault:"https://iam.cloud.ibm.com/identity/token"`
	WatsonxAPIKey      string        `env:"WATSONX_API_KEY"`
	TokenRefreshLeeway time.Duration `env:"TOKEN_REFRESH_LEEWAY" envDefault:"5m"`

	AgentAPIURL          string        `env:"AGENT_API_URL" envDefault:"https://api.dl.watson-orchestrate.ibm.com"`
	AgentInstanceID      string        `env:"AGENT_INSTANCE_ID"`
	AgentID              string        `env:"AGENT_ID"`
	AgentEnvironmentID   string        `env:"AGENT_ENVIRONMENT_ID"`
	AgentTimeout         time.Duration `env:"AGENT_TIMEOUT" envDefault:"10s"`
	DisableEmbedSecurity bool          `env:"DISABLE_EMBED_SECURITY"`

	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
}

// Validate reports settings the relay cannot start without.
func (s *Settings) Validate() error {
	var errs []error
	if s.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if s.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_TOKEN is required"))
	}
	if s.WatsonxAPIKey == "" {
		errs = append(errs, errors.New("WATSONX_API_KEY is required"))
	}
	if s.AgentInstanceID == "" {
		errs = append(errs, errors.New("AGENT_INSTANCE_ID is required"))
	}
	if s.AgentID == "" || s.AgentEnvironmentID == "" {
		errs = append(errs, errors.New("AGENT_ID and AGENT_ENVIRONMENT_ID are required"))
	}
	return errors.Join(errs...)
}
