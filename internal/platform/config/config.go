package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Webhooks     WebhooksConfig     `mapstructure:"webhooks"`
	Embed        EmbedConfig        `mapstructure:"embed"`
	Integrations IntegrationsConfig `mapstructure:"integrations"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type RateLimitConfig struct {
	PublicWritePerMinute int `mapstructure:"public_write_per_minute"`
	APIWritePerMinute    int `mapstructure:"api_write_per_minute"`
}

// WebhooksConfig bounds outbound delivery. There is no retry setting:
// deliveries are attempted once.
type WebhooksConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

type EmbedConfig struct {
	LoaderCacheMaxAge time.Duration `mapstructure:"loader_cache_max_age"`
	OrgCacheTTL       time.Duration `mapstructure:"org_cache_ttl"`
}

type IntegrationsConfig struct {
	Slack            OAuthProviderConfig `mapstructure:"slack"`
	Linear           OAuthProviderConfig `mapstructure:"linear"`
	Google           OAuthProviderConfig `mapstructure:"google"`
	DefaultReturnURL string              `mapstructure:"default_return_url"`
	// StateSecret signs the OAuth state. Empty falls back to jwt.secret.
	StateSecret      string              `mapstructure:"state_secret"`
	StateTTL         time.Duration       `mapstructure:"state_ttl"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)

	v.SetDefault("database.path", "./data/boardly.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "boardly")
	v.SetDefault("jwt.access_token_ttl", time.Hour)

	v.SetDefault("rate_limit.public_write_per_minute", 20)
	v.SetDefault("rate_limit.api_write_per_minute", 120)

	v.SetDefault("webhooks.timeout", 10*time.Second)
	v.SetDefault("webhooks.max_concurrency", 8)

	v.SetDefault("embed.loader_cache_max_age", 5*time.Minute)
	v.SetDefault("embed.org_cache_ttl", 30*time.Second)

	// Unmarshal only sees env overrides for keys viper already knows about.
	for _, provider := range []string{"slack", "linear", "google"} {
		v.SetDefault("integrations."+provider+".client_id", "")
		v.SetDefault("integrations."+provider+".client_secret", "")
		v.SetDefault("integrations."+provider+".redirect_url", "")
	}
	v.SetDefault("integrations.default_return_url", "/settings/integrations")
	v.SetDefault("integrations.state_secret", "")
	v.SetDefault("integrations.state_ttl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Load reads the YAML file at path and applies BOARDLY_* environment
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("boardly")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
