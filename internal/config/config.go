package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INVADERS_SSH_PORT.
const EnvPrefix = "INVADERS"

// Config is the full runtime configuration shared by all binaries.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	SSH         SSHConfig         `mapstructure:"ssh"`
	Web         WebConfig         `mapstructure:"web"`
	Player      PlayerConfig      `mapstructure:"player"`
	Scoreboard  ScoreboardConfig  `mapstructure:"scoreboard"`
	Starknet    StarknetConfig    `mapstructure:"starknet"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Taunt       TauntConfig       `mapstructure:"taunt"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`
}

// SSHConfig configures cmd/ssh.
type SSHConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	HostKeyPath string `mapstructure:"hostKeyPath"`
}

// WebConfig configures cmd/web.
type WebConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	DisplayHost string `mapstructure:"displayHost"`
}

// PlayerConfig identifies the local player for cmd/game.
type PlayerConfig struct {
	Address string `mapstructure:"address"`
}

// ScoreboardConfig selects where scores are written.
type ScoreboardConfig struct {
	Backend string        `mapstructure:"backend"` // none, sqlite, postgres, redis or http
	DSN     string        `mapstructure:"dsn"`
	Redis   RedisConfig   `mapstructure:"redis"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds the go-redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// StarknetConfig points at the score contract.
type StarknetConfig struct {
	RPCURL          string        `mapstructure:"rpcUrl"`
	ContractAddress string        `mapstructure:"contractAddress"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// LeaderboardConfig selects where the top list is read from.
type LeaderboardConfig struct {
	Source string `mapstructure:"source"` // store or starknet
	Size   int    `mapstructure:"size"`
}

// TauntConfig configures tweet generation.
type TauntConfig struct {
	Mode          string        `mapstructure:"mode"` // local, remote or off
	GroqURL       string        `mapstructure:"groqUrl"`
	GroqAPIKey    string        `mapstructure:"groqApiKey"`
	GroqModel     string        `mapstructure:"groqModel"`
	ProxyURL      string        `mapstructure:"proxyUrl"`
	PosterURL     string        `mapstructure:"posterUrl"`
	RemoteURL     string        `mapstructure:"remoteUrl"`
	LLMTimeout    time.Duration `mapstructure:"llmTimeout"`
	HealthTimeout time.Duration `mapstructure:"healthTimeout"`
	PostTimeout   time.Duration `mapstructure:"postTimeout"`
}

// setDefaults registers every key so environment overrides apply even when
// no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("ssh.host", "::")
	v.SetDefault("ssh.port", "2222")
	v.SetDefault("ssh.hostKeyPath", "/app/keys/host_key")

	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", "8080")
	v.SetDefault("web.displayHost", "your-server.com")

	v.SetDefault("player.address", "")

	v.SetDefault("scoreboard.backend", "none")
	v.SetDefault("scoreboard.dsn", "file:invaders.db")
	v.SetDefault("scoreboard.redis.addr", "localhost:6379")
	v.SetDefault("scoreboard.redis.password", "")
	v.SetDefault("scoreboard.redis.db", 0)
	v.SetDefault("scoreboard.redis.key", "invaders:scores")
	v.SetDefault("scoreboard.url", "http://localhost:8080")
	v.SetDefault("scoreboard.timeout", "10s")

	v.SetDefault("starknet.rpcUrl", "")
	v.SetDefault("starknet.contractAddress", "0x061f7a7802c2a5bddcaf22bd437d2271204cd75a9da6793d5ff50bfb9ad50d18")
	v.SetDefault("starknet.timeout", "15s")

	v.SetDefault("leaderboard.source", "store")
	v.SetDefault("leaderboard.size", 10)

	v.SetDefault("taunt.mode", "local")
	v.SetDefault("taunt.groqUrl", "https://api.groq.com/openai/v1/chat/completions")
	v.SetDefault("taunt.groqApiKey", "")
	v.SetDefault("taunt.groqModel", "llama3-8b-8192")
	v.SetDefault("taunt.proxyUrl", "")
	v.SetDefault("taunt.posterUrl", "")
	v.SetDefault("taunt.remoteUrl", "http://localhost:8080")
	v.SetDefault("taunt.llmTimeout", "30s")
	v.SetDefault("taunt.healthTimeout", "5s")
	v.SetDefault("taunt.postTimeout", "30s")
}

// legacyEnv maps bare environment variables onto config keys.
var legacyEnv = map[string]string{
	"taunt.groqApiKey": "GROQ_API_KEY",
	"taunt.proxyUrl":   "PROXY_URL",
	"taunt.posterUrl":  "TWITTER_SERVICE_URL",
	"ssh.host":         "SSH_HOST",
	"ssh.port":         "SSH_PORT",
	"ssh.hostKeyPath":  "SSH_HOST_KEY",
	"web.host":         "WEB_HOST",
	"web.port":         "WEB_PORT",
	"web.displayHost":  "SSH_DISPLAY_HOST",
}

// Load reads configuration from defaults, the optional file at path
// (JSON, YAML or TOML by extension) and the environment, in increasing
// order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.Scoreboard.Backend, "none", "sqlite", "postgres", "redis", "http") {
		errs = append(errs, fmt.Errorf("unknown scoreboard.backend %q", c.Scoreboard.Backend))
	}
	if !oneOf(c.Leaderboard.Source, "store", "starknet") {
		errs = append(errs, fmt.Errorf("unknown leaderboard.source %q", c.Leaderboard.Source))
	}
	if !oneOf(c.Taunt.Mode, "local", "remote", "off") {
		errs = append(errs, fmt.Errorf("unknown taunt.mode %q", c.Taunt.Mode))
	}
	if !oneOf(c.Log.Format, "console", "json") {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
