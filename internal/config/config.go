package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "CHARYSCAN_CONFIG"
	nodesEnv        = "CHARYSCAN_NODES"
	databaseDSNEnv  = "DATABASE_DSN"
	scoringKeyEnv   = "SCORING_API_KEY"
	kafkaBrokersEnv = "KAFKA_BROKERS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Nodes    []string       `yaml:"nodes"`
	RPC      RPCConfig      `yaml:"rpc"`
	Database DatabaseConfig `yaml:"database"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Report   ReportConfig   `yaml:"report"`
	Sources  []SourceConfig `yaml:"sources"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RPCConfig tunes the multi-node fallback client.
type RPCConfig struct {
	AttemptTimeoutSeconds int `yaml:"attemptTimeoutSeconds"`
}

// AttemptTimeout resolves the per-endpoint deadline.
func (r RPCConfig) AttemptTimeout() time.Duration {
	if r.AttemptTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.AttemptTimeoutSeconds) * time.Second
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ScoringConfig defines how to contact the HTTP scoring endpoint.
type ScoringConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Prompt   string `yaml:"prompt"`
}

// OllamaConfig enables the local-model scorer when URL is set.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// KafkaConfig enables analysis events when brokers are set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WalletConfig selects and configures the signing providers.
type WalletConfig struct {
	Provider string         `yaml:"provider"`
	Account  string         `yaml:"account"`
	Keychain KeychainConfig `yaml:"keychain"`
	Signer   SignerConfig   `yaml:"signer"`
	OAuth    OAuthConfig    `yaml:"oauth"`
}

// KeychainConfig points at the local keychain bridge.
type KeychainConfig struct {
	URL string `yaml:"url"`
}

// SignerConfig points at the remote handshake signing service.
type SignerConfig struct {
	URL string `yaml:"url"`
}

// OAuthConfig wires the redirect-based signer.
type OAuthConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURI  string `yaml:"redirectUri"`
	AuthorizeURL string `yaml:"authorizeUrl"`
	TokenURL     string `yaml:"tokenUrl"`
	APIURL       string `yaml:"apiUrl"`
}

// ReportConfig shapes the published curation report post.
type ReportConfig struct {
	Title          string `yaml:"title"`
	ParentPermlink string `yaml:"parentPermlink"`
	Limit          int    `yaml:"limit"`
}

// SourceConfig describes one tag or community to query for posts.
type SourceConfig struct {
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An empty path falls back to the CHARYSCAN_CONFIG variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Nodes) == 0 {
		cfg.Nodes = defaultConfig().Nodes
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(nodesEnv); v != "" {
		c.Nodes = splitList(v)
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(scoringKeyEnv); v != "" {
		c.Scoring.APIKey = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Nodes) > 0 {
		base.Nodes = override.Nodes
	}
	if override.RPC.AttemptTimeoutSeconds > 0 {
		base.RPC = override.RPC
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scoring.Endpoint != "" {
		base.Scoring.Endpoint = override.Scoring.Endpoint
	}
	if override.Scoring.APIKey != "" {
		base.Scoring.APIKey = override.Scoring.APIKey
	}
	if override.Scoring.Prompt != "" {
		base.Scoring.Prompt = override.Scoring.Prompt
	}

	if override.Ollama.URL != "" {
		base.Ollama.URL = override.Ollama.URL
	}
	if override.Ollama.Model != "" {
		base.Ollama.Model = override.Ollama.Model
	}

	if len(override.Kafka.Brokers) > 0 {
		base.Kafka.Brokers = override.Kafka.Brokers
	}
	if override.Kafka.Topic != "" {
		base.Kafka.Topic = override.Kafka.Topic
	}

	if override.Wallet.Provider != "" {
		base.Wallet.Provider = override.Wallet.Provider
	}
	if override.Wallet.Account != "" {
		base.Wallet.Account = override.Wallet.Account
	}
	if override.Wallet.Keychain.URL != "" {
		base.Wallet.Keychain = override.Wallet.Keychain
	}
	if override.Wallet.Signer.URL != "" {
		base.Wallet.Signer = override.Wallet.Signer
	}
	if override.Wallet.OAuth.ClientID != "" {
		base.Wallet.OAuth = override.Wallet.OAuth
	}

	if override.Report.Title != "" {
		base.Report.Title = override.Report.Title
	}
	if override.Report.ParentPermlink != "" {
		base.Report.ParentPermlink = override.Report.ParentPermlink
	}
	if override.Report.Limit > 0 {
		base.Report.Limit = override.Report.Limit
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Nodes: []string{
			"https://api.hive.blog",
			"https://api.deathwing.me",
			"https://anyx.io",
		},
		RPC:     RPCConfig{AttemptTimeoutSeconds: 10},
		Scoring: ScoringConfig{Endpoint: ""},
		Ollama:  OllamaConfig{Model: "nemotron-mini"},
		Kafka:   KafkaConfig{Topic: "charyscan.analyses"},
		Wallet: WalletConfig{
			Provider: "keychain",
			Keychain: KeychainConfig{URL: "http://localhost:30481"},
			Signer:   SignerConfig{URL: "https://hivesigner.com/api"},
		},
		Report: ReportConfig{
			Title:          "Charity curation report",
			ParentPermlink: "hive-149312",
			Limit:          10,
		},
		Sources: []SourceConfig{
			{Kind: "tag", Name: "charity", Limit: 20},
			{Kind: "community", Name: "hive-149312", Limit: 20},
		},
	}
}
