package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every service setting.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Metrics  MetricsConfig
	Game     GameConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	providerCfg, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	gameCfg, err := loadGameConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Provider: providerCfg,
		Metrics:  loadMetricsConfig(),
		Game:     gameCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ProviderConfig selects and tunes the narrative generation backend.
// Name picks the variant: "local-model" needs no credentials, "ark"
// requires the Ark model settings below.
type ProviderConfig struct {
	Name        string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// RemoteEnabled reports whether the required Ark credentials are present.
func (c ProviderConfig) RemoteEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model instance from the configuration.
func (c ProviderConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.RemoteEnabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadProviderConfig() (ProviderConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ProviderConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return ProviderConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ProviderConfig{}, err
	}

	name := strings.TrimSpace(os.Getenv("PROVIDER"))
	if name == "" {
		name = "local-model"
	}

	return ProviderConfig{
		Name:        name,
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// MetricsConfig locates the two metrics sinks.
type MetricsConfig struct {
	LogPath string
	DBPath  string
}

func loadMetricsConfig() MetricsConfig {
	return MetricsConfig{
		LogPath: getEnvOrDefault("METRICS_LOG_PATH", "logs/gm_metrics.log"),
		DBPath:  getEnvOrDefault("METRICS_DB_PATH", "data/gm_metrics.db"),
	}
}

// GameConfig tunes the session engine.
type GameConfig struct {
	RecentTurns int
	Seed        *int64
}

func loadGameConfig() (GameConfig, error) {
	recent := 5
	if override, err := parseOptionalIntEnv("GM_RECENT_TURNS"); err != nil {
		return GameConfig{}, err
	} else if override != nil {
		if *override < 1 {
			recent = 1
		} else {
			recent = *override
		}
	}

	var seed *int64
	if raw := strings.TrimSpace(os.Getenv("GM_DICE_SEED")); raw != "" {
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return GameConfig{}, fmt.Errorf("invalid GM_DICE_SEED value %q: %w", raw, err)
		}
		seed = &val
	}

	return GameConfig{RecentTurns: recent, Seed: seed}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
